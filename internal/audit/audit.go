// Package audit keeps a per-case record of every protocol call: who asked
// what through which transport, and how it ended.
package audit

import "time"

// Transport identifies how a call reached the dispatcher.
type Transport string

const (
	TransportMCP  Transport = "mcp"
	TransportHTTP Transport = "http"
	TransportCLI  Transport = "cli"
)

// Entry is a single activity record.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Transport Transport     `json:"transport"`
	Method    string        `json:"method"`
	CaseID    string        `json:"case_id,omitempty"`
	Outcome   string        `json:"outcome"`
	Summary   string        `json:"summary,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}
