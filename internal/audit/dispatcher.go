package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/metrics"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
)

// Dispatcher is what a transport calls. It matches the dispatcher
// interfaces of the MCP and HTTP servers.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, params map[string]any) (any, error)
}

// Recorder logs every call that passes through it and forwards it
// unchanged. A failed write is logged and never fails the call.
type Recorder struct {
	next      Dispatcher
	store     *Store
	transport Transport
	log       *slog.Logger
}

func NewRecorder(next Dispatcher, store *Store, transport Transport, log *slog.Logger) *Recorder {
	return &Recorder{next: next, store: store, transport: transport, log: logging.OrDefault(log)}
}

func (r *Recorder) Dispatch(ctx context.Context, method string, params map[string]any) (any, error) {
	start := time.Now()
	result, err := r.next.Dispatch(ctx, method, params)

	// The call may have been cancelled; the record should still land.
	if lerr := r.store.Log(context.WithoutCancel(ctx), NewEntry(r.transport, method, params, start, err)); lerr != nil {
		r.log.Warn("recording activity", "method", method, "error", lerr)
	}
	return result, err
}

// NewEntry describes a call to method that began at start and ended with
// err. Case id and summary are taken from params.
func NewEntry(t Transport, method string, params map[string]any, start time.Time, err error) Entry {
	e := Entry{
		Timestamp: start,
		Transport: t,
		Method:    method,
		CaseID:    stringParam(params, protocol.ParamCaseID),
		Outcome:   metrics.Outcome(err),
		Summary:   summarize(method, params),
		Duration:  time.Since(start),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

const summaryLimit = 200

func summarize(method string, params map[string]any) string {
	var s string
	switch method {
	case protocol.MethodQuery:
		s = stringParam(params, protocol.ParamQuery)
	case protocol.MethodAnalyzeDocument:
		s = stringParam(params, protocol.ParamFilePath)
	case protocol.MethodGenerateDemandLetter:
		s = stringParam(params, protocol.ParamTemplateType)
		if s == "" {
			s = protocol.DefaultTemplateType
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > summaryLimit {
		s = s[:summaryLimit] + "..."
	}
	return s
}

func stringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return strings.TrimSpace(s)
}
