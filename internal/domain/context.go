package domain

// ScopeKind distinguishes case-scoped retrieval from the system aggregate.
type ScopeKind string

const (
	ScopeCase   ScopeKind = "case"
	ScopeSystem ScopeKind = "system"
)

// Aggregate is the system-wide rollup over every case.
type Aggregate struct {
	CaseCount          int                `json:"case_count"`
	StatusCounts       map[string]int     `json:"status_counts"`
	TotalsByRecordType map[string]float64 `json:"totals_by_record_type"`
	TotalAmount        float64            `json:"total_amount"`
	PerCaseSummaries   []CaseSummary      `json:"per_case_summaries"`
}

// QueryContext is what a query was answered from. Exactly one of
// Retrieved (case scope) or Aggregate (system scope) is meaningful.
type QueryContext struct {
	Kind      ScopeKind     `json:"kind"`
	CaseID    string        `json:"case_id,omitempty"`
	Retrieved []ScoredChunk `json:"retrieved,omitempty"`
	Case      *Case         `json:"case,omitempty"`
	Aggregate *Aggregate    `json:"aggregate,omitempty"`
}

// LetterSection is one named part of a generated letter with the
// retrieval that produced it.
type LetterSection struct {
	Name      string        `json:"name"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Amount    float64       `json:"amount,omitempty"`
	Fallback  bool          `json:"fallback"`
	Error     string        `json:"error,omitempty"`
	Retrieved []ScoredChunk `json:"retrieved"`
}
