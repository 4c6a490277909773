package domain

import "time"

// Financial record types that feed the demand calculation.
const (
	RecordMedical       = "medical"
	RecordLostWages     = "lost_wages"
	RecordPainSuffering = "pain_suffering"
)

// Case is the structured record of a legal matter, read from the case
// data source.
type Case struct {
	CaseID     string            `json:"case_id" yaml:"case_id"`
	CaseType   string            `json:"case_type" yaml:"case_type"`
	Status     string            `json:"status" yaml:"status"`
	DateFiled  *time.Time        `json:"date_filed,omitempty" yaml:"date_filed,omitempty"`
	Summary    string            `json:"summary" yaml:"summary"`
	Parties    []Party           `json:"parties" yaml:"parties"`
	Events     []TimelineEvent   `json:"events" yaml:"events"`
	Financials []FinancialRecord `json:"financials" yaml:"financials"`
}

type Party struct {
	PartyType   string `json:"party_type" yaml:"party_type"`
	Name        string `json:"name" yaml:"name"`
	ContactInfo string `json:"contact_info,omitempty" yaml:"contact_info,omitempty"`
}

type TimelineEvent struct {
	EventDate   *time.Time `json:"event_date,omitempty" yaml:"event_date,omitempty"`
	Description string     `json:"description" yaml:"description"`
}

type FinancialRecord struct {
	RecordType  string  `json:"record_type" yaml:"record_type"`
	Amount      float64 `json:"amount" yaml:"amount"`
	Description string  `json:"description" yaml:"description"`
}

// PartyByType returns the name of the first party of the given type, or
// the empty string.
func (c *Case) PartyByType(partyType string) string {
	for _, p := range c.Parties {
		if p.PartyType == partyType {
			return p.Name
		}
	}
	return ""
}

// TotalsByType sums financial records grouped by record type.
func (c *Case) TotalsByType() map[string]float64 {
	totals := make(map[string]float64)
	for _, f := range c.Financials {
		totals[f.RecordType] += f.Amount
	}
	return totals
}

// Summarize reduces a case to its list form.
func (c *Case) Summarize() CaseSummary {
	s := CaseSummary{
		CaseID:       c.CaseID,
		CaseType:     c.CaseType,
		Status:       c.Status,
		DateFiled:    c.DateFiled,
		Summary:      c.Summary,
		PartyCount:   len(c.Parties),
		EventCount:   len(c.Events),
		TotalsByType: c.TotalsByType(),
	}
	for _, f := range c.Financials {
		s.TotalAmount += f.Amount
	}
	return s
}

// CaseSummary is the per-case row of a case listing.
type CaseSummary struct {
	CaseID       string             `json:"case_id"`
	CaseType     string             `json:"case_type"`
	Status       string             `json:"status"`
	DateFiled    *time.Time         `json:"date_filed,omitempty"`
	Summary      string             `json:"summary"`
	PartyCount   int                `json:"party_count"`
	EventCount   int                `json:"event_count"`
	TotalAmount  float64            `json:"total_amount"`
	TotalsByType map[string]float64 `json:"totals_by_record_type"`
}
