// Package casedata reads structured case records: parties, timeline
// events and financial records. The pipeline only reads this data.
package casedata

import (
	"context"
	"sort"
	"strings"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// Source is the read-only case data collaborator.
type Source interface {
	// GetCase returns the full record, or an error wrapping
	// domain.ErrNotFound.
	GetCase(ctx context.Context, caseID string) (*domain.Case, error)

	// ListCases returns a summary of every case ordered by case id.
	ListCases(ctx context.Context) ([]domain.CaseSummary, error)
}

// Aggregate rolls case summaries up into system-wide totals. Totals by
// record type are the sums of the per-case totals.
func Aggregate(cases []domain.CaseSummary) domain.Aggregate {
	agg := domain.Aggregate{
		CaseCount:          len(cases),
		StatusCounts:       make(map[string]int),
		TotalsByRecordType: make(map[string]float64),
		PerCaseSummaries:   make([]domain.CaseSummary, len(cases)),
	}
	copy(agg.PerCaseSummaries, cases)
	sort.SliceStable(agg.PerCaseSummaries, func(i, j int) bool {
		return agg.PerCaseSummaries[i].CaseID < agg.PerCaseSummaries[j].CaseID
	})

	for _, c := range cases {
		status := strings.TrimSpace(c.Status)
		if status == "" {
			status = "Unknown"
		}
		agg.StatusCounts[status]++
		for recordType, amount := range c.TotalsByType {
			agg.TotalsByRecordType[recordType] += amount
		}
		agg.TotalAmount += c.TotalAmount
	}
	return agg
}
