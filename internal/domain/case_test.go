package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseSummarize(t *testing.T) {
	c := Case{
		CaseID: "2024-PI-001",
		Status: "Active",
		Parties: []Party{
			{PartyType: "plaintiff", Name: "Jane Roe"},
			{PartyType: "defendant", Name: "Acme Trucking"},
		},
		Financials: []FinancialRecord{
			{RecordType: RecordMedical, Amount: 12000},
			{RecordType: RecordMedical, Amount: 6000},
			{RecordType: RecordLostWages, Amount: 15000},
			{RecordType: RecordPainSuffering, Amount: 20000},
		},
	}

	s := c.Summarize()
	assert.Equal(t, 2, s.PartyCount)
	assert.Equal(t, 53000.0, s.TotalAmount)
	assert.Equal(t, 18000.0, s.TotalsByType[RecordMedical])
	assert.Equal(t, "Acme Trucking", c.PartyByType("defendant"))
	assert.Empty(t, c.PartyByType("witness"))
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$53,000.00", FormatUSD(53000))
	assert.Equal(t, "$1,234,567.89", FormatUSD(1234567.891))
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, "-$250.50", FormatUSD(-250.5))
}
