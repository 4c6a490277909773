package casedata

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

func fixturePath() string {
	return filepath.Join("..", "..", "testdata", "cases.yaml")
}

func TestLoadFile(t *testing.T) {
	src, err := LoadFile(fixturePath())
	require.NoError(t, err)

	c, err := src.GetCase(context.Background(), "2024-PI-003")
	require.NoError(t, err)
	assert.Equal(t, "Michael Brown", c.PartyByType("plaintiff"))
	require.NotNil(t, c.DateFiled)
	assert.Equal(t, 2024, c.DateFiled.Year())

	totals := c.TotalsByType()
	assert.Equal(t, 18000.0, totals[domain.RecordMedical])
	assert.Equal(t, 53000.0, totals[domain.RecordMedical]+totals[domain.RecordLostWages]+totals[domain.RecordPainSuffering])

	_, err = src.GetCase(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAggregate(t *testing.T) {
	src, err := LoadFile(fixturePath())
	require.NoError(t, err)
	summaries, err := src.ListCases(context.Background())
	require.NoError(t, err)

	agg := Aggregate(summaries)
	assert.Equal(t, 3, agg.CaseCount)
	assert.Equal(t, 2, agg.StatusCounts["Active"])
	assert.Equal(t, 1, agg.StatusCounts["Pending"])

	// 20000 + 45000 + 18000
	assert.Equal(t, 83000.0, agg.TotalsByRecordType[domain.RecordMedical])
	assert.Equal(t, 38000.0, agg.TotalsByRecordType[domain.RecordLostWages])
	assert.Equal(t, 45000.0, agg.TotalsByRecordType[domain.RecordPainSuffering])

	var sum float64
	for _, c := range src.Cases() {
		for _, f := range c.Financials {
			sum += f.Amount
		}
	}
	assert.Equal(t, sum, agg.TotalAmount)
	require.Len(t, agg.PerCaseSummaries, 3)
	assert.Equal(t, "2024-PI-001", agg.PerCaseSummaries[0].CaseID)
	assert.Equal(t, 53000.0, agg.PerCaseSummaries[2].TotalAmount)
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil)
	assert.Zero(t, agg.CaseCount)
	assert.Empty(t, agg.TotalsByRecordType)
	assert.Zero(t, agg.TotalAmount)
}

func TestSQLSource(t *testing.T) {
	d, err := db.OpenMemory()
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	fixture, err := LoadFile(fixturePath())
	require.NoError(t, err)
	require.NoError(t, Seed(ctx, d, fixture.Cases()...))
	// Seeding twice replaces rather than duplicates.
	require.NoError(t, Seed(ctx, d, fixture.Cases()...))

	src := NewSQLSource(d)
	c, err := src.GetCase(ctx, "2024-PI-001")
	require.NoError(t, err)
	assert.Len(t, c.Parties, 2)
	assert.Len(t, c.Events, 3)
	assert.Len(t, c.Financials, 4)
	require.NotNil(t, c.Events[0].EventDate)
	assert.Equal(t, "Motor vehicle accident occurred", c.Events[0].Description)

	_, err = src.GetCase(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	fromSQL, err := src.ListCases(ctx)
	require.NoError(t, err)
	fromYAML, err := fixture.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, fromSQL, len(fromYAML))
	for i := range fromSQL {
		assert.Equal(t, fromYAML[i].CaseID, fromSQL[i].CaseID)
		assert.Equal(t, fromYAML[i].TotalsByType, fromSQL[i].TotalsByType)
	}
}
