package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/audit"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/casedata"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/config"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/service"
)

const fixture = "../testdata/cases.yaml"

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Embeddings.Provider = "local"
	cfg.Embeddings.Model = ""
	cfg.Embeddings.Dimensions = 64
	cfg.Storage.CasesFile = fixture
	return cfg
}

func TestCaseSource(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	cfg := testConfig()
	src, err := caseSource(cfg, database)
	require.NoError(t, err)
	assert.IsType(t, &casedata.StaticSource{}, src)

	cfg.Storage.CasesFile = ""
	src, err = caseSource(cfg, database)
	require.NoError(t, err)
	assert.IsType(t, &casedata.SQLSource{}, src)

	cfg.Storage.CasesFile = "does-not-exist.yaml"
	_, err = caseSource(cfg, database)
	assert.Error(t, err)
}

func TestBuildApp(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	a, err := buildApp(context.Background(), testConfig(), database, logging.Discard())
	require.NoError(t, err)

	ov, err := a.service.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ov.Aggregate.CaseCount)
	assert.InDelta(t, 166000, ov.Aggregate.TotalAmount, 0.01)

	var buf bytes.Buffer
	printCaseList(&buf, ov.Aggregate.PerCaseSummaries)
	assert.Contains(t, buf.String(), "2024-PI-003")
	assert.Contains(t, buf.String(), "$53,000.00")
}

func TestBuildApp_SeededDatabase(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	src, err := casedata.LoadFile(fixture)
	require.NoError(t, err)
	require.NoError(t, casedata.Seed(context.Background(), database, src.Cases()...))

	cfg := testConfig()
	cfg.Storage.CasesFile = ""
	a, err := buildApp(context.Background(), cfg, database, logging.Discard())
	require.NoError(t, err)

	c, err := a.service.Case(context.Background(), "2024-PI-001")
	require.NoError(t, err)
	assert.Equal(t, "2024-PI-001", c.CaseID)
}

func TestLLMOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	addLLMFlags(cmd)

	o := llmOverrides(cmd)
	assert.True(t, o.IsZero())

	require.NoError(t, cmd.ParseFlags([]string{"--provider", "openai", "--model", "gpt-4o-mini", "--temperature", "0"}))
	o = llmOverrides(cmd)
	assert.Equal(t, "openai", o.Provider)
	assert.Equal(t, "gpt-4o-mini", o.Model)
	require.NotNil(t, o.Temperature)
	assert.Equal(t, 0.0, *o.Temperature)
}

func TestPrintAnswer(t *testing.T) {
	var buf bytes.Buffer
	printAnswer(&buf, &rag.Response{
		Answer: "The plaintiff fractured a wrist.",
		Sources: []rag.Source{
			{SourceName: "medical_summary.md", ChunkIndex: 2, Score: 0.5, Excerpt: "X-ray confirmed\na distal radius fracture"},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "The plaintiff fractured a wrist.")
	assert.Contains(t, out, "Sources (1):")
	assert.Contains(t, out, "[50.0%] medical_summary.md #2")
	assert.Contains(t, out, "X-ray confirmed a distal radius fracture")
}

func TestPrintTimeline(t *testing.T) {
	var buf bytes.Buffer
	printTimeline(&buf, nil)
	assert.Contains(t, buf.String(), "No dated events.")

	buf.Reset()
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	printTimeline(&buf, []service.TimelineEntry{
		{CaseID: "2024-PI-003", EventDate: &d, Description: "Slip and fall accident occurred"},
		{CaseID: "2024-PI-001", Description: "Mediation pending"},
	})
	out := buf.String()
	assert.Contains(t, out, "2024-03-05")
	assert.Contains(t, out, "Slip and fall accident occurred")
	assert.Contains(t, out, "unknown")
}

func TestPrintFolderResult(t *testing.T) {
	var buf bytes.Buffer
	printFolderResult(&buf, &ingest.FolderResult{
		Folder:      "case_files",
		CaseID:      "2024-PI-003",
		Total:       2,
		Succeeded:   1,
		Failed:      1,
		TotalChunks: 1200,
		Results: []ingest.Result{{
			SourceName: "complaint.txt",
			Format:     "txt",
			Characters: 48213,
			ChunkCount: 1200,
			Metadata:   domain.DocumentMetadata{DocumentType: "complaint"},
		}},
		Errors: []ingest.FileError{{File: "scan.pdf", Error: "no text"}},
	})
	out := buf.String()
	assert.Contains(t, out, "Ingested 1 of 2 files from case_files into 2024-PI-003 (1,200 chunks)")
	assert.Contains(t, out, "complaint.txt [txt] 48,213 characters, 1,200 chunks, type complaint")
	assert.Contains(t, out, "x scan.pdf: no text")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n\tb", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}

func TestPrintActivity(t *testing.T) {
	var buf bytes.Buffer
	printActivity(&buf, nil)
	assert.Contains(t, buf.String(), "No activity recorded.")

	buf.Reset()
	printActivity(&buf, []audit.Entry{{
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Transport: audit.TransportCLI,
		Method:    "legal.generate_demand_letter",
		CaseID:    "2024-PI-003",
		Outcome:   "unavailable",
		Summary:   "demand_letter",
		Error:     "provider unavailable: connection refused",
		Duration:  1234 * time.Millisecond,
	}})
	out := buf.String()
	assert.Contains(t, out, "legal.generate_demand_letter")
	assert.Contains(t, out, "2024-PI-003")
	assert.Contains(t, out, "1.234s")
	assert.Contains(t, out, "error: provider unavailable: connection refused")
}

func TestAppRecord(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	a, err := buildApp(context.Background(), testConfig(), database, logging.Discard())
	require.NoError(t, err)

	a.record(context.Background(), "legal.query", map[string]any{"query": "totals?", "case_id": "system"}, time.Now(), nil)
	_, err = a.recorded(audit.TransportMCP).Dispatch(context.Background(), "legal.nope", nil)
	require.ErrorIs(t, err, domain.ErrUnknownMethod)

	entries, err := a.activity.Query(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	outcomes := map[audit.Transport]string{}
	for _, e := range entries {
		outcomes[e.Transport] = e.Outcome
	}
	assert.Equal(t, "ok", outcomes[audit.TransportCLI])
	assert.Equal(t, "invalid", outcomes[audit.TransportMCP])
}
