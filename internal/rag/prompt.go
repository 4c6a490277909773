package rag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

const answerRequirements = `Requirements:
1. Cite the numbered documents you rely on.
2. Reference applicable legal precedents found in the documents.
3. Support every conclusion with facts from the context.
4. Note any important caveats or gaps in the record.
5. Include specific amounts and dates when available.`

func casePrompt(query string, c *domain.Case, hits []domain.ScoredChunk, extra map[string]any) string {
	var sb strings.Builder
	sb.WriteString("Based on the retrieved documents and case information, answer the query.\n\n")
	fmt.Fprintf(&sb, "Query: %s\n\n", query)

	sb.WriteString("Case Context:\n")
	sb.WriteString(FormatCaseFacts(c))
	sb.WriteString("\n")

	if s := formatExtra(extra); s != "" {
		sb.WriteString("Additional Context:\n")
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	sb.WriteString("Retrieved Documents:\n")
	for i, h := range hits {
		fmt.Fprintf(&sb, "Document %d (%s, chunk %d):\n%s\n\n", i+1, h.Chunk.SourceName, h.Chunk.Index, h.Chunk.Text)
	}
	sb.WriteString(answerRequirements)
	return sb.String()
}

func systemPrompt(query, overview string, extra map[string]any) string {
	var sb strings.Builder
	sb.WriteString("You are given an overview of every case in the firm's database. Answer the query from it.\n\n")
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	sb.WriteString(overview)
	sb.WriteString("\n")
	if s := formatExtra(extra); s != "" {
		sb.WriteString("\nAdditional Context:\n")
		sb.WriteString(s)
	}
	return sb.String()
}

// contextOnlyAnswer is returned when a case has no ingested documents.
func contextOnlyAnswer(query string, c *domain.Case, extra map[string]any) string {
	var sb strings.Builder
	sb.WriteString("Based on the case information available:\n\n")
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	sb.WriteString(FormatCaseFacts(c))
	if s := formatExtra(extra); s != "" {
		sb.WriteString("\nAdditional Context:\n")
		sb.WriteString(s)
	}
	sb.WriteString("\nNote: No legal documents have been processed for this case yet. The response is based on case metadata only.")
	return sb.String()
}

// FormatCaseFacts renders the structured record, or a placeholder when
// there is none.
func FormatCaseFacts(c *domain.Case) string {
	if c == nil {
		return "No case record available.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Case %s (%s), status %s\n", c.CaseID, orUnknown(c.CaseType), orUnknown(c.Status))
	if c.DateFiled != nil {
		fmt.Fprintf(&sb, "Filed: %s\n", c.DateFiled.Format("2006-01-02"))
	}
	summary := c.Summary
	if summary == "" {
		summary = "No summary available"
	}
	fmt.Fprintf(&sb, "Case Summary: %s\n", summary)

	sb.WriteString("\nParties Involved:\n")
	if len(c.Parties) == 0 {
		sb.WriteString("No parties information available\n")
	}
	for _, p := range c.Parties {
		fmt.Fprintf(&sb, "- %s: %s\n", orUnknown(p.PartyType), orUnknown(p.Name))
	}

	if len(c.Events) > 0 {
		sb.WriteString("\nTimeline:\n")
		for _, ev := range c.Events {
			date := "Unknown"
			if ev.EventDate != nil {
				date = ev.EventDate.Format("2006-01-02")
			}
			fmt.Fprintf(&sb, "- %s: %s\n", date, ev.Description)
		}
	}

	sb.WriteString("\nFinancial Information:\n")
	if len(c.Financials) == 0 {
		sb.WriteString("No financial records available\n")
	}
	for _, f := range c.Financials {
		fmt.Fprintf(&sb, "- %s: %s - %s\n", orUnknown(f.RecordType), domain.FormatUSD(f.Amount), f.Description)
	}
	return sb.String()
}

// FormatAggregate renders the system overview as fixed text.
func FormatAggregate(agg domain.Aggregate) string {
	var sb strings.Builder
	sb.WriteString("Case System Overview\n\n")
	fmt.Fprintf(&sb, "Total Cases: %d\n", agg.CaseCount)
	fmt.Fprintf(&sb, "Total Financial Amount: %s\n", domain.FormatUSD(agg.TotalAmount))

	sb.WriteString("\nCases by Status:\n")
	if len(agg.StatusCounts) == 0 {
		sb.WriteString("- none\n")
	}
	for _, status := range sortedKeys(agg.StatusCounts) {
		fmt.Fprintf(&sb, "- %s: %d\n", status, agg.StatusCounts[status])
	}

	sb.WriteString("\nTotals by Record Type:\n")
	if len(agg.TotalsByRecordType) == 0 {
		sb.WriteString("- none\n")
	}
	for _, rt := range sortedKeys(agg.TotalsByRecordType) {
		fmt.Fprintf(&sb, "- %s: %s\n", rt, domain.FormatUSD(agg.TotalsByRecordType[rt]))
	}

	if len(agg.PerCaseSummaries) > 0 {
		sb.WriteString("\nCases:\n")
		for _, cs := range agg.PerCaseSummaries {
			fmt.Fprintf(&sb, "- %s (%s, %s): %d parties, %d events, %s\n",
				cs.CaseID, orUnknown(cs.CaseType), orUnknown(cs.Status),
				cs.PartyCount, cs.EventCount, domain.FormatUSD(cs.TotalAmount))
		}
	}
	return sb.String()
}

func formatExtra(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, k := range sortedKeys(extra) {
		v := extra[k]
		switch s := v.(type) {
		case string:
			fmt.Fprintf(&sb, "- %s: %s\n", k, s)
		default:
			b, err := json.Marshal(s)
			if err != nil {
				fmt.Fprintf(&sb, "- %s: %v\n", k, s)
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", k, b)
		}
	}
	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
