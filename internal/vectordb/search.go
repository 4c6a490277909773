package vectordb

import (
	"fmt"
	"strings"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

// FormatResults renders scored chunks as human-readable text.
func FormatResults(results []domain.ScoredChunk) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("--- Result %d (similarity: %.4f) ---\n", i+1, r.Score))
		if r.Chunk.SourceName != "" {
			sb.WriteString(fmt.Sprintf("Source: %s (chunk %d, chars %d-%d)\n",
				r.Chunk.SourceName, r.Chunk.Index, r.Chunk.Start, r.Chunk.End))
		}
		if r.Chunk.CaseID != "" {
			sb.WriteString(fmt.Sprintf("Case: %s\n", r.Chunk.CaseID))
		}
		sb.WriteString("\n")
		sb.WriteString(r.Chunk.Text)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
