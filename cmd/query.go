package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about one case or about all cases",
	Long: `Retrieves the most relevant chunks of a case's documents, adds the case
record and asks the configured LLM. Use --case system for a question about
every case; totals are then computed from the case records.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("case", "", "case id, or \"system\" for all cases (required)")
	queryCmd.Flags().StringToString("context", nil, "extra context as key=value pairs")
	queryCmd.Flags().Bool("json", false, "output the full response as JSON")
	queryCmd.MarkFlagRequired("case")
	addLLMFlags(queryCmd)
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	caseID, _ := cmd.Flags().GetString("case")
	extra, _ := cmd.Flags().GetStringToString("context")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p := protocol.QueryParams{Query: args[0], CaseID: caseID, LLM: llmOverrides(cmd)}
	if len(extra) > 0 {
		p.Context = make(map[string]any, len(extra))
		for k, v := range extra {
			p.Context[k] = v
		}
	}

	start := time.Now()
	resp, err := a.service.Query(ctx, p)
	a.record(ctx, protocol.MethodQuery, map[string]any{
		protocol.ParamQuery:  p.Query,
		protocol.ParamCaseID: p.CaseID,
	}, start, err)
	if err != nil {
		var ge *domain.GenerationError
		if errors.As(err, &ge) && len(ge.Context.Retrieved) > 0 {
			fmt.Fprintln(os.Stderr, "Retrieved before the failure:")
			printSources(os.Stderr, rag.SourcesOf(ge.Context.Retrieved))
		}
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, resp)
	}
	printAnswer(os.Stdout, resp)
	return nil
}

func printAnswer(w io.Writer, resp *rag.Response) {
	fmt.Fprintln(w, resp.Answer)
	if len(resp.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSources (%d):\n", len(resp.Sources))
	printSources(w, resp.Sources)
}

func printSources(w io.Writer, sources []rag.Source) {
	for i, s := range sources {
		fmt.Fprintf(w, "  %d. [%.1f%%] %s #%d\n", i+1, s.Score*100, s.SourceName, s.ChunkIndex)
		fmt.Fprintf(w, "     %s\n", truncate(s.Excerpt, 120))
	}
}
