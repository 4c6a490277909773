package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/casedata"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/rag"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/service"
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Inspect and import case records",
}

var caseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every case with its totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ov, err := a.service.Overview(ctx)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, ov)
		}
		printCaseList(os.Stdout, ov.Aggregate.PerCaseSummaries)
		return nil
	},
}

var caseTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "List the dated events of every case in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.service.Timeline(ctx)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, events)
		}
		printTimeline(os.Stdout, events)
		return nil
	},
}

var caseShowCmd = &cobra.Command{
	Use:   "show [case-id]",
	Short: "Print the facts of one case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.service.Case(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, c)
		}
		fmt.Println(rag.FormatCaseFacts(c))
		return nil
	},
}

var caseContextCmd = &cobra.Command{
	Use:   "context [case-id]",
	Short: "Print a case's facts, ingested documents and an LLM summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		start := time.Now()
		cc, err := a.service.GetCaseContext(ctx, protocol.CaseContextParams{CaseID: args[0], LLM: llmOverrides(cmd)})
		a.record(ctx, protocol.MethodGetCaseContext, map[string]any{protocol.ParamCaseID: args[0]}, start, err)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, cc)
		}
		printCaseContext(os.Stdout, cc)
		return nil
	},
}

var caseSeedCmd = &cobra.Command{
	Use:   "seed [cases.yaml]",
	Short: "Import case records from a YAML file into the database",
	Long: `Writes the cases in a YAML fixture into the database, replacing records
with the same case id. Records are read from the database unless
storage.cases_file is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		src, err := casedata.LoadFile(args[0])
		if err != nil {
			return err
		}
		database, err := db.Open(cfg.DBPath())
		if err != nil {
			return err
		}
		defer database.Close()

		cases := src.Cases()
		if err := casedata.Seed(cmd.Context(), database, cases...); err != nil {
			return err
		}
		fmt.Printf("Imported %d cases into %s\n", len(cases), cfg.DBPath())
		if cfg.Storage.CasesFile != "" {
			fmt.Fprintf(os.Stderr, "Note: storage.cases_file is set to %s, so the database records are not used.\n", cfg.Storage.CasesFile)
		}
		return nil
	},
}

func init() {
	caseListCmd.Flags().Bool("json", false, "output as JSON")
	caseShowCmd.Flags().Bool("json", false, "output as JSON")
	caseTimelineCmd.Flags().Bool("json", false, "output as JSON")
	caseContextCmd.Flags().Bool("json", false, "output as JSON")
	addLLMFlags(caseContextCmd)

	caseCmd.AddCommand(caseListCmd, caseTimelineCmd, caseShowCmd, caseContextCmd, caseSeedCmd)
	rootCmd.AddCommand(caseCmd)
}

func printCaseList(w io.Writer, cases []domain.CaseSummary) {
	if len(cases) == 0 {
		fmt.Fprintln(w, "No cases. Import some with `legalmcp case seed cases.yaml`.")
		return
	}
	for _, c := range cases {
		fmt.Fprintf(w, "%-14s %-18s %-10s %14s  %s\n",
			c.CaseID, c.CaseType, c.Status, domain.FormatUSD(c.TotalAmount), truncate(c.Summary, 60))
	}
}

func printTimeline(w io.Writer, events []service.TimelineEntry) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No dated events.")
		return
	}
	for _, ev := range events {
		date := "unknown"
		if ev.EventDate != nil {
			date = ev.EventDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-10s  %-14s %s\n", date, ev.CaseID, ev.Description)
	}
}

func printCaseContext(w io.Writer, cc *protocol.CaseContext) {
	fmt.Fprintln(w, cc.Facts)
	fmt.Fprintf(w, "\nIngested: %d documents, %d chunks\n", cc.Documents, cc.Chunks)
	if cc.RAGError != "" {
		fmt.Fprintf(w, "\nSummary unavailable: %s\n", cc.RAGError)
	} else if cc.Summary != "" {
		fmt.Fprintf(w, "\nSummary:\n%s\n", cc.Summary)
	}
	if len(cc.Sources) > 0 {
		fmt.Fprintf(w, "\nSources (%d):\n", len(cc.Sources))
		printSources(w, cc.Sources)
	}
}
