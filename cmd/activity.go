package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/audit"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/db"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the log of queries, ingestions and letters",
	Long: `Lists recorded protocol calls, newest first. Calls made over MCP, HTTP,
WebSocket and this CLI are all recorded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := audit.Filter{}
		f.CaseID, _ = cmd.Flags().GetString("case")
		f.Method, _ = cmd.Flags().GetString("method")
		f.Limit, _ = cmd.Flags().GetInt("limit")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			t := time.Now().Add(-since)
			f.Since = &t
		}

		store, closeDB, err := openActivity()
		if err != nil {
			return err
		}
		defer closeDB()

		entries, err := store.Query(context.Background(), f)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, entries)
		}
		printActivity(os.Stdout, entries)
		return nil
	},
}

var activityPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete activity older than a given age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		store, closeDB, err := openActivity()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := store.DeleteBefore(context.Background(), time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d entries\n", n)
		return nil
	},
}

func init() {
	activityCmd.Flags().String("case", "", "only this case")
	activityCmd.Flags().String("method", "", "only this method, e.g. legal.query")
	activityCmd.Flags().Duration("since", 0, "only entries newer than this, e.g. 24h")
	activityCmd.Flags().Int("limit", 50, "maximum entries to show (0 for all)")
	activityCmd.Flags().Bool("json", false, "output as JSON")
	activityPruneCmd.Flags().Duration("older-than", 90*24*time.Hour, "delete entries older than this")

	activityCmd.AddCommand(activityPruneCmd)
	rootCmd.AddCommand(activityCmd)
}

// openActivity opens only the database; reading the log needs no
// embedder or LLM.
func openActivity() (*audit.Store, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, err
	}
	return audit.NewStore(database), database.Close, nil
}

func printActivity(w io.Writer, entries []audit.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No activity recorded.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-4s %-30s %-12s %-11s %6s  %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Transport, e.Method, orNone(e.CaseID), e.Outcome,
			e.Duration.Round(time.Millisecond), truncate(e.Summary, 60))
		if e.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", truncate(e.Error, 120))
		}
	}
}
