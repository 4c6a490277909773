package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents into a case as they appear in a folder",
	Long: `Watches a folder and ingests each supported document once it is created or
rewritten and has stopped changing. Rewrites with identical content are
skipped. Use --initial to ingest what is already there first.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("case", "", "case id to ingest into (required)")
	watchCmd.Flags().Bool("initial", false, "ingest the folder's current contents before watching")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a changed file is ingested")
	watchCmd.MarkFlagRequired("case")
	addLLMFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	dir := args[0]
	caseID, _ := cmd.Flags().GetString("case")
	initial, _ := cmd.Flags().GetBool("initial")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	overrides := llmOverrides(cmd)

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if initial {
		opts := ingest.FolderOptions{
			Include:   a.cfg.Ingest.Include,
			Exclude:   a.cfg.Ingest.Exclude,
			Recursive: a.cfg.Ingest.Recursive,
		}
		res, err := a.service.IngestFolder(ctx, dir, caseID, opts, overrides, nil)
		if err != nil {
			return err
		}
		printFolderResult(os.Stdout, res)
	}

	w := watch.New(dir, func(ctx context.Context, path string) error {
		start := time.Now()
		res, err := a.service.AnalyzeDocument(ctx, protocol.AnalyzeParams{
			FilePath: path,
			CaseID:   caseID,
			LLM:      overrides,
		})
		a.record(ctx, protocol.MethodAnalyzeDocument, map[string]any{
			protocol.ParamFilePath: path,
			protocol.ParamCaseID:   caseID,
		}, start, err)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  x %s: %v\n", path, err)
			return err
		}
		size := ""
		if st, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(st.Size()))
		}
		fmt.Printf("%s  %s (%s)\n", time.Now().Format("15:04:05"), path, size)
		printIngestResult(os.Stdout, res)
		return nil
	}, watch.Options{
		Debounce:  debounce,
		Recursive: a.cfg.Ingest.Recursive,
		Exclude:   a.cfg.Ingest.Exclude,
		Logger:    a.log.With("component", "watch"),
	})

	fmt.Fprintf(os.Stderr, "Watching %s for case %s (Ctrl+C to stop)\n", dir, caseID)
	return w.Run(ctx)
}
