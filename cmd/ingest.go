package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/ingest"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/progress"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents into a case",
	Long: `Extracts text from PDF, DOCX, HTML, Markdown or plain text files, splits
it into overlapping chunks, embeds them and stores them under the case.
Ingesting the same file twice adds its chunks again.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var ingestFolderCmd = &cobra.Command{
	Use:   "ingest-folder [dir]",
	Short: "Ingest every supported document in a folder",
	Long: `Walks a folder and ingests each supported document into the case. A file
that fails is reported and the run continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestFolder,
}

func init() {
	ingestCmd.Flags().String("case", "", "case id to ingest into (required)")
	ingestCmd.Flags().Bool("json", false, "output results as JSON")
	ingestCmd.MarkFlagRequired("case")
	addLLMFlags(ingestCmd)

	ingestFolderCmd.Flags().String("case", "", "case id to ingest into (required)")
	ingestFolderCmd.Flags().StringSlice("include", nil, "glob patterns to include (default: all supported files)")
	ingestFolderCmd.Flags().StringSlice("exclude", nil, "glob patterns to exclude")
	ingestFolderCmd.Flags().Bool("recursive", true, "descend into subfolders")
	ingestFolderCmd.Flags().Bool("json", false, "output the folder result as JSON")
	ingestFolderCmd.MarkFlagRequired("case")
	addLLMFlags(ingestFolderCmd)

	rootCmd.AddCommand(ingestCmd, ingestFolderCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	caseID, _ := cmd.Flags().GetString("case")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []*ingest.Result
	failed := 0
	for _, path := range args {
		start := time.Now()
		res, err := a.service.AnalyzeDocument(ctx, protocol.AnalyzeParams{
			FilePath: path,
			CaseID:   caseID,
			LLM:      llmOverrides(cmd),
		})
		a.record(ctx, protocol.MethodAnalyzeDocument, map[string]any{
			protocol.ParamFilePath: path,
			protocol.ParamCaseID:   caseID,
		}, start, err)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  x %s: %v\n", path, err)
			continue
		}
		results = append(results, res)
		if !jsonOutput {
			printIngestResult(os.Stdout, res)
		}
	}

	if jsonOutput {
		if err := printJSON(os.Stdout, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func runIngestFolder(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	caseID, _ := cmd.Flags().GetString("case")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := ingest.FolderOptions{
		Include:   a.cfg.Ingest.Include,
		Exclude:   a.cfg.Ingest.Exclude,
		Recursive: a.cfg.Ingest.Recursive,
	}
	if cmd.Flags().Changed("include") {
		opts.Include, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		opts.Exclude, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if cmd.Flags().Changed("recursive") {
		opts.Recursive, _ = cmd.Flags().GetBool("recursive")
	}

	reporter := progress.NewReporter()
	res, err := a.service.IngestFolder(ctx, args[0], caseID, opts, llmOverrides(cmd), progress.Ingest(reporter))
	if res != nil && res.Total > 0 {
		reporter.Finish()
	}
	if res != nil {
		if jsonOutput {
			if jerr := printJSON(os.Stdout, res); jerr != nil {
				return jerr
			}
		} else {
			printFolderResult(os.Stdout, res)
		}
	}
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", res.Failed, res.Total)
	}
	return nil
}

func printIngestResult(w io.Writer, res *ingest.Result) {
	fmt.Fprintf(w, "  + %s [%s] %s characters, %s chunks, type %s\n",
		res.SourceName, res.Format,
		humanize.Comma(int64(res.Characters)), humanize.Comma(int64(res.ChunkCount)),
		orNone(res.Metadata.DocumentType))
	if res.Metadata.Summary != "" {
		fmt.Fprintf(w, "    %s\n", truncate(res.Metadata.Summary, 160))
	}
}

func printFolderResult(w io.Writer, res *ingest.FolderResult) {
	fmt.Fprintf(w, "Ingested %d of %d files from %s into %s (%s chunks)\n",
		res.Succeeded, res.Total, res.Folder, res.CaseID, humanize.Comma(int64(res.TotalChunks)))
	for i := range res.Results {
		printIngestResult(w, &res.Results[i])
	}
	for _, fe := range res.Errors {
		fmt.Fprintf(w, "  x %s: %s\n", fe.File, fe.Error)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
