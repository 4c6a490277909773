package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/letter"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
)

var letterCmd = &cobra.Command{
	Use:   "letter",
	Short: "Draft a demand letter for a case",
	Long: `Assembles a demand letter from the case record and retrieval-augmented
sections on medical treatment, lost wages, liability and pain and suffering.
A section the LLM cannot produce falls back to standard wording.`,
	Args: cobra.NoArgs,
	RunE: runLetter,
}

func init() {
	letterCmd.Flags().String("case", "", "case id (required)")
	letterCmd.Flags().String("template", protocol.DefaultTemplateType,
		"letter template: "+strings.Join(letter.Templates(), ", "))
	letterCmd.Flags().StringToString("context", nil, "extra context as key=value pairs")
	letterCmd.Flags().Bool("html", false, "write HTML instead of Markdown")
	letterCmd.Flags().Bool("json", false, "output the full letter as JSON")
	letterCmd.Flags().StringP("output", "o", "", "write the letter to a file instead of stdout")
	letterCmd.MarkFlagRequired("case")
	addLLMFlags(letterCmd)
	rootCmd.AddCommand(letterCmd)
}

func runLetter(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	caseID, _ := cmd.Flags().GetString("case")
	tmpl, _ := cmd.Flags().GetString("template")
	extra, _ := cmd.Flags().GetStringToString("context")
	asHTML, _ := cmd.Flags().GetBool("html")
	asJSON, _ := cmd.Flags().GetBool("json")
	output, _ := cmd.Flags().GetString("output")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p := protocol.LetterParams{CaseID: caseID, TemplateType: tmpl, LLM: llmOverrides(cmd)}
	if len(extra) > 0 {
		p.AdditionalContext = make(map[string]any, len(extra))
		for k, v := range extra {
			p.AdditionalContext[k] = v
		}
	}
	start := time.Now()
	l, err := a.service.GenerateDemandLetter(ctx, p)
	a.record(ctx, protocol.MethodGenerateDemandLetter, map[string]any{
		protocol.ParamCaseID:       p.CaseID,
		protocol.ParamTemplateType: p.TemplateType,
	}, start, err)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	switch {
	case asJSON:
		err = printJSON(w, l)
	case asHTML:
		_, err = io.WriteString(w, l.HTML)
	default:
		_, err = fmt.Fprintln(w, l.Content)
	}
	if err != nil {
		return err
	}

	if output != "" {
		fmt.Fprintf(os.Stderr, "Letter written to %s\n", output)
	}
	printFallbacks(os.Stderr, l)
	return nil
}

func printFallbacks(w io.Writer, l *letter.Letter) {
	if !l.Degraded() {
		return
	}
	fmt.Fprintln(w, "Warning: these sections use standard wording because generation failed:")
	for _, s := range l.Sections {
		if s.Fallback {
			fmt.Fprintf(w, "  - %s\n", s.Title)
		}
	}
}
