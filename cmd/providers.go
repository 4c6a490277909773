package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/service"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported LLM providers and whether each is ready to use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		list := a.service.Providers()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(os.Stdout, list)
		}
		printProviders(os.Stdout, list)
		return nil
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print totals across every case and the ingested document counts",
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
		fmt.Println(ov.Report)
		if len(ov.Documents) > 0 {
			fmt.Println("\nIngested documents:")
			for _, s := range ov.Documents {
				fmt.Printf("  %-14s %4d documents %6d chunks\n", s.CaseID, s.Documents, s.Chunks)
			}
		}
		return nil
	},
}

func init() {
	providersCmd.Flags().Bool("json", false, "output as JSON")
	overviewCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(providersCmd, overviewCmd)
}

func printProviders(w io.Writer, list []service.ProviderInfo) {
	for _, p := range list {
		marker := " "
		if p.Default {
			marker = "*"
		}
		status := "ready"
		if !p.Configured {
			status = "not configured"
			if p.RequiresAPIKey {
				status += " (needs an API key)"
			}
		}
		fmt.Fprintf(w, "%s %-10s %-22s %s\n", marker, p.Name, p.DisplayName, status)
		fmt.Fprintf(w, "    models: %s\n", strings.Join(p.Models, ", "))
	}
}
