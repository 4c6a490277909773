package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/audit"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP and WebSocket server",
	Long: `Starts the legalmcp HTTP server with the JSON-RPC style /mcp endpoints,
the REST ingestion and query routes, a WebSocket endpoint and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}
		srv := server.New(server.Config{
			Port:           port,
			AllowAll:       a.cfg.Server.AllowAll,
			MaxUploadBytes: int64(a.cfg.Server.MaxUploadMB) << 20,
		}, a.service, a.recorded(audit.TransportHTTP), a.metrics, a.log.With("component", "http"))
		audit.RegisterRoutes(srv.Router(), a.activity)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "legalmcp server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.cfg.DBPath())
		fmt.Fprintf(os.Stderr, "  LLM: %s/%s\n", a.cfg.LLM.Provider, a.cfg.LLM.Model)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 8000, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
