package cmd

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldroute/api"
	apijournal "github.com/kilianp07/fieldroute/api/journal"
	"github.com/kilianp07/fieldroute/app"
)

var (
	serveAddr  string
	serveToken string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run journal and metrics over HTTP until interrupted",
	RunE: func(_ *cobra.Command, _ []string) error {
		token := serveToken
		if token == "" {
			token = os.Getenv("FR_API_TOKEN")
		}
		return run(func(ctx context.Context, svc *app.Service) error {
			return api.Serve(ctx, serveAddr, map[string]http.Handler{
				"/api/journal": apijournal.NewHandler(svc.Journal(), token),
				"/metrics":     promhttp.Handler(),
			})
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8090", "listen address")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "bearer token required by /api/journal, defaults to $FR_API_TOKEN")
	rootCmd.AddCommand(serveCmd)
}
