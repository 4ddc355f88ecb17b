package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amaumene/syllabus-merge/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the merge endpoint over HTTP",
	Long: `Serve starts an HTTP server exposing POST /merge-first-syllabus and
GET /health. Cross-origin requests are allowed from the configured origins
(all by default). The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log.WithField("version", version).Info("starting syllabus-merge")
		return app.New(cfg, version).Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "interface to bind (default 0.0.0.0)")
	serveCmd.Flags().Int("port", 0, "port to listen on (default 5001)")
	serveCmd.Flags().Duration("fetch-timeout", 0, "timeout for fetching a source document (default 30s)")
	serveCmd.Flags().Int64("max-document-bytes", 0, "largest source document accepted (default 32 MiB)")

	rootCmd.AddCommand(serveCmd)
}
