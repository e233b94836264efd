package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdhe/aishe-client/pkg/sidecar"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the health sidecar",
	Long: `Periodically probes the AISHE server and publishes the result through
gRPC health checking (service "aishe") and Prometheus metrics.
Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := app.cfg.Sidecar
	s := sidecar.New(sidecar.Config{
		Checker:       app.orchestrator,
		GRPCAddr:      ":" + sc.GRPCPort,
		MetricsAddr:   ":" + sc.MetricsPort,
		ProbeInterval: sc.ProbeInterval,
		Logger:        app.logger,
	})

	app.logger.Info().
		Str("grpc_port", sc.GRPCPort).
		Str("metrics_port", sc.MetricsPort).
		Dur("probe_interval", sc.ProbeInterval).
		Msg("starting sidecar")

	if err := s.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	app.logger.Info().Msg("sidecar stopped")
	return nil
}

