package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"configdesk/internal/platform"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document store, the editor and the embedded NATS server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	appCfg, err := platform.LoadAppConfig()
	if err != nil {
		return err
	}
	platform.InitLogger(*appCfg.LogCfg)
	platform.InitMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	nc, ns, natsErrCh, err := platform.RunEmbeddedServer(ctx, *appCfg.NatsCfg)
	if err != nil {
		slog.Error("failed to start embedded server", "err", err)
		return err
	}
	defer ns.Shutdown()
	defer nc.Close()

	app, err := platform.Setup(ctx, nc, appCfg)
	if err != nil {
		slog.Error("setup failed", "err", err)
		return err
	}

	var httpErrCh <-chan error
	if !appCfg.Flags.Headless {
		httpErrCh = platform.RunHTTPServer(ctx, *appCfg.HTTPSrvCfg, app.Handler())
	} else {
		// never sends
		httpErrCh = make(chan error)
	}

	go func() {
		select {
		case err := <-natsErrCh:
			slog.Error("embedded server error", "err", err)
			cancel()
		case err := <-httpErrCh:
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	app.Run(ctx)
	return nil
}
