// scalebridged bridges HTTP/JSON scale commands to TCP/serial industrial
// scale devices speaking RINCMD or DINI_ASCII.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tkogut/scalebridge/internal/adapter"
	"github.com/tkogut/scalebridge/internal/catalog"
	"github.com/tkogut/scalebridge/internal/core"
	"github.com/tkogut/scalebridge/internal/dconfig"
	"github.com/tkogut/scalebridge/internal/httpapi"
	"github.com/tkogut/scalebridge/internal/logging"
	"github.com/tkogut/scalebridge/internal/manager"
)

// buildVersion is overwritten at link time via -ldflags; "dev" otherwise.
var buildVersion = "dev"

var configFlag string

var rootCmd = &cobra.Command{
	Use:           "scalebridged",
	Short:         "HTTP bridge for TCP/serial industrial scale devices",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scalebridged %s\n", buildVersion)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to daemon.yaml (default /etc/scalebridge/daemon.yaml, or $SCALEBRIDGE_CONFIG)")
	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	path := dconfig.ConfigPath(configFlag)
	cfg, err := dconfig.Load(path)
	if err != nil {
		// Config-load failure is startup-fatal (spec.md §7).
		return fmt.Errorf("loading daemon config %s: %w", path, err)
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}

	core.Version = buildVersion

	store := catalog.New(cfg.CatalogPath)
	mgr := manager.New(adapter.New())
	svc := core.New(store, mgr)

	if err := svc.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrapping catalog %s: %w", cfg.CatalogPath, err)
	}
	logging.Log.WithField("catalog_path", cfg.CatalogPath).Info("catalog loaded")

	if cfg.WatchConfig {
		stop, err := store.WatchExternalEdits()
		if err != nil {
			logging.Log.WithError(err).Warn("could not start catalog file watch; hot-reload on external edits is disabled")
		} else {
			defer stop()
		}
	}

	srv := httpapi.NewServer(cfg.ListenAddr, svc)
	serveErrCh := make(chan error, 1)
	go func() {
		logging.Log.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErrCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logging.Log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Log.WithError(err).Warn("http server shutdown did not complete cleanly")
	}
	svc.Shutdown()
	return nil
}
