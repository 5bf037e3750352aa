package app

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
	"github.com/spf13/viper"

	"github.com/stacklok/gamemesh/internal/adminhttp"
	"github.com/stacklok/gamemesh/internal/corelog"
	"github.com/stacklok/gamemesh/internal/cron"
	"github.com/stacklok/gamemesh/internal/dispatch"
	"github.com/stacklok/gamemesh/internal/handler"
	"github.com/stacklok/gamemesh/internal/metrics"
	"github.com/stacklok/gamemesh/internal/serverconfig"
	"github.com/stacklok/gamemesh/internal/sysrpc"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultGracefulTimeout = 10 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a dispatch process and serve its admin HTTP surface",
	Long: `Start loads server.toml and any configured crons.json, builds a
Dispatcher with no handlers registered beyond what the embedding
application wires in before calling Start, and serves /healthz and
/debug endpoints until SIGINT or SIGTERM.`,
	RunE: runStart,
}

func runStart(_ *cobra.Command, _ []string) error {
	cfg, err := loadRuntimeConfig(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}

	crons, err := cron.LoadConfig(cfg.CronBasePath, cfg.Env, cfg.ServerType)
	if err != nil {
		corelog.Warnf("no cron configuration loaded: %v", err)
	}

	d := dispatch.New(
		serverconfig.Config{
			ServerType:   cfg.ServerType,
			ServerID:     cfg.ServerID,
			Env:          cfg.Env,
			CronBasePath: cfg.CronBasePath,
			Crons:        crons,
		},
		handler.NewRegistry(),
		cron.NewHandlerRegistry(),
		sysrpc.NewMesh(),
		metrics.NewCollector(prometheus.NewRegistry()),
	)

	if err := d.Start(); err != nil {
		return fmt.Errorf("starting dispatcher: %w", err)
	}
	ctx := context.Background()
	if err := d.AfterStart(ctx); err != nil {
		return fmt.Errorf("arming crons: %w", err)
	}

	server := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: adminhttp.Router(d),
	}

	go func() {
		corelog.Infof("admin surface listening on %s", cfg.AdminAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			corelog.Errorf("admin server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	corelog.Info("shutting down dispatch process...")

	d.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
