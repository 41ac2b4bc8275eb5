package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/api"
	audithook "github.com/xraph/invoicer/audit_hook"
	"github.com/xraph/invoicer/config"
	"github.com/xraph/invoicer/extension"
	"github.com/xraph/invoicer/internal/logger"
	"github.com/xraph/invoicer/observability"
	"github.com/xraph/invoicer/store/memory"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			return serve(c.Context, cfg)
		},
	}
}

// newEngine builds an engine from cfg with the given extra options.
func newEngine(cfg *config.Config, extra ...invoicer.Option) (*invoicer.Engine, error) {
	opts := []invoicer.Option{
		invoicer.WithDefaults(cfg.Defaults()),
	}
	if cfg.Letterhead.Image != "" || cfg.Letterhead.URL != "" {
		var img []byte
		if cfg.Letterhead.Image != "" {
			data, err := os.ReadFile(cfg.Letterhead.Image)
			if err != nil {
				return nil, fmt.Errorf("letterhead: %w", err)
			}
			img = data
		}
		opts = append(opts, invoicer.WithLetterhead(img, cfg.Letterhead.URL))
	}
	opts = append(opts, extra...)

	return invoicer.New(memory.New(), extension.BuildEngineOptions(cfg.Engine(), opts...)...), nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(cfg.Log)

	metrics := observability.NewPrometheusFactory()
	eng, err := newEngine(cfg,
		invoicer.WithLogger(log),
		invoicer.WithPlugin(observability.NewMetricsExtension(metrics)),
		invoicer.WithPlugin(audithook.New(audithook.LogRecorder(log), audithook.WithLogger(log))),
	)
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(eng,
		api.WithLogger(log),
		api.WithCORSOrigins(cfg.Server.CORSOrigins...),
		api.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateWindow),
		api.WithMaxUpload(cfg.Server.MaxUpload),
		api.WithMetrics(metrics.Handler()),
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited gracefully")
	return nil
}
