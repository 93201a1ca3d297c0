package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dbfs "github.com/garnizeh/portfolio/db"
	"github.com/garnizeh/portfolio/internal/accounts"
	"github.com/garnizeh/portfolio/internal/config"
	"github.com/garnizeh/portfolio/internal/db"
	"github.com/garnizeh/portfolio/internal/jobs"
	"github.com/garnizeh/portfolio/internal/logging"
	"github.com/garnizeh/portfolio/internal/metrics"
	"github.com/garnizeh/portfolio/internal/notify"
	"github.com/garnizeh/portfolio/internal/repository/sqlite"
	"github.com/garnizeh/portfolio/web"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "portfolio: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	web.SetLogger(logger)

	logger.Info("starting portfolio server",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("env", cfg.Env),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("close database", slog.Any("err", err))
		}
	}()

	if err := db.Migrate(ctx, conn, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	repo := sqlite.New(conn, logger)
	reg := metrics.NewRegistry()
	domain := metrics.NewDomain(reg)

	var mailer notify.Mailer = notify.LogMailer{Logger: logger}
	if cfg.Mail.Host != "" {
		smtp, err := notify.NewSMTPMailer(cfg.Mail)
		if err != nil {
			return err
		}
		mailer = smtp
	} else {
		logger.Warn("no mail host configured; notifications will be logged")
	}
	notifier := notify.NewNotifier(repo, mailer, cfg.Mail.From, cfg.Mail.Recipients(), logger)

	pool := jobs.NewWorkerPool(repo, map[string]jobs.Handler{
		notify.JobType: notifier.Handle,
	}, logger, cfg.WorkerCount)
	pool.OnOutcome(domain.JobProcessed)
	// cancelled only after the HTTP server has drained
	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	pool.Start(poolCtx)

	handler, err := web.SetupRoutes(cfg, version, buildTime, web.Deps{
		Store:          repo,
		Jobs:           repo,
		Accounts:       accounts.New(repo, 0),
		Pinger:         conn,
		Metrics:        domain,
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		MetricsHandler: metrics.Handler(reg),
	})
	if err != nil {
		pool.Stop()
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.APITimeout,
		WriteTimeout:      cfg.APITimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		pool.Stop()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}
	pool.Stop()

	logger.Info("server exited")
	return nil
}
