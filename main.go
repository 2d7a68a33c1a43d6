package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"minitwit/config"
	"minitwit/credentials"
	"minitwit/database"
	"minitwit/handlers"
	"minitwit/logger"
	"minitwit/monitoring"
	"minitwit/routes"
	"minitwit/views"
)

const (
	cmdServe  = "serve"
	cmdInitDB = "initdb"

	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "minitwit:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("minitwit", pflag.ContinueOnError)
	flags.SetOutput(stdout)
	settingsFile := flags.String("config", "", "YAML settings file (overrides $"+config.SettingsEnvVar+")")
	envFile := flags.String("env-file", "", "dotenv file to load (default .env)")
	flags.Usage = func() {
		fmt.Fprintln(stdout, "Usage: minitwit [flags] [serve|initdb]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	cmd := cmdServe
	switch flags.NArg() {
	case 0:
	case 1:
		cmd = flags.Arg(0)
	default:
		return fmt.Errorf("expected at most one command, got %q", flags.Args())
	}
	if cmd != cmdServe && cmd != cmdInitDB {
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg, err := config.Load(config.Options{EnvFile: *envFile, SettingsFile: *settingsFile})
	if err != nil {
		return err
	}

	log, closer, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.WithFields(logrus.Fields{
		"command":      cmd,
		"db_type":      cfg.DBType,
		"port":         cfg.Port,
		"per_page":     cfg.PerPage,
		"metrics_addr": cfg.MetricsAddr,
		"log_level":    cfg.LogLevel,
	}).Info("Configuration loaded")

	ctx := context.Background()
	db, err := database.Open(ctx, cfg, credentials.FromConfig(cfg, log), log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd == cmdInitDB {
		return initDB(ctx, db, cfg.DBType, stdout)
	}
	return serve(cfg, db, log)
}

func initDB(ctx context.Context, db *sqlx.DB, dbType string, stdout io.Writer) error {
	accessor := database.NewAccessor(db)
	defer accessor.Release()
	if err := database.InitSchema(ctx, accessor, dbType); err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	fmt.Fprintln(stdout, "Initialized the database.")
	return nil
}

func serve(cfg *config.Config, db *sqlx.DB, log *logrus.Logger) error {
	if cfg.UsesDefaultSecretKey() {
		log.Warn("SECRET_KEY is not set, sessions are signed with the development key")
	}

	renderer, err := views.NewRenderer()
	if err != nil {
		return err
	}
	metrics := monitoring.New()
	handler := handlers.NewHandler(renderer, handlers.NewSessionStore(cfg.SecretKey, cfg.SessionSecure), cfg.PerPage, log, metrics)

	servers := []*http.Server{{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           routes.SetupRoutes(handler, db, metrics, log),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errs := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.WithField("addr", srv.Addr).Info("Server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("listening on %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("Shutting down")
	case runErr = <-errs:
		log.WithError(runErr).Error("Server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).WithField("addr", srv.Addr).Error("Graceful shutdown failed")
		}
	}
	return runErr
}
