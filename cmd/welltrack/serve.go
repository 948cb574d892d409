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

	"github.com/loykin/welltrack"
	"github.com/loykin/welltrack/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func runServe(configPath string, flags ServeFlags) error {
	cfg, err := welltrack.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if flags.Listen != "" {
		cfg.Server.Listen = flags.Listen
	}

	log, closer, err := logger.NewSlogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closer.Close() }()
	if configPath == "" {
		log.Info("no config file given, using built-in defaults", "store", cfg.Store.DSN)
	}

	app, err := welltrack.New(*cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	server, err := app.Server()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		protocol := "http"
		if server.TLSConfig != nil {
			protocol = "https"
		}
		log.Info("welltrack server listening", "protocol", protocol, "addr", cfg.Server.Listen, "base_path", cfg.Server.BasePath)
		errCh <- listen(server)
	}()

	metricsServer := app.MetricsServer()
	if metricsServer != nil {
		go func() {
			log.Info("metrics server listening", "addr", metricsServer.Addr)
			errCh <- listen(metricsServer)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(ctx)
	}
	return server.Shutdown(ctx)
}

// listen serves until the server is shut down; a shutdown is not an error.
func listen(s *http.Server) error {
	var err error
	if s.TLSConfig != nil {
		err = s.ListenAndServeTLS("", "")
	} else {
		err = s.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
