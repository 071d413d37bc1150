package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/roomchat/internal/server"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "roomchat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := server.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	logger := server.NewLogger(os.Stdout, cfg)

	srv := server.New(cfg, logger)
	srv.StartHub()

	httpServer := server.CreateServer(cfg.Port, srv.SetupRoutes())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.StartServer(httpServer, logger)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			_ = srv.Hub().Shutdown(cfg.ShutdownTimeout)
			return exitRuntime, fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	code := exitOK
	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, logger); err != nil {
		code = exitRuntime
	}
	if err := srv.Hub().Shutdown(cfg.ShutdownTimeout); err != nil {
		logger.Warn("hub shutdown incomplete", slog.Any("error", err))
		code = exitRuntime
	}
	return code, nil
}
