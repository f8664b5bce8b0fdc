package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskhive/taskhive/config"
	"github.com/taskhive/taskhive/internal/db"
	"github.com/taskhive/taskhive/internal/rpc"
)

// runService is the shared lifecycle of the RPC services: open the database,
// connect an RPC server to the service queue, let bind register the message
// patterns, then consume until SIGINT/SIGTERM.
func runService(queue string, bind func(cfg config.Config, dbConn *sql.DB, srv *rpc.Server) error) error {
	cfg := config.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", queue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	defer dbConn.Close()

	srv, err := rpc.NewServer(cfg.RabbitMQ.URL, queue, cfg.RabbitMQ.PrefetchCount, logger)
	if err != nil {
		return fmt.Errorf("rpc server init failed: %w", err)
	}
	defer srv.Close()

	if err := bind(cfg, dbConn, srv); err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("service stopped")
	return nil
}
