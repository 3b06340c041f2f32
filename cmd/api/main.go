package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/leave-approval-go/internal/config"
	appHTTP "github.com/cmlabs-hris/leave-approval-go/internal/handler/http"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/cron"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-approval-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-approval-go/internal/repository/postgresql"
	approvalService "github.com/cmlabs-hris/leave-approval-go/internal/service/approval"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	approvalRecordRepo := postgresql.NewApprovalRecordRepository(db)
	recallRepo := postgresql.NewRecallRepository(db)
	rescheduleRepo := postgresql.NewRescheduleRepository(db)

	hub := sse.NewHub(0)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	approvalSvc := approvalService.NewApprovalService(
		postgresql.NewTransactor(db),
		leaveRequestRepo,
		approvalRecordRepo,
		recallRepo,
		rescheduleRepo,
		hub,
	)

	scheduler := cron.NewScheduler()
	if cfg.Cron.Enabled {
		cron.NewRescheduleJobs(approvalSvc, cfg.Cron.RescheduleExpiryPeriod).RegisterJobs(scheduler)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	approvalHandler := appHTTP.NewApprovalHandler(approvalSvc)
	streamHandler := appHTTP.NewStreamHandler(approvalSvc, JWTService)

	router := appHTTP.NewRouter(cfg, JWTService, approvalHandler, streamHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// WriteTimeout stays zero: progress streams are long-lived.
	}

	// Open streams only end when their request context does.
	streamCtx, closeStreams := context.WithCancel(context.Background())
	defer closeStreams()
	server.BaseContext = func(net.Listener) context.Context { return streamCtx }
	server.RegisterOnShutdown(closeStreams)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server", "timeout", cfg.App.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
