package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/syllabus-calendar/internal/calendar"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/export"
	"github.com/joseph-ayodele/syllabus-calendar/internal/pipeline"
	"github.com/joseph-ayodele/syllabus-calendar/internal/ratelimit"
	"github.com/joseph-ayodele/syllabus-calendar/internal/server"
)

func newLogger(cfg *common.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func main() {
	cfg, err := common.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("pipeline init failed", "err", err)
		os.Exit(1)
	}

	loc, _ := cfg.Location() // checked by Validate
	encOpts := []calendar.Option{}
	if loc != nil {
		encOpts = append(encOpts, calendar.WithLocation(loc))
	}
	enc := calendar.NewEncoder(logger, encOpts...)

	limiter := ratelimit.New(logger,
		ratelimit.WithWindow(cfg.Limits.RateWindow),
		ratelimit.WithMax(cfg.Limits.RateMax),
		ratelimit.WithCompactEvery(cfg.Limits.CompactEvery),
	)

	// Sweep idle addresses even when traffic is too low to trigger compaction.
	sched := cron.New()
	if cfg.Limits.CompactSchedule != "" {
		if _, err := sched.AddFunc(cfg.Limits.CompactSchedule, func() { limiter.Compact() }); err != nil {
			logger.Error("invalid compaction schedule", "schedule", cfg.Limits.CompactSchedule, "err", err)
			os.Exit(1)
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(proc, enc, export.NewService(logger), limiter, server.Config{
		MaxDocBytes:   cfg.Limits.MaxDocBytes,
		MaxImageBytes: cfg.Limits.MaxImageBytes,
	}, logger)
	httpServer := srv.HTTPServer(cfg.Server.HTTPAddr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	var grpcServer *grpc.Server
	if addr := cfg.Server.GRPCHealthAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("grpc listen failed", "addr", addr, "err", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer()
		hs := health.NewServer()
		healthpb.RegisterHealthServer(grpcServer, hs)
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		reflection.Register(grpcServer)

		go func() {
			logger.Info("grpc health serving", "addr", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("grpc serve failed", "err", err)
			}
		}()
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "err", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("stopped")
}
