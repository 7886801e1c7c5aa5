// FileHaven
//
// Entry point: wires all components together and manages graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/mtiwari1/filehaven/internal/category"
	"github.com/mtiwari1/filehaven/internal/collection"
	"github.com/mtiwari1/filehaven/internal/config"
	"github.com/mtiwari1/filehaven/internal/grpcserver"
	"github.com/mtiwari1/filehaven/internal/ingest"
	"github.com/mtiwari1/filehaven/internal/notify"
	"github.com/mtiwari1/filehaven/internal/organizer"
	"github.com/mtiwari1/filehaven/internal/prefs"
	"github.com/mtiwari1/filehaven/internal/preview"
	"github.com/mtiwari1/filehaven/internal/restapi"
	"github.com/mtiwari1/filehaven/internal/source"
	"github.com/mtiwari1/filehaven/internal/worker"
	pb "github.com/mtiwari1/filehaven/proto"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		return err
	}

	// ── Structured logger ──
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting FileHaven",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("prefs_driver", cfg.Prefs.Driver),
	)

	// ── Preference store ──
	ctx := context.Background()
	store, pinger, closeStore, err := openPrefs(ctx, cfg.Prefs)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── Spool directory for uploaded content ──
	spooler, err := source.NewSpooler(cfg.SpoolDir)
	if err != nil {
		return err
	}

	// ── Worker pool rendering previews ──
	generator := preview.NewGenerator(preview.Options{
		ThumbnailWidth: cfg.Preview.ThumbnailWidth,
		CacheSize:      cfg.Preview.CacheSize,
		CacheTTL:       cfg.Preview.CacheTTL,
	}, logger)
	pool := worker.NewPool(cfg.Workers, generator, logger)
	pool.Start()
	logger.Info("worker pool started", slog.Int("workers", cfg.Workers))

	// ── Application state ──
	registry := category.NewRegistry(category.Defaults())
	files := collection.NewStore()
	feed := notify.NewFeed(cfg.NotificationLimit, logger)
	pipeline := ingest.NewPipeline(registry, pool, files, feed, logger)
	org := organizer.New(registry, files, pipeline, prefs.New(store, logger), feed, logger)
	org.Load(ctx)

	// ── gRPC server ──
	grpcSrv := grpc.NewServer(
		grpc.UnaryInterceptor(grpcserver.UnaryLogger(logger)),
		grpc.MaxRecvMsgSize(grpcserver.RecvLimit(cfg.MaxUploadBytes)),
	)
	grpcImpl := grpcserver.NewServer(org, logger)
	pb.RegisterOrganizerServer(grpcSrv, grpcImpl)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		pool.Shutdown()
		return fmt.Errorf("listen gRPC: %w", err)
	}

	go func() {
		logger.Info("gRPC server listening", slog.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("gRPC serve", slog.String("error", err.Error()))
		}
	}()

	// ── REST API ──
	handler := restapi.NewHandler(grpcImpl, org, spooler, feed, pinger, restapi.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadRate:     cfg.UploadRate,
		UploadBurst:    cfg.UploadBurst,
	}, logger)

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP serve", slog.String("error", err.Error()))
		}
	}()

	// ── Graceful shutdown (SIGINT / SIGTERM) ──
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// 1. Stop accepting new HTTP requests.
	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutCancel()

	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown", slog.String("error", err.Error()))
	}
	logger.Info("HTTP server stopped")

	// 2. Stop gRPC server gracefully.
	grpcSrv.GracefulStop()
	logger.Info("gRPC server stopped")

	// 3. Drain worker pool.
	pool.Shutdown()
	logger.Info("worker pool drained")

	// 4. Release spooled content still held.
	org.Close()
	logger.Info("FileHaven shutdown complete")
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openPrefs builds the configured preference store. The returned pinger is
// nil for the in-memory store.
func openPrefs(ctx context.Context, pc config.PrefsConfig) (prefs.Store, restapi.Pinger, func(), error) {
	if pc.Driver == "memory" {
		return prefs.NewMemoryStore(), nil, func() {}, nil
	}

	db, err := prefs.OpenDB(ctx, pc.Driver, pc.DSN)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := prefs.NewSQLStore(ctx, db, pc.Driver)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return store, store, func() { closeDB(store, db) }, nil
}

func closeDB(store *prefs.SQLStore, db *sql.DB) {
	if err := store.Close(); err != nil {
		slog.Warn("close prefs store", slog.String("error", err.Error()))
	}
	if err := db.Close(); err != nil {
		slog.Warn("close database", slog.String("error", err.Error()))
	}
}
