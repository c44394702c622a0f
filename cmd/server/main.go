package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/accounts"
	"github.com/kfd-o/mobile-firebase-backend/internal/clients"
	"github.com/kfd-o/mobile-firebase-backend/internal/config"
	"github.com/kfd-o/mobile-firebase-backend/internal/db"
	visitorsgrpc "github.com/kfd-o/mobile-firebase-backend/internal/grpc"
	internalhttp "github.com/kfd-o/mobile-firebase-backend/internal/http"
	"github.com/kfd-o/mobile-firebase-backend/internal/identity"
	"github.com/kfd-o/mobile-firebase-backend/internal/jobs"
	"github.com/kfd-o/mobile-firebase-backend/internal/logging"
	"github.com/kfd-o/mobile-firebase-backend/internal/push"
	"github.com/kfd-o/mobile-firebase-backend/internal/repository"
	"github.com/kfd-o/mobile-firebase-backend/internal/token"
	"github.com/kfd-o/mobile-firebase-backend/internal/visits"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.Info("starting visitors backend", cfg.Summary()...)
	loc, _ := cfg.Location()

	codec, err := token.NewCodec(cfg.SecretKey)
	if err != nil {
		logger.Fatal("token codec init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migration failed", zap.Error(err))
	}
	store := repository.NewStore(db.NewStore(pool))

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
	}

	useFirebaseAuth := cfg.IdentityProvider == config.IdentityFirebase
	useFCM := cfg.PushProvider == config.PushFCM
	var firebaseClients *clients.Clients
	if useFirebaseAuth || useFCM {
		firebaseClients, err = clients.New(ctx, cfg.ProjectID, cfg.CredentialsFile, useFirebaseAuth, useFCM, cfg.UpstreamTimeout)
		if err != nil {
			logger.Fatal("firebase init failed", zap.Error(err))
		}
	}

	var provider identity.Provider = identity.NewLocal(store)
	if useFirebaseAuth {
		provider = identity.NewFirebase(firebaseClients.Auth)
	}
	var sender push.Sender = push.NewLog(logger)
	if useFCM {
		sender = push.NewFCM(firebaseClients.Messaging)
	}

	visitService := visits.NewService(store, sender, codec, logger, visits.Options{
		Location:          loc,
		UpstreamTimeout:   cfg.UpstreamTimeout,
		ReportConcurrency: cfg.ReportConcurrency,
	})
	accountService := accounts.NewService(store, provider, logger, cfg.UpstreamTimeout)

	jobDone := jobs.StartCleanupSweepJob(ctx, cfg, accountService, logger)

	server := internalhttp.NewServer(cfg, visitService, accountService, rdb, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := visitorsgrpc.NewServer(logger)

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	go func() {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("grpc listen error", zap.Error(err))
		}
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.GRPC.Serve(listener); err != nil {
			logger.Fatal("grpc server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	grpcServer.Shutdown()
	<-jobDone
}
