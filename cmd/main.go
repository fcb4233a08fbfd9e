package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/nitin16112004/live-shopping-application/internal/config"
	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/handler"
	"github.com/nitin16112004/live-shopping-application/internal/hub"
	"github.com/nitin16112004/live-shopping-application/internal/identity"
	"github.com/nitin16112004/live-shopping-application/internal/kafka"
	"github.com/nitin16112004/live-shopping-application/internal/registry"
	"github.com/nitin16112004/live-shopping-application/internal/repository"
	"github.com/nitin16112004/live-shopping-application/internal/service"
	"github.com/nitin16112004/live-shopping-application/internal/store"
	"github.com/nitin16112004/live-shopping-application/pkg/database"
	pkglog "github.com/nitin16112004/live-shopping-application/pkg/log"
	"github.com/nitin16112004/live-shopping-application/pkg/pubsub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "room-coordinator",
	})
	logger := pkglog.L()

	verifier, err := identity.NewJWTVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("identity verifier unavailable")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(&domain.RoomModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	liveStore, err := store.NewRedisStore(store.RedisConfig{
		Address:    cfg.Redis.Address,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ChatTTL:    cfg.Redis.ChatTTL,
		ChatMaxLen: cfg.Redis.ChatMaxLen,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer liveStore.Close()

	bus, err := pubsub.NewRedisPubSub(cfg.PubSub.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to event bus")
	}
	defer bus.Close()

	var producer kafka.ChatProducer
	if cfg.Kafka.Brokers != "" {
		producer, err = kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Warn().Err(err).Msg("kafka unavailable, chat persistence disabled")
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	repo := repository.NewGormRoomRepository(db)
	reg := registry.New(repo, cfg.Room.CacheTTL)
	h := hub.NewHub()

	svc := service.NewRoomService(reg, h, liveStore, repo, producer, bus, service.Options{
		StoreTimeout:     cfg.Room.StoreTimeout,
		ChatHistoryLimit: cfg.Room.ChatHistoryLimit,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start coordination subscribers")
	}
	defer svc.Stop()

	wsHandler := handler.NewWSHandler(h, svc, verifier, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(svc)

	router := mux.NewRouter()
	router.Use(pkglog.HTTPMiddleware(logger))
	router.HandleFunc("/ws", wsHandler.HandleWebSocket)
	httpHandler.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("address", addr).Msg("room coordinator listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
