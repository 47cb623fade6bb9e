package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/justinnewbold/TAG-sub002/internal/anticheat"
	"github.com/justinnewbold/TAG-sub002/internal/cache"
	"github.com/justinnewbold/TAG-sub002/internal/config"
	"github.com/justinnewbold/TAG-sub002/internal/ratelimit"
	"github.com/justinnewbold/TAG-sub002/internal/repository"
	"github.com/justinnewbold/TAG-sub002/internal/service"
	"github.com/justinnewbold/TAG-sub002/internal/store"
	"github.com/justinnewbold/TAG-sub002/internal/transport/rest"
	"github.com/justinnewbold/TAG-sub002/internal/transport/ws"
	"github.com/justinnewbold/TAG-sub002/internal/worker"
)

const antiCheatStaleAfter = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Storage tiers
	sessionRepo, err := repository.NewSessionRepo(db)
	if err != nil {
		log.Fatal("Failed to init session repository:", err)
	}
	eventRepo, err := repository.NewTagEventRepo(db)
	if err != nil {
		log.Fatal("Failed to init tag event repository:", err)
	}
	sessionCache := cache.New(rdb, cfg.CacheTTL)
	st := store.New(sessionCache, sessionRepo, eventRepo)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	sessionSvc := service.NewSessionService(st, authSvc)
	tagSvc := service.NewTagService(st, sessionSvc)
	sessionSvc.SetBroadcaster(wsHub)
	tagSvc.SetBroadcaster(wsHub)

	// Realtime guards
	monitor := anticheat.New(antiCheatStaleAfter, cfg.MaxTrackedPlayers)
	limiter := ratelimit.New(ratelimit.DefaultLimits())
	coordinator := ws.NewCoordinator(wsHub, sessionSvc, tagSvc, monitor, limiter)

	// Background maintenance
	sweeper := worker.NewSweeper(monitor, limiter, sessionRepo, eventRepo, cfg.SweepInterval, cfg.RetainEvery, cfg.RetentionAge)
	if err := sweeper.Start(); err != nil {
		log.Fatal("Failed to start sweeper:", err)
	}
	defer sweeper.Stop()

	container := &rest.Container{
		AuthService:    authSvc,
		SessionService: sessionSvc,
		TagService:     tagSvc,
		WSHub:          wsHub,
		WSCoordinator:  coordinator,
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/sessions")
		log.Println("  POST /v1/sessions/join")
		log.Println("  POST /v1/sessions/leave")
		log.Println("  POST /v1/sessions/{id}/start")
		log.Println("  POST /v1/sessions/{id}/end")
		log.Println("  POST /v1/sessions/{id}/tag")
		log.Println("  GET  /v1/sessions/{id}")
		log.Println("  GET  /v1/sessions/{id}/summary")
		log.Println("  WS   /v1/ws/sessions/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
