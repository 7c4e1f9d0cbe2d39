package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brainbrawl/internal/cache"
	"brainbrawl/internal/config"
	"brainbrawl/internal/game"
	"brainbrawl/internal/repository"
	"brainbrawl/internal/service"
	"brainbrawl/internal/transport/rest"
	"brainbrawl/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

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
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	questionRepo := repository.NewQuestionRepo(db)
	userRepo := repository.NewUserRepo(db)

	// Initialize caches
	standings := cache.NewStandingsCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	questionSvc := service.NewQuestionService(questionRepo)
	statsSvc := service.NewStatsService(userRepo, standings)

	registry := game.NewRegistry(nil)
	gameSvc := service.NewGameService(registry, questionSvc, statsSvc, service.DefaultTiming())
	gameSvc.SetBroadcaster(wsHub)
	gameSvc.StartCleanup()

	// Create router with container
	container := &rest.Container{
		AuthService:  authSvc,
		StatsService: statsSvc,
		GameService:  gameSvc,
		WSHub:        wsHub,
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	gameSvc.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
