package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/video-share-backend/internal/config"
	"github.com/iliyamo/video-share-backend/internal/database"
	"github.com/iliyamo/video-share-backend/internal/handler"
	"github.com/iliyamo/video-share-backend/internal/queue"
	"github.com/iliyamo/video-share-backend/internal/repository"
	"github.com/iliyamo/video-share-backend/internal/router"
	"github.com/iliyamo/video-share-backend/internal/storage"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis is optional: nil disables rate limiting and response caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	uploader := storage.NewUploader(config.LoadStorageConfig())
	users := repository.NewUserRepo(db)
	channels := repository.NewChannelRepo(db)

	// Signup consumer runs for the lifetime of the process and reconnects
	// on broker failures.
	go func() {
		if err := queue.StartSignupConsumer(); err != nil {
			log.Printf("signup consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Auth:     handler.NewAuthHandler(cfg, users, uploader),
		Users:    handler.NewUserHandler(cfg, users, uploader),
		Channels: handler.NewChannelHandler(channels),
		Cfg:      cfg,
		Redis:    rdb,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
