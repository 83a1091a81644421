package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/mohaimenalqadi/kick-donations/internal/config"
	"github.com/mohaimenalqadi/kick-donations/internal/database"
	"github.com/mohaimenalqadi/kick-donations/internal/handler"
	"github.com/mohaimenalqadi/kick-donations/internal/hub"
	"github.com/mohaimenalqadi/kick-donations/internal/middleware"
	"github.com/mohaimenalqadi/kick-donations/internal/queue"
	"github.com/mohaimenalqadi/kick-donations/internal/repository"
	"github.com/mohaimenalqadi/kick-donations/internal/router"
	"github.com/mohaimenalqadi/kick-donations/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	donations := repository.NewDonationRepo(db)
	tiers := repository.NewTierRepo(db)
	settings := repository.NewSettingsRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	activity := repository.NewActivityRepo(db)

	alerts := service.NewAlertService(donations, tiers)
	h := hub.New(alerts.Complete)
	alerts.AttachHub(h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := h.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("hub stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartAlertConsumer(); err != nil {
			log.Printf("alert consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	// Redis-backed rate limiting and snapshot caching; both degrade to
	// no-ops when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	snapshotCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authHandler := handler.NewAuthHandler(cfg, users, tokens, activity)
	donationHandler := handler.NewDonationHandler(cfg, donations, tiers, alerts, h, activity)
	settingsHandler := handler.NewSettingsHandler(settings, tiers, h, activity)
	wsHandler := handler.NewWSHandler(h)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, donationHandler, settingsHandler, wsHandler, snapshotCache)
	router.RegisterOperator(e, donationHandler, settingsHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
