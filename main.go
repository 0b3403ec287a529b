package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/chart"
	"github.com/SimplePineApple/BalanceTrackerBot/internal/config"
	"github.com/SimplePineApple/BalanceTrackerBot/internal/lookup"
	"github.com/SimplePineApple/BalanceTrackerBot/internal/telegram"
	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

func main() {
	log.SetPrefix("balance-tracker-bot: ")

	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Error loading .env: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration:\n%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional lookup cache. A Redis outage only costs cache hits.
	var cache lookup.Cache
	if cfg.RedisURL != "" {
		rc, err := lookup.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("[redis] disabled: %v", err)
		} else {
			defer rc.Close()
			cache = rc
			log.Println("Redis cache ready!")
		}
	}

	h := &Handler{webhookSecret: cfg.WebhookSecret}
	var journal tracker.Journal
	if cfg.DatabaseURL != "" {
		pool, err := getDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		h.db = pool
		journal = &pgJournal{db: pool}
		log.Println("DB pool ready!")
	}

	h.bot = tracker.New(tracker.Config{
		Weather: lookup.NewWeather(cfg.OpenWeatherURL, cfg.OpenWeatherAPIKey, cfg.LookupTimeout, cache),
		Food:    lookup.NewFood(cfg.OpenFoodFactsURL, cfg.LookupTimeout, cache),
		Charts:  chart.New(),
		Journal: journal,
	})

	// The HTTP timeout must outlast the 30s long poll.
	tg, err := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, 60*time.Second)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	log.Printf("Authorized as @%s", tg.Username())
	dispatcher := telegram.NewDispatcher(ctx, h.bot, tg, cfg.UserRatePerSec, cfg.UserRateBurst)
	h.dispatch = dispatcher.Dispatch

	switch cfg.TelegramMode {
	case config.ModeWebhook:
		if err := tg.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			log.Fatalf("setWebhook: %v", err)
		}
		log.Printf("Webhook registered at %s", cfg.WebhookURL)
	default:
		go telegram.Poll(ctx, tg, dispatcher.Dispatch)
		log.Println("Long polling started")
	}

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("Starting gin app on :%s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	dispatcher.Wait()
}
