package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/mymmrac/telego"

	"referral-bot/internal/admin"
	"referral-bot/internal/bot"
	"referral-bot/internal/config"
	"referral-bot/internal/database"
	"referral-bot/internal/referral"
	"referral-bot/internal/store"
	"referral-bot/internal/worker"
)

// resolveBotName picks the name used for share links: the identity reported
// by the API wins, BOT_NAME is the fallback. Running with neither would hand
// out links pointing at https://t.me/?start=..., so that is a startup error.
func resolveBotName(configured, reported string, lookupErr error) (string, error) {
	if reported != "" {
		return reported, nil
	}
	if configured != "" {
		return configured, nil
	}
	if lookupErr != nil {
		return "", fmt.Errorf("BOT_NAME is not set and getMe failed: %w", lookupErr)
	}
	return "", errors.New("BOT_NAME is not set and getMe returned no username")
}

func main() {
	// Load Configuration
	cfg := config.LoadConfig()
	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is not set")
	}

	// Connect to Database
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Connect to Redis
	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telegram client
	tgBot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	var meName string
	info, meErr := tgBot.GetMe(ctx)
	if meErr != nil {
		log.Printf("Could not fetch bot identity: %v", meErr)
	} else {
		meName = info.Username
	}
	botName, err := resolveBotName(cfg.BotName, meName, meErr)
	if err != nil {
		log.Fatalf("Could not resolve bot name: %v", err)
	}

	st := store.New(db, cfg.CodeLength)
	engine := referral.NewEngine(st, cfg.PointsPerReferral)
	notifier := bot.NewTelegramNotifier(tgBot)
	router := bot.NewRouter(st, engine, notifier, botName)
	loop := bot.NewLoop(bot.NewTelegramSource(tgBot), router, bot.NewRedisCursor(rdb), cfg.PollTimeout, cfg.PollBackoff)

	// Admin API
	adminServer := admin.NewServer(st, cfg.AdminPassword, botName)
	go func() {
		if err := adminServer.Listen(":" + cfg.AdminPort); err != nil {
			log.Printf("Admin server stopped: %v", err)
		}
	}()

	// Broadcast fan-out
	broadcaster := worker.NewBroadcaster(st, rdb, notifier)
	go broadcaster.Start(ctx)

	log.Printf("Bot %s started in polling mode", botName)

	if err := loop.Run(ctx); err != nil {
		log.Fatalf("Ingestion loop failed: %v", err)
	}

	if err := adminServer.Shutdown(); err != nil {
		log.Printf("Admin server shutdown error: %v", err)
	}
	log.Println("Bot stopped")
}
