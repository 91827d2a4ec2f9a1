package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/samvad-hq/newstone/internal/bot"
	"github.com/samvad-hq/newstone/internal/config"
	"github.com/samvad-hq/newstone/internal/logger"
	"github.com/samvad-hq/newstone/pkg/httpclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "newstone-bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Bot.Token == "" {
		return errors.New("bot.token (or TELEGRAM_BOT_TOKEN) is required")
	}

	zl, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Named("bot")

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}
	log.InfoObj("authorized", "bot_start", map[string]any{"username": api.Self.UserName})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Requests to /news may wait for a full population on a cold cache.
	client := httpclient.New(httpclient.Options{
		Timeout:    cfg.News.PopulateTimeout + cfg.Tone.Timeout,
		RetryCount: 0,
		UserAgent:  cfg.HTTP.UserAgent,
	})
	backend := bot.NewBackend(client, cfg.Bot.APIURL)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(cfg.Bot.PollTimeout.Seconds())
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	bot.New(api, backend, cfg.Bot.DefaultTone, log).Run(ctx, updates)
	log.InfoObj("stopped", "bot_stop", nil)
	return nil
}
