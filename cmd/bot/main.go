package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"BidSentinel/internal/agreement"
	"BidSentinel/internal/budget"
	"BidSentinel/internal/config"
	"BidSentinel/internal/currency"
	"BidSentinel/internal/engine"
	"BidSentinel/internal/marketplace"
	"BidSentinel/internal/notifier"
	"BidSentinel/internal/pricing"
	"BidSentinel/internal/scheduler"
	"BidSentinel/internal/scoring"
	"BidSentinel/internal/state"
	"BidSentinel/internal/status"
	"BidSentinel/internal/store"
	"BidSentinel/internal/trust"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(lvl)
	}
	log.Info().Msg("BidSentinel starting")

	// Store: SQLite when configured, in-memory fallback otherwise. A SQLite
	// open failure degrades to memory rather than refusing to start.
	var st store.Store
	if cfg.Store.SQLitePath != "" {
		sq, err := store.NewSQLite(cfg.Store.SQLitePath, cfg.Store.BidWindow)
		if err != nil {
			log.Warn().Err(err).Msg("open sqlite store failed, using in-memory store")
			st = store.NewMemory(cfg.Store.BidWindow)
		} else {
			st = sq
			defer sq.Close()
		}
	} else {
		st = store.NewMemory(cfg.Store.BidWindow)
	}

	stateMgr, err := state.NewManager(st, cfg.Bidding.DailyCap, cfg.Store.DedupWindow, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init state manager")
	}

	client := marketplace.NewHTTPClient(cfg.Marketplace.BaseURL, cfg.Marketplace.OAuthToken,
		time.Duration(cfg.Marketplace.TimeoutSeconds)*time.Second)

	normalizer := currency.New(cfg.Bidding.BaseCurrency, cfg.Bidding.CurrencyPolicies)
	normalizer.SetRates(currency.FallbackRates())

	analyzer := trust.NewAnalyzer(trust.Options{
		RatingFloor:             cfg.Trust.RatingFloor,
		RequireIdentity:         cfg.Trust.RequireIdentity,
		RejectPhoneEmailOnly:    cfg.Trust.RejectPhoneEmailOnly,
		FailClosedOnLookupError: cfg.Trust.FailClosedOnLookupError,
	})

	scorer := &scoring.Scorer{
		Weights: scoring.Weights{
			Budget:      cfg.Scoring.WeightBudget,
			Description: cfg.Scoring.WeightDescription,
			Client:      cfg.Scoring.WeightClient,
			Competition: cfg.Scoring.WeightCompetition,
		},
		QualityThreshold:   cfg.Scoring.QualityThreshold,
		AcceptAll:          cfg.Scoring.AcceptAll,
		WordCeiling:        cfg.Scoring.DescriptionWordCeiling,
		CompetitionCeiling: cfg.Bidding.CompetitionCeiling,
		EarlyBirdWindow:    time.Duration(cfg.Scoring.EarlyBirdWindowMinutes) * time.Minute,
		EarlyBirdBoost:     cfg.Scoring.EarlyBirdBoost,
		EliteBoost:         cfg.Scoring.EliteBoost,
	}

	pricer := &pricing.Pricer{
		Normalizer:         normalizer,
		EliteDefaultAmount: cfg.Bidding.EliteDefaultAmount,
		EliteMultiplier:    cfg.Bidding.EliteMultiplier,
		Templates:          cfg.Bidding.Templates,
	}

	eng := engine.New(engine.Deps{
		Client:               client,
		Normalizer:           normalizer,
		Gate:                 &budget.Gate{CompetitionCeiling: cfg.Bidding.CompetitionCeiling},
		Analyzer:             analyzer,
		Scorer:               scorer,
		Pricer:               pricer,
		Agreements:           agreement.NewHandler(client, log),
		State:                stateMgr,
		Store:                st,
		PolicyFor:            cfg.PolicyFor,
		BidderID:             cfg.Marketplace.UserID,
		EliteBudgetThreshold: cfg.Bidding.EliteBudgetThreshold,
		IdealBudget:          cfg.Scoring.IdealBudget,
		DefaultFloor:         cfg.Bidding.DefaultMinimumBudget,
	}, log)

	var notif notifier.Notifier = notifier.Noop{}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notif = notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)
		log.Info().Msg("telegram notifications enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Status.ListenAddr != "" {
		srv := status.NewServer(cfg.Status.ListenAddr, stateMgr, st, log)
		srv.Start()
		defer func() {
			shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("status server shutdown")
			}
		}()
	}

	sched := scheduler.New(scheduler.Options{
		FetchLimit:           cfg.Marketplace.FetchLimit,
		PollInterval:         time.Duration(cfg.Schedule.PollIntervalSeconds) * time.Second,
		PeakPollInterval:     time.Duration(cfg.Schedule.PeakPollIntervalSeconds) * time.Second,
		PeakStartHourUTC:     cfg.Schedule.PeakStartHourUTC,
		PeakEndHourUTC:       cfg.Schedule.PeakEndHourUTC,
		MaxConsecutiveErrors: cfg.Schedule.MaxConsecutiveErrors,
		BackoffBase:          time.Duration(cfg.Schedule.BackoffBaseSeconds) * time.Second,
		BackoffMax:           time.Duration(cfg.Schedule.BackoffMaxSeconds) * time.Second,
		DailyCap:             cfg.Bidding.DailyCap,
	}, client, eng, stateMgr, normalizer, notif, log)

	runErr := make(chan error, 1)
	go func() { runErr <- sched.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
		<-runErr
	case err := <-runErr:
		if err != nil {
			log.Error().Err(err).Msg("scheduler stopped with error")
			os.Exit(1)
		}
	}
	log.Info().Msg("BidSentinel stopped")
}
