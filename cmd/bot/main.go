package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/railwatch/config"
	"github.com/Domenick1991/railwatch/internal/bootstrap"
	"github.com/Domenick1991/railwatch/internal/bot"
	"github.com/Domenick1991/railwatch/internal/cache"
	"github.com/Domenick1991/railwatch/internal/kafka"
	"github.com/Domenick1991/railwatch/internal/repository"
	"github.com/Domenick1991/railwatch/internal/rzd"
	"github.com/Domenick1991/railwatch/internal/service/search"
	"github.com/Domenick1991/railwatch/internal/service/watch"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var watchRepo repository.WatchRepository
	if dsn := cfg.Database.DSN(); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		watchRepo = repository.NewWatchRepository(pool)
	}

	deps := bot.Deps{
		WatchTTL:      time.Duration(cfg.Watch.DeadlineHours) * time.Hour,
		SearchTimeout: time.Duration(cfg.Watch.SearchTimeoutSeconds) * time.Second,
		MaxResults:    cfg.Watch.MaxResults,
	}

	if cfg.Redis.Addr != "" {
		deps.Cities = cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Watch.CityCacheTTLHours)*time.Hour)
	}

	var schedulerOpts []watch.SchedulerOption
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.WatchEventsTopic != "" {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		deps.Producer = producer
		deps.EventsTopic = cfg.Kafka.WatchEventsTopic
		schedulerOpts = append(schedulerOpts, watch.WithEvents(producer, cfg.Kafka.WatchEventsTopic))
	}

	client := rzd.NewHTTPClient(cfg.RZD.BaseURL, time.Duration(cfg.RZD.TimeoutSeconds)*time.Second)
	executor := search.NewService(client, search.DefaultLayoutRules,
		time.Duration(cfg.Watch.UpstreamRetryMillis)*time.Millisecond)
	registry := watch.NewRegistry(watchRepo)

	deps.Registry = registry
	deps.Search = executor
	deps.Upstream = client

	tgBot, err := bot.New(cfg.Telegram.Token, deps)
	if err != nil {
		log.Fatalf("create bot: %v", err)
	}

	scheduler := watch.NewScheduler(
		registry,
		executor,
		tgBot,
		time.Duration(cfg.Watch.PollIntervalSeconds)*time.Second,
		time.Duration(cfg.Watch.ProgressIntervalMinutes)*time.Minute,
		cfg.Watch.MaxResults,
		schedulerOpts...,
	)
	tgBot.Scheduler = scheduler

	if watchRepo != nil {
		restored, err := watchRepo.ListActive(ctx)
		if err != nil {
			log.Printf("restore watches: %v", err)
		} else if len(restored) > 0 {
			registry.Restore(restored)
			for _, w := range restored {
				scheduler.Enqueue(w)
			}
			log.Printf("restored %d watches", len(restored))
		}
	}

	go func() {
		if err := scheduler.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("scheduler stopped: %v", err)
		}
	}()
	go func() {
		if err := bootstrap.Run(ctx, cfg, registry); err != nil {
			log.Printf("admin server: %v", err)
		}
	}()

	log.Printf("start railwatch telegram bot")
	tgBot.Start(ctx)
}
