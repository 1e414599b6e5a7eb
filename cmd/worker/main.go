package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/casahojaldre/chatbot-backend/internal/notify"
	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/pubsub"
	"github.com/casahojaldre/chatbot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "worker exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (runErr error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		runErr = multierr.Append(runErr, redisClient.Close())
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return err
	}
	defer func() {
		runErr = multierr.Append(runErr, pubsubClient.Close())
	}()

	sender, err := notify.NewSMTPSender(cfg.SMTP)
	if err != nil {
		return err
	}

	consumer, err := notify.NewConsumer(notify.ConsumerParams{
		Subscription: pubsubClient.OrderEventsSubscription(),
		Sender:       sender,
		Dedupe:       redisClient,
		Logger:       logg,
		SMTP:         cfg.SMTP,
		Business:     cfg.Business,
	})
	if err != nil {
		return err
	}

	logg.Info(logg.WithField(ctx, "subscription", cfg.PubSub.OrderEventsSubscription), "starting order event consumer")

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logg.Info(context.Background(), "worker stopped")
	return nil
}
