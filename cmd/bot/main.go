package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/casahojaldre/chatbot-backend/api/routes"
	"github.com/casahojaldre/chatbot-backend/internal/answers"
	"github.com/casahojaldre/chatbot-backend/internal/cart"
	"github.com/casahojaldre/chatbot-backend/internal/catalog"
	"github.com/casahojaldre/chatbot-backend/internal/chat"
	"github.com/casahojaldre/chatbot-backend/internal/customers"
	"github.com/casahojaldre/chatbot-backend/internal/documents"
	"github.com/casahojaldre/chatbot-backend/internal/notify"
	internalorders "github.com/casahojaldre/chatbot-backend/internal/orders"
	"github.com/casahojaldre/chatbot-backend/internal/preorder"
	"github.com/casahojaldre/chatbot-backend/internal/pricing"
	"github.com/casahojaldre/chatbot-backend/internal/session"
	pkgauth "github.com/casahojaldre/chatbot-backend/pkg/auth"
	"github.com/casahojaldre/chatbot-backend/pkg/config"
	"github.com/casahojaldre/chatbot-backend/pkg/db"
	"github.com/casahojaldre/chatbot-backend/pkg/logger"
	"github.com/casahojaldre/chatbot-backend/pkg/metrics"
	"github.com/casahojaldre/chatbot-backend/pkg/migrate"
	"github.com/casahojaldre/chatbot-backend/pkg/openai"
	"github.com/casahojaldre/chatbot-backend/pkg/pubsub"
	"github.com/casahojaldre/chatbot-backend/pkg/redis"
	"github.com/casahojaldre/chatbot-backend/pkg/telegram"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "bot"

	logg = logger.New(logger.Options{
		ServiceName: "bot",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "bot exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (runErr error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		runErr = multierr.Append(runErr, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

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

	bot, err := telegram.NewClient(
		cfg.Telegram.BotToken,
		telegram.WithBaseURL(cfg.Telegram.APIBaseURL),
		telegram.WithHTTPClient(&http.Client{Timeout: cfg.Telegram.SendTimeout}),
	)
	if err != nil {
		return err
	}

	tiers, err := pricing.ParseTiers(cfg.Pricing.TierSpec)
	if err != nil {
		return err
	}
	engine := pricing.NewEngine(tiers)

	registry := prometheus.NewRegistry()
	botMetrics := metrics.NewBotMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		return err
	}

	renderer, err := documents.NewRenderer(logg, cfg.Documents, cfg.Business)
	if err != nil {
		return err
	}

	publisher, err := notify.NewPublisher(pubsubClient.OrderEventsPublisher(), logg)
	if err != nil {
		return err
	}

	ordersRepo := internalorders.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())
	ordersSvc, err := internalorders.NewService(internalorders.ServiceParams{
		Logger:    logg,
		Repo:      ordersRepo,
		Customers: customersRepo,
		Tx:        dbClient,
		Engine:    engine,
		Renderer:  renderer,
		Publisher: publisher,
		Metrics:   botMetrics,
		Business:  cfg.Business,
	})
	if err != nil {
		return err
	}

	wizard, err := preorder.NewService(catalogSvc, customersRepo, nil)
	if err != nil {
		return err
	}

	knowledgeRepo := answers.NewKnowledgeRepository(dbClient.DB())
	answersParams := answers.ServiceParams{
		Logger:    logg,
		Knowledge: knowledgeRepo,
		Catalog:   catalogSvc,
		Orders:    ordersRepo,
		Metrics:   botMetrics,
		Business:  cfg.Business,
		Resolver:  cfg.Resolver,
	}
	if cfg.OpenAI.APIKey != "" {
		generative, err := openai.NewClient(cfg.OpenAI)
		if err != nil {
			return err
		}
		answersParams.Generative = generative
	} else {
		logg.Warn(ctx, "openai api key not set, generative fallback disabled")
	}
	answersSvc, err := answers.NewService(answersParams)
	if err != nil {
		return err
	}

	sessions := session.NewStore(cfg.Session.IdleTTL)
	janitor, err := session.NewJanitor(logg, sessions, cfg.Session)
	if err != nil {
		return err
	}
	go func() {
		if err := janitor.Run(ctx); err != nil {
			logg.Error(ctx, "session janitor stopped", err)
		}
	}()

	dispatcher, err := chat.NewDispatcher(chat.DispatcherParams{
		Logger:   logg,
		Sessions: sessions,
		Cart:     cart.NewStore(),
		Catalog:  catalogSvc,
		Orders:   ordersSvc,
		Wizard:   wizard,
		Answers:  answersSvc,
		Engine:   engine,
		Metrics:  botMetrics,
		Business: cfg.Business,
		Resolver: cfg.Resolver,
	})
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Bot:        bot,
		Dispatcher: dispatcher,
		Orders:     ordersSvc,
		Knowledge:  knowledgeRepo,
		Auth:       pkgauth.NewJWTChecker(cfg.AdminJWT),
		Metrics:    botMetrics,
		Registry:   registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(startCtx, "starting bot server")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down bot server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
