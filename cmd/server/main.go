package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/subosito/gotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/api/option"

	"github.com/lokesh-122/DxAI/internal/config"
	"github.com/lokesh-122/DxAI/internal/insights"
	"github.com/lokesh-122/DxAI/internal/mail"
	"github.com/lokesh-122/DxAI/internal/provider"
	"github.com/lokesh-122/DxAI/internal/server"
	"github.com/lokesh-122/DxAI/internal/store"
)

func main() {
	_ = gotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()

	var historyStore store.Store
	if cfg.Store.UseMemory {
		logger.Info().Msg("using in-memory store for local development")
		historyStore = store.NewMemoryStore()
	} else {
		var opts []option.ClientOption
		if cfg.Store.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Store.CredentialsFile))
		}
		firestoreClient, err := firestore.NewClient(ctx, cfg.Store.ProjectID, opts...)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Firestore client")
		}
		defer firestoreClient.Close()
		historyStore = store.NewFirestoreStore(firestoreClient)
	}

	modelProvider, err := buildProvider(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build model provider")
	}
	logger.Info().Str("provider", modelProvider.Name()).Msg("model provider ready")

	registry := insights.NewRegistry()
	engine := insights.NewEngine(registry, modelProvider)
	engine.Timeout = cfg.Provider.Timeout

	svc := insights.NewService(engine, historyStore, logger)

	var sender mail.Sender
	if cfg.MailEnabled() {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		logger.Info().Msg("SMTP not configured, email dispatch disabled")
		sender = mail.NewNoopSender(logger)
	}

	handler := server.NewHandler(svc, historyStore, sender, logger)
	router := server.NewRouter(handler, logger)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h2c.NewHandler(c.Handler(router), &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
}

func buildProvider(cfg *config.Config) (insights.ModelProvider, error) {
	switch cfg.Provider.Name {
	case "gemini":
		return provider.NewGemini(cfg.Provider.GeminiAPIKey, cfg.Provider.GeminiModel), nil
	case "openai":
		return provider.NewOpenAI(cfg.Provider.OpenAIAPIKey, cfg.Provider.OpenAIModel)
	case "noop":
		return provider.NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}
