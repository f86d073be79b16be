package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/classifier"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/session"
	"github.com/Chative-core-poc-v1/voice/internal/core"
	"github.com/Chative-core-poc-v1/voice/internal/repo"
	"github.com/Chative-core-poc-v1/voice/internal/server"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
	pkgredis "github.com/Chative-core-poc-v1/voice/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

// AppConfig defines all configurable parameters of the assistant host,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`
	Addr     string `envconfig:"HTTP_ADDR" default:":8080"`
	// Extra page origins allowed to open the bridge websocket
	AllowedOrigins []string `envconfig:"HTTP_ALLOWED_ORIGINS"`

	// Infrastructure
	Redis   pkgredis.Config
	History model.HistoryConfig

	// LLM provider; without a key only the keyword fallback classifies
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Profile    model.Profile
	Classifier model.ClassifierConfig
	Dialogue   model.DialogueConfig
	Speech     model.SpeechConfig
	Capture    model.CaptureConfig
}

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	addr := pflag.String("addr", "", "listen address, overrides HTTP_ADDR")
	pflag.Parse()

	// Load .env file
	envErr := godotenv.Load(*envFile)

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Init()
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	env := core.ParseEnvironment(cfg.Env)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.LogLevel})
	if envErr != nil {
		logx.Warn().Err(envErr).Str("path", *envFile).Msg("could not load env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var history model.HistoryRepository
	if cfg.History.Enabled {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise Redis client")
		}
		defer rdb.Close()
		history = repo.NewRedisHistoryRepository(rdb, cfg.History.TTL, cfg.History.MaxTurns)
		logx.Info().Dur("ttl", cfg.History.TTL).Int("max_turns", cfg.History.MaxTurns).Msg("turn history enabled")
	}

	var cm einomodel.BaseChatModel
	if cfg.APIKey != "" {
		gm, err := classifier.NewChatModel(ctx, classifier.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   &cfg.Classifier,
		})
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to create classifier model")
		}
		cm = gm
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set, using keyword classification only")
	}

	cls, err := classifier.New(ctx, cm, cfg.Classifier)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build classifier")
	}

	sessions := session.NewManager(session.Config{
		Profile:  cfg.Profile,
		Dialogue: cfg.Dialogue,
		Speech:   cfg.Speech,
		Capture:  cfg.Capture,
	}, cls, history)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(ctx, sessions, cfg.AllowedOrigins).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", srv.Addr).Str("env", env.String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	logx.Info().Msg("server stopped")
}
