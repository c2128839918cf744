package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scholarship-matcher/internal/ai"
	"github.com/spigell/scholarship-matcher/internal/ai/gemini"
	"github.com/spigell/scholarship-matcher/internal/logger"
	"github.com/spigell/scholarship-matcher/internal/matching"
	"github.com/spigell/scholarship-matcher/internal/secrets"
	"github.com/spigell/scholarship-matcher/internal/store/sqlite"
)

const geminiAPIKeyEnv = "GEMINI_API_KEY"

// bootstrap builds the logger and reads the config. Failures are fatal.
func bootstrap(outputs ...string) (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), outputs...)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}

func openStore(ctx context.Context, config *Config, logger *zap.Logger) (*sqlite.Store, error) {
	path := strings.TrimSpace(config.Database)
	if path == "" {
		return nil, fmt.Errorf("database path is not configured")
	}

	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	logger.Debug("database opened", zap.String("path", path))
	return db, nil
}

func newMatchService(ctx context.Context, config *Config, db matching.Store, log *zap.Logger) *matching.Service {
	var fallback string
	var explainer ai.Explainer

	if config.AI != nil {
		fallback = config.AI.FallbackMessage
		if config.AI.Enabled {
			e, err := newExplainer(ctx, config.AI, log)
			if err != nil {
				// Matching still works, only without explanations.
				log.Warn("skipping AI explanations", zap.Error(err))
			} else {
				explainer = e
			}
		}
	}

	return matching.New(db, explainer, fallback, log)
}

func newExplainer(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Explainer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	geminiCfg := cfg.Gemini
	if geminiCfg == nil {
		geminiCfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  geminiCfg.APIKeyFile,
		Value: geminiCfg.APIKey,
		Env:   geminiAPIKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, geminiCfg.Model, geminiCfg.MaxRetries, log)
	if err != nil {
		return nil, err
	}

	explainerLogger := logger.WithAI(log, gemini.Provider, generator.Model())
	explainerLogger.Info("AI explanations enabled", zap.Int("ai_retry_attempts", geminiCfg.MaxRetries))

	return gemini.NewExplainer(generator, geminiCfg.MaxLogLength, explainerLogger), nil
}
