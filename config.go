package main

import (
	"artcritic/internal/adapters/normalizer"
	"artcritic/internal/core/domain"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	frontendConsole  = "console"
	frontendTelegram = "telegram"

	backendService    = "service"
	backendOpenRouter = "openrouter"
)

type config struct {
	logLevel        zerolog.Level
	frontend        string
	backend         string
	baseURL         string
	analysisTimeout time.Duration
	healthTimeout   time.Duration
	maxWidth        int
	quality         float64
	maxPixels       int
	maxFileSize     int64
	downloadTimeout time.Duration
	handlerTimeout  time.Duration

	openRouterKey    string
	openRouterModel  string
	openRouterPrompt string

	telegramToken string
	dailyLimit    int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.frontend", frontendConsole)
	v.SetDefault("analysis.backend", backendService)
	v.SetDefault("analysis.base_url", "http://localhost:8787")
	v.SetDefault("analysis.timeout", "60s")
	v.SetDefault("health.timeout", "5s")
	v.SetDefault("normalizer.max_width", domain.DefaultMaxWidth)
	v.SetDefault("normalizer.quality", domain.DefaultQuality)
	v.SetDefault("normalizer.max_pixels", normalizer.DefaultMaxPixels)
	v.SetDefault("file.max_size", 20<<20)
	v.SetDefault("file.download_timeout", "30s")
	v.SetDefault("handler.timeout", "2m")
	v.SetDefault("openrouter.model", "google/gemini-2.5-flash")
	v.SetDefault("telegram.daily_limit", 0)
}

// loadConfig reads config.toml from the working directory if present.
// Every key can be overridden from the environment, e.g. ARTCRITIC_ANALYSIS_BASE_URL.
func loadConfig(v *viper.Viper) (config, error) {
	setDefaults(v)

	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.SetEnvPrefix("ARTCRITIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	log.Info().Msg("reading config file...")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("could not read config file: %w", err)
		}
		log.Info().Msg("no config file found, using defaults and environment")
	}

	return parseConfig(v)
}

func parseConfig(v *viper.Viper) (config, error) {
	level, err := zerolog.ParseLevel(v.GetString("app.log_level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	c := config{
		logLevel:         level,
		frontend:         strings.ToLower(v.GetString("app.frontend")),
		backend:          strings.ToLower(v.GetString("analysis.backend")),
		baseURL:          v.GetString("analysis.base_url"),
		analysisTimeout:  v.GetDuration("analysis.timeout"),
		healthTimeout:    v.GetDuration("health.timeout"),
		maxWidth:         v.GetInt("normalizer.max_width"),
		quality:          v.GetFloat64("normalizer.quality"),
		maxPixels:        v.GetInt("normalizer.max_pixels"),
		maxFileSize:      v.GetInt64("file.max_size"),
		downloadTimeout:  v.GetDuration("file.download_timeout"),
		handlerTimeout:   v.GetDuration("handler.timeout"),
		openRouterKey:    v.GetString("openrouter.api_key"),
		openRouterModel:  v.GetString("openrouter.model"),
		openRouterPrompt: v.GetString("openrouter.system_prompt"),
		telegramToken:    v.GetString("telegram.bot_token"),
		dailyLimit:       v.GetInt("telegram.daily_limit"),
	}

	switch c.frontend {
	case frontendConsole, frontendTelegram:
	default:
		return config{}, fmt.Errorf("unknown frontend %q", c.frontend)
	}

	switch c.backend {
	case backendService, backendOpenRouter:
	default:
		return config{}, fmt.Errorf("unknown analysis backend %q", c.backend)
	}

	if c.frontend == frontendTelegram && c.telegramToken == "" {
		return config{}, errors.New("telegram.bot_token is required for the telegram frontend")
	}

	if c.handlerTimeout <= 0 {
		return config{}, errors.New("handler.timeout must be positive")
	}

	if c.maxWidth <= 0 {
		c.maxWidth = domain.DefaultMaxWidth
	}

	return c, nil
}
