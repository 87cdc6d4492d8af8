package main

import (
	"artcritic/internal/adapters/analyzer"
	"artcritic/internal/adapters/file"
	"artcritic/internal/adapters/handler"
	"artcritic/internal/adapters/normalizer"
	"artcritic/internal/adapters/sender"
	"artcritic/internal/adapters/transport"
	"artcritic/internal/core/domain"
	"artcritic/internal/core/domain/command"
	"artcritic/internal/core/port"
	"artcritic/internal/core/service"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type backend interface {
	port.Analyzer
	port.HealthChecker
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	log.Info().Msg("starting artcritic...")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.SetGlobalLevel(cfg.logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var b backend
	switch cfg.backend {
	case backendOpenRouter:
		b = analyzer.NewOpenRouter(cfg.openRouterKey, cfg.openRouterModel, cfg.openRouterPrompt)
	default:
		b = analyzer.NewService(cfg.baseURL, &http.Client{}, cfg.healthTimeout)
	}

	status := b.CheckHealth(ctx)
	log.Info().Str("backend", cfg.backend).Str("health", string(status.State)).Str("detail", status.Message).
		Msg("analysis backend checked")

	switch cfg.frontend {
	case frontendTelegram:
		runTelegram(ctx, cfg, b)
	default:
		runConsole(ctx, cfg, b)
	}

	log.Info().Msg("shut down")
}

func newSessions(ctx context.Context, cfg config, analyze port.Analyzer, presenter *service.Presenter) *service.Sessions {
	norm := normalizer.New(normalizer.Software{}, cfg.quality, cfg.maxWidth,
		normalizer.WithMaxPixels(cfg.maxPixels))

	return service.NewSessions(func(chatID int64) *service.Controller {
		return service.NewController(service.ControllerParams{
			Context:    ctx,
			Normalizer: norm,
			Encoder:    transport.Base64{},
			Analyzer:   analyze,
			MaxWidth:   cfg.maxWidth,
			Timeout:    cfg.analysisTimeout,
			Observer:   presenter.Observer(ctx, chatID),
			Session:    chatID,
		})
	})
}

// telegramFilePrefix is the only kind of ref a chat may hand to /select:
// download links of files uploaded to the bot itself.
const telegramFilePrefix = "https://api.telegram.org/file/bot%s/"

// telegramLoader only accepts download links for files sent to the bot. Local
// paths and arbitrary URLs are console only.
func telegramLoader(cfg config) *file.Loader {
	return file.NewLoader(cfg.maxFileSize, cfg.downloadTimeout,
		file.WithAllowedPrefixes(fmt.Sprintf(telegramFilePrefix, cfg.telegramToken)))
}

func registerCommands(registry *command.Registry, loader port.ImageLoader, sessions *service.Sessions,
	s port.TextSender, checker port.HealthChecker, limiter service.Limiter) {
	registry.Register(command.NewSelect(loader, sessions, s, "/select"))
	registry.Register(command.NewRemove(sessions, s, "/remove"))
	registry.Register(command.NewCritique(sessions, s, limiter, "/critique"))
	registry.Register(command.NewHealth(checker, s, "/health"))
	registry.Register(command.NewStatus(sessions, s, "/status"))
	registry.Register(command.NewHelp(registry, s, "/help"))
	registry.Register(command.NewHelp(registry, s, "/start"))
}

func runConsole(ctx context.Context, cfg config, b backend) {
	s := sender.NewConsole(os.Stdout)
	sessions := newSessions(ctx, cfg, b, service.NewPresenter(s))
	defer sessions.Close()

	registry := &command.Registry{}
	loader := file.NewLoader(cfg.maxFileSize, cfg.downloadTimeout)
	registerCommands(registry, loader, sessions, s, b, service.NewQuota(ctx, s, 0))

	if help, err := registry.Get("/help"); err == nil {
		_ = help.Respond(ctx, cfg.handlerTimeout, &domain.Message{ChatID: handler.ConsoleChatID, Text: "/help"})
	}

	if err := handler.NewConsole(registry, cfg.handlerTimeout, "/select").Run(ctx, os.Stdin); err != nil {
		log.Error().Err(err).Msg("console stopped")
	}
}

func runTelegram(ctx context.Context, cfg config, b backend) {
	registry := &command.Registry{}
	h := handler.NewTelegram(registry, cfg.handlerTimeout, "/select")

	tg, err := bot.New(cfg.telegramToken, bot.WithDefaultHandler(h.Handle))
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegram(tg)
	sessions := newSessions(ctx, cfg, b, service.NewPresenter(s))
	registerCommands(registry, telegramLoader(cfg), sessions, s, b, service.NewQuota(ctx, s, cfg.dailyLimit))

	log.Info().Int("dailyLimit", cfg.dailyLimit).Msg("bot listening")
	tg.Start(ctx)

	h.Wait()
	sessions.Close()
}
