package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/erg0nix/omnitea/internal/bot"
	"github.com/erg0nix/omnitea/internal/config"
	"github.com/erg0nix/omnitea/internal/discord"
	"github.com/erg0nix/omnitea/internal/marker"
	"github.com/erg0nix/omnitea/internal/providers"
	"github.com/erg0nix/omnitea/internal/render"
	"github.com/erg0nix/omnitea/internal/tokenizer"
	"github.com/erg0nix/omnitea/internal/window"

	"github.com/spf13/cobra"
)

func runBot(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	channelFlag, _ := cmd.Flags().GetString("channel")
	endpointFlag, _ := cmd.Flags().GetString("endpoint")
	modelFlag, _ := cmd.Flags().GetString("model")
	rendererFlag, _ := cmd.Flags().GetString("renderer")

	setIfNotEmpty(&cfg.Channel, channelFlag)
	setIfNotEmpty(&cfg.Endpoint, endpointFlag)
	setIfNotEmpty(&cfg.Model, modelFlag)
	setIfNotEmpty(&cfg.Renderer, rendererFlag)

	if err := cfg.LoadCredentials(); err != nil {
		return err
	}

	var counter tokenizer.Counter

	tk, err := tokenizer.NewTiktoken()
	if err != nil {
		logger.Warn("tiktoken unavailable, falling back to heuristic counter", "error", err)
		counter = tokenizer.Heuristic{}
	} else {
		counter = tk
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return err
	}

	gateway, err := discord.New(discord.Config{
		Token:   cfg.DiscordToken,
		Channel: cfg.Channel,
	}, logger)
	if err != nil {
		return err
	}

	prefixes := marker.Prefixes{Barrier: cfg.Markers.Barrier, Aside: cfg.Markers.Aside}

	assembler := &window.Assembler{
		History:  gateway,
		Counter:  counter,
		Prefixes: prefixes,
		Config: window.Config{
			Budget:        cfg.Budget(),
			PageSize:      cfg.PageSize,
			MaxPages:      cfg.MaxPages,
			DefaultPrompt: cfg.Prompt,
		},
		Logger: logger,
	}

	completer := providers.NewOpenAIProvider(providers.OpenAIConfig{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.OpenAIKey,
		Model:    cfg.Model,
	}, logger)

	assistant := &bot.Bot{
		Assembler: assembler,
		Completer: completer,
		Chunker:   &render.Chunker{Renderer: renderer},
		Sender:    gateway,
		Prefixes:  prefixes,
		Counter:   counter,
		Logger:    logger,
		SendLimit: cfg.SendLimit,
	}

	gateway.OnMessage(assistant.HandleMessage)

	if err := gateway.Open(); err != nil {
		return err
	}
	defer gateway.Close()

	logger.Info("omnitea running", "channel", cfg.Channel, "model", cfg.Model, "budget", cfg.Budget())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	return nil
}

func newRenderer(cfg config.Config) (render.Renderer, error) {
	switch cfg.Renderer {
	case "", "markdown":
		return &render.Pandoc{WorkDir: cfg.WorkDir}, nil
	case "latex":
		return &render.LaTeX{WorkDir: cfg.WorkDir}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want markdown or latex)", cfg.Renderer)
	}
}
