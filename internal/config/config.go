package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const defaultPrompt = "You are Omnitea, a helpful assistant chatting on Discord. " +
	"Answer concisely and wrap mathematical expressions in $...$ delimiters."

type MarkersConfig struct {
	Barrier string `toml:"barrier"`
	Aside   string `toml:"aside"`
}

type Config struct {
	Channel      string        `toml:"channel"`
	Endpoint     string        `toml:"endpoint"`
	Model        string        `toml:"model"`
	ContextSize  int           `toml:"context_size"`
	ReplyReserve int           `toml:"reply_reserve"`
	PageSize     int           `toml:"page_size"`
	MaxPages     int           `toml:"max_pages"`
	SendLimit    int           `toml:"send_limit"`
	Renderer     string        `toml:"renderer"`
	WorkDir      string        `toml:"work_dir"`
	Prompt       string        `toml:"prompt"`
	Markers      MarkersConfig `toml:"markers"`

	// Credentials come from the environment, never from the file.
	DiscordToken string `toml:"-"`
	OpenAIKey    string `toml:"-"`
}

func Default() Config {
	return Config{
		Channel:      "omnitea",
		Endpoint:     "https://api.openai.com",
		Model:        "gpt-3.5-turbo",
		ContextSize:  4096,
		ReplyReserve: 500,
		PageSize:     10,
		MaxPages:     512,
		SendLimit:    2000,
		Renderer:     "markdown",
		WorkDir:      "",
		Prompt:       defaultPrompt,
		Markers: MarkersConfig{
			Barrier: "|b|",
			Aside:   "|a|",
		},
	}
}

func LoadOrCreate(path string) (Config, error) {
	config := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return config, err
			}

			configData, err := toml.Marshal(config)
			if err != nil {
				return config, err
			}

			if err := os.WriteFile(path, configData, 0o644); err != nil {
				return config, err
			}

			return config, nil
		}

		return config, err
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := toml.Unmarshal(configData, &config); err != nil {
		return config, err
	}

	config.Endpoint = strings.TrimSpace(config.Endpoint)
	config.Channel = strings.TrimSpace(config.Channel)
	config.WorkDir = expandPath(config.WorkDir)

	if config.Endpoint == "" {
		return config, errors.New("endpoint is required")
	}

	if config.ContextSize <= 0 {
		config.ContextSize = 4096
	}

	if config.ReplyReserve < 0 || config.ReplyReserve >= config.ContextSize {
		return config, errors.New("reply_reserve must be between 0 and context_size")
	}

	return config, nil
}

// LoadCredentials pulls secrets and the optional channel override from the
// environment.
func (c *Config) LoadCredentials() error {
	c.DiscordToken = os.Getenv("DISCORD_TOKEN")
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}

	c.OpenAIKey = os.Getenv("OPENAI_KEY")
	if c.OpenAIKey == "" {
		return errors.New("OPENAI_KEY is required")
	}

	if channel := os.Getenv("CHANNEL_NAME"); channel != "" {
		c.Channel = channel
	}

	return nil
}

// Budget is the token ceiling for an assembled window: the context size
// minus the reserve kept free for the reply.
func (c Config) Budget() int {
	return c.ContextSize - c.ReplyReserve
}

func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return filepath.Join(".omnitea", "config.toml")
	}

	return filepath.Join(homeDir, ".omnitea", "config.toml")
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()

		if homeDir != "" {
			trimmed := strings.TrimPrefix(path, "~")
			trimmed = strings.TrimPrefix(trimmed, string(os.PathSeparator))

			return filepath.Join(homeDir, trimmed)
		}
	}

	return path
}
