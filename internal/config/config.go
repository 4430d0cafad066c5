// Package config reads bot settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN,required,notEmpty"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	LogFile    string `env:"LOG_FILE" envDefault:"logs/bot.log"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogConsole bool   `env:"LOG_CONSOLE" envDefault:"true"`

	PlayerVolume     float64 `env:"PLAYER_VOLUME" envDefault:"0.2"`
	MaxFailureStreak int     `env:"MAX_FAILURE_STREAK" envDefault:"10"`
	FFmpegPath       string  `env:"FFMPEG_PATH" envDefault:"ffmpeg"`

	ResolverRate    float64       `env:"RESOLVER_RATE" envDefault:"2"`
	ResolverTimeout time.Duration `env:"RESOLVER_TIMEOUT" envDefault:"45s"`
}

// New loads .env when present and parses the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, falling back to system environment variables")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.PlayerVolume < 0 {
		return nil, fmt.Errorf("PLAYER_VOLUME must not be negative, got %v", cfg.PlayerVolume)
	}
	if cfg.CommandPrefix == "" {
		return nil, fmt.Errorf("COMMAND_PREFIX must not be empty")
	}
	return &cfg, nil
}
