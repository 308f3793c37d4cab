package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded (when present) before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Settings holds the runtime configuration read from the environment.
type Settings struct {
	// Client side
	APIURL   string `env:"SATURDAYS_API_URL" envDefault:"http://127.0.0.1:18090"`
	APIToken string `env:"SATURDAYS_API_TOKEN"`
	Language string `env:"SATURDAYS_LANG" envDefault:"en"`

	// Backend side
	ListenAddr     string   `env:"SATURDAYS_LISTEN_ADDR" envDefault:"127.0.0.1:18090"`
	DataFile       string   `env:"SATURDAYS_DATA_FILE" envDefault:"alternate_saturdays.json"`
	TokenHash      string   `env:"SATURDAYS_TOKEN_HASH"`
	AllowedOrigins []string `env:"SATURDAYS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	FeedName       string   `env:"SATURDAYS_FEED_NAME" envDefault:"Working Saturdays"`
}

// LoadEnv loads the env files that exist and returns how many were applied.
// Variables already present in the process environment are not overridden.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		} else if !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%s: %w", ErrEnvFile, err)
		}
	}

	if len(existing) == 0 {
		return 0, nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrEnvFile, err)
	}
	return len(existing), nil
}

// LoadSettings applies the env files and parses the environment into Settings.
func LoadSettings(envFiles []string) (*Settings, error) {
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsParse, err)
	}
	return s, nil
}
