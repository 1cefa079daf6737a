package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config holds all runtime settings, loaded from environment variables
// (optionally seeded from a .env file).
type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"3000"`

	StreamlabsClientID     string `env:"STREAMLABS_CLIENT_ID"`
	StreamlabsClientSecret string `env:"STREAMLABS_CLIENT_SECRET"`
	RedirectURI            string `env:"REDIRECT_URI"`
	StreamlabsSocketToken  string `env:"STREAMLABS_SOCKET_TOKEN"`

	TwitchClientID     string `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret string `env:"TWITCH_CLIENT_SECRET"`
	TwitchUsername     string `env:"TWITCH_USERNAME" default:"alpha_bit"`

	ManualFollowerCount int `env:"MANUAL_FOLLOWER_COUNT" default:"15"`
	GoalTarget          int `env:"GOAL_TARGET" default:"200"`

	SessionSecret string `env:"SESSION_SECRET" default:"follower-goal-session"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SocketReconnectDelay time.Duration `env:"SOCKET_RECONNECT_DELAY" default:"5s"`
	AuthCheckInterval    time.Duration `env:"AUTH_CHECK_INTERVAL" default:"60s"`
}

// Load reads configuration from the environment. Missing Streamlabs
// credentials are the only fatal condition; Twitch and socket-token
// settings are optional and degrade to manual/mock data.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.StreamlabsClientID == "" {
		return fmt.Errorf("STREAMLABS_CLIENT_ID is required")
	}
	if cfg.StreamlabsClientSecret == "" {
		return fmt.Errorf("STREAMLABS_CLIENT_SECRET is required")
	}
	if cfg.GoalTarget <= 0 {
		return fmt.Errorf("GOAL_TARGET must be a positive integer, got %d", cfg.GoalTarget)
	}
	if cfg.ManualFollowerCount < 0 {
		return fmt.Errorf("MANUAL_FOLLOWER_COUNT must not be negative, got %d", cfg.ManualFollowerCount)
	}

	if cfg.TwitchClientID == "" || cfg.TwitchClientSecret == "" {
		slog.Warn("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET not set, Twitch integration will use fallback data")
	}
	if cfg.StreamlabsSocketToken == "" {
		slog.Warn("STREAMLABS_SOCKET_TOKEN not set, real-time follow detection starts only after OAuth")
	}

	return nil
}

// HasTwitchCredentials reports whether outbound Twitch API calls are possible.
func (c *Config) HasTwitchCredentials() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}
