// Package config holds runtime configuration for the relay.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment
	// unless the memory store is selected.
	DefaultDatabaseURL = ""
)

// Relay carries the messaging-channel, auth and poller settings. The chat
// destination and the sender allow-list are configuration, never constants,
// so the relay can run against fake channels and multiple operators.
type Relay struct {
	// BotToken is the Telegram bot credential. Empty disables outbound
	// notifications (tasks are still created and pollable).
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// ChatID is the destination chat for outbound task notifications.
	ChatID int64 `env:"TELEGRAM_CHAT_ID"`

	// AllowedChatIDs lists the senders whose replies are correlated.
	// Defaults to the destination chat when unset.
	AllowedChatIDs []int64 `env:"TELEGRAM_ALLOWED_CHAT_IDS" envSeparator:","`

	// WebhookSecret, when set, must match the secret-token header on
	// inbound webhook requests.
	WebhookSecret string `env:"TELEGRAM_WEBHOOK_SECRET"`

	// APIToken is the static bearer token for the dashboard API. Empty
	// disables dashboard authentication.
	APIToken string `env:"API_TOKEN"`

	// PollInterval is how often the background poller checks pending tasks.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
}

// LoadRelay reads relay settings from the environment.
func LoadRelay() (*Relay, error) {
	var cfg Relay
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse relay config: %w", err)
	}
	if len(cfg.AllowedChatIDs) == 0 && cfg.ChatID != 0 {
		cfg.AllowedChatIDs = []int64{cfg.ChatID}
	}
	return &cfg, nil
}
