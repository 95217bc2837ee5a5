package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is resolved once at startup and injected; nothing reads the
// environment after Load returns.
type Config struct {
	// WhatsApp Business (Graph) API
	WhatsAppAccessToken   string `env:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	GraphAPIBaseURL       string `env:"GRAPH_API_BASE_URL" envDefault:"https://graph.facebook.com/v18.0"`

	// Shared secret for the webhook hub.challenge handshake.
	WebhookVerifyToken string `env:"WEBHOOK_VERIFY_TOKEN" envDefault:"chama_bot"`

	// Web server
	WebBind string `env:"WEB_BIND" envDefault:"0.0.0.0:3000"`

	ExportDir    string `env:"EXPORT_DIR" envDefault:"."`
	SeedDemoData bool   `env:"SEED_DEMO_DATA" envDefault:"false"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.WhatsAppAccessToken == "" {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN is required")
	}
	if cfg.WhatsAppPhoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID is required")
	}

	return cfg, nil
}
