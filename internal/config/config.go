package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	LLMProvider  string

	DatabasePath string
	JWTSecret    string
	Port         string
	LogLevel     string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("LLM_PROVIDER", ProviderGemini)
	v.SetDefault("DATABASE_PATH", "data/bargain-bites.db")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	geminiAPIKey := v.GetString("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER")))
	groqAPIKey := v.GetString("GROQ_API_KEY")
	switch provider {
	case ProviderGemini:
	case ProviderGroq:
		if groqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	// Telegram Config (optional for the CLI and the API)
	allowed, err := parseUserIDs(v.GetString("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if raw := strings.TrimSpace(v.GetString("ADMIN_TELEGRAM_ID")); raw != "" {
		adminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return &Config{
		GeminiAPIKey:           geminiAPIKey,
		GeminiModel:            v.GetString("GEMINI_MODEL"),
		GroqAPIKey:             groqAPIKey,
		LLMProvider:            provider,
		DatabasePath:           v.GetString("DATABASE_PATH"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		Port:                   v.GetString("PORT"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		TelegramBotToken:       v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     v.GetString("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
	}, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return nil
}

// IsAllowedUser reports whether a Telegram user may talk to the bot. The
// admin is always allowed.
func (c *Config) IsAllowedUser(id int64) bool {
	if c.AdminTelegramID != 0 && id == c.AdminTelegramID {
		return true
	}
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
