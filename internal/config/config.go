package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Store    StoreConfig
	SMTP     SMTPConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ProviderConfig selects and configures the model backend.
// Name is one of "gemini", "openai" or "noop".
type ProviderConfig struct {
	Name         string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	Timeout      time.Duration
}

type StoreConfig struct {
	UseMemory bool
	ProjectID string
	// CredentialsFile optionally points at a service-account JSON key;
	// empty means application default credentials.
	CredentialsFile string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		Provider: ProviderConfig{
			Name:         getEnv("MODEL_PROVIDER", "gemini"),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", ""),
			Timeout:      getEnvAsDuration("MODEL_TIMEOUT", 90*time.Second),
		},
		Store: StoreConfig{
			UseMemory:       getEnvAsBool("USE_MEMORY_STORE", false),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}

	switch cfg.Provider.Name {
	case "gemini":
		if cfg.Provider.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when MODEL_PROVIDER=gemini")
		}
	case "openai":
		if cfg.Provider.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when MODEL_PROVIDER=openai")
		}
	case "noop":
	default:
		return nil, fmt.Errorf("unknown MODEL_PROVIDER %q", cfg.Provider.Name)
	}

	if !cfg.Store.UseMemory && cfg.Store.ProjectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT is required unless USE_MEMORY_STORE=true")
	}

	return cfg, nil
}

// MailEnabled reports whether an SMTP sender can be constructed.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
