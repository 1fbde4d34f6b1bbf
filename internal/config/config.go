package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	API      APIConfig
	Session  SessionConfig
	Notify   NotifyConfig
	Billing  BillingConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

// APIConfig points at the upstream REST collaborator.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	CookieName     string
	CookieSecure   bool
	RestoreTimeout time.Duration
	TTL            time.Duration
	SweepInterval  time.Duration
}

// NotifyConfig configures the upstream event stream. An empty StreamURL
// disables it.
type NotifyConfig struct {
	StreamURL   string
	StreamToken string
	RecentSize  int
}

type BillingConfig struct {
	TaxRate float64
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "autoshop")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "autoshop")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("SESSION_COOKIE_NAME", "autoshop_client")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("RESTORE_TIMEOUT", "10s")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "5m")
	v.SetDefault("NOTIFY_STREAM_URL", "")
	v.SetDefault("NOTIFY_STREAM_TOKEN", "")
	v.SetDefault("NOTIFY_RECENT_SIZE", 50)
	v.SetDefault("BILLING_TAX_RATE", 8)

	durations := map[string]time.Duration{}
	for _, key := range []string{"DB_CONN_MAX_LIFETIME", "API_TIMEOUT", "RESTORE_TIMEOUT", "SESSION_TTL", "SESSION_SWEEP_INTERVAL"} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	taxRate := v.GetFloat64("BILLING_TAX_RATE")
	if taxRate < 0 {
		return nil, fmt.Errorf("BILLING_TAX_RATE must be non-negative, got %v", taxRate)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		API: APIConfig{
			BaseURL: v.GetString("API_BASE_URL"),
			Timeout: durations["API_TIMEOUT"],
		},
		Session: SessionConfig{
			CookieName:     v.GetString("SESSION_COOKIE_NAME"),
			CookieSecure:   v.GetBool("SESSION_COOKIE_SECURE"),
			RestoreTimeout: durations["RESTORE_TIMEOUT"],
			TTL:            durations["SESSION_TTL"],
			SweepInterval:  durations["SESSION_SWEEP_INTERVAL"],
		},
		Notify: NotifyConfig{
			StreamURL:   v.GetString("NOTIFY_STREAM_URL"),
			StreamToken: v.GetString("NOTIFY_STREAM_TOKEN"),
			RecentSize:  v.GetInt("NOTIFY_RECENT_SIZE"),
		},
		Billing: BillingConfig{
			TaxRate: taxRate,
		},
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
