package config

import (
	"os"
	"strconv"
	"time"

	"saggita/internal/cache"
	"saggita/internal/database"
	"saggita/internal/external"
	"saggita/internal/messaging"
	"saggita/internal/search"
)

// Config holds the application configuration
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	// Season scoping for roster metrics. Data before SeasonStart is excluded
	// from "current season" counts but stays queryable as all-time history.
	SeasonStart time.Time

	// Overdue heuristic thresholds. The defaults are inherited business
	// rules; change them in config, not in queries.
	OverdueTrainingWindowDays int
	OverduePaymentDays        int

	Database database.Config
	NATS     messaging.Config
	Mailer   external.MailerConfig
	Search   search.Config
	Cache    cache.Config
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SeasonStart:               getEnvDate("SEASON_START", "2025-09-01"),
		OverdueTrainingWindowDays: getEnvInt("OVERDUE_TRAINING_WINDOW_DAYS", 60),
		OverduePaymentDays:        getEnvInt("OVERDUE_PAYMENT_DAYS", 35),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "saggita"),
			Password:           getEnv("DB_PASSWORD", "saggita"),
			DBName:             getEnv("DB_NAME", "saggita"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "saggita"),
			ClientID:  getEnv("NATS_CLIENT_ID", "saggita-api"),
		},

		Mailer: external.MailerConfig{
			APIKey:      getEnv("RESEND_API_KEY", ""),
			From:        getEnv("MAIL_FROM", "Akademia Obrony Saggita <biuro@akademiaobrony.pl>"),
			AdminEmail:  getEnv("ADMIN_EMAIL", "biuro@akademiaobrony.pl"),
			BankAccount: getEnv("BANK_ACCOUNT", "PL00 0000 0000 0000 0000 0000 0000"),
			BankName:    getEnv("BANK_NAME", "Akademia Obrony Saggita"),
		},

		Search: search.Config{
			Enabled:    getEnv("ELASTICSEARCH_ENABLED", "false") == "true",
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "students"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Cache: cache.Config{
			Enabled:       getEnv("VALKEY_ENABLED", "false") == "true",
			Addr:          getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:      getEnv("VALKEY_PASSWORD", ""),
			CatalogTTLSec: getEnvInt("VALKEY_CATALOG_TTL_SEC", 30),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDate(key, defaultValue string) time.Time {
	raw := getEnv(key, defaultValue)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t, _ = time.Parse("2006-01-02", defaultValue)
	}
	return t
}
