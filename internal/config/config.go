package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"invoicedesk"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"invoicedesk"`
	}

	Server struct {
		ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
		WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	}

	Gemini struct {
		APIKey         string        `envconfig:"GEMINI_API_KEY"`
		Model          string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-lite"`
		EmbeddingModel string        `envconfig:"GEMINI_EMBEDDING_MODEL" default:"text-embedding-004"`
		Timeout        time.Duration `envconfig:"GEMINI_TIMEOUT" default:"30s"`
	}

	Session struct {
		TTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	}

	Retry struct {
		MaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
		BaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"2s"`
	}

	GCS struct {
		Bucket string `envconfig:"GCS_BUCKET"`
		Prefix string `envconfig:"GCS_PREFIX" default:"invoices"`
	}

	BigQuery struct {
		ProjectID string `envconfig:"BQ_PROJECT_ID"`
		Dataset   string `envconfig:"BQ_DATASET" default:"invoicedesk_analytics"`
		Table     string `envconfig:"BQ_TABLE" default:"monthly_spending"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; a missing file is fine.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
