package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Snapshot and question-bank backend names.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// App holds core runtime configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quizzer"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	// DefaultQuizCode is the session every code-less admin call operates on.
	DefaultQuizCode string `env:"DEFAULT_QUIZ_CODE" envDefault:"GLOBAL"`

	Security Security
	Storage  Storage
	Redis    Redis
	Postgres Postgres
	CORS     CORS
}

// Security stores secrets for admin authentication.
type Security struct {
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH,notEmpty"`
	JWTSecret         string        `env:"JWT_SECRET,notEmpty"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`
}

// Storage selects persistence backends.
type Storage struct {
	SnapshotBackend string `env:"SNAPSHOT_BACKEND" envDefault:"file"` // file | redis
	BankBackend     string `env:"BANK_BACKEND" envDefault:"file"`     // file | postgres
	DataDir         string `env:"QUIZ_DATA_DIR" envDefault:"./data"`
}

// Redis holds connection info for the redis snapshot backend.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Postgres holds connection info for the postgres question-bank backend.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// ConnString builds a pgx connection string.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
