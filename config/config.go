package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPHost string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	GRPCHost string `envconfig:"GRPC_HOST" default:"0.0.0.0"`
	GRPCPort string `envconfig:"GRPC_PORT" default:"9090"`

	MySQLDSN     string        `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/mailings?parseTime=true"`
	MySQLMaxOpen int           `envconfig:"MYSQL_MAX_OPEN" default:"10"`
	MySQLMaxIdle int           `envconfig:"MYSQL_MAX_IDLE" default:"5"`
	MySQLMaxLife time.Duration `envconfig:"MYSQL_MAX_LIFE" default:"5m"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// LockBackend selects the dispatch lock implementation: redis or mysql.
	LockBackend string        `envconfig:"LOCK_BACKEND" default:"redis"`
	LockTTL     time.Duration `envconfig:"LOCK_TTL" default:"5m"`

	EmailProvider string `envconfig:"EMAIL_PROVIDER" default:"noop"`
	SenderEmail   string `envconfig:"SENDER_EMAIL" default:"no-reply@example.com"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"eu-central-1"`
	SMTPAddr      string `envconfig:"SMTP_ADDR" default:"localhost:25"`
	SMTPUsername  string `envconfig:"SMTP_USERNAME"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
	SMTPStartTLS  bool   `envconfig:"SMTP_STARTTLS" default:"true"`

	SchedulerInterval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"1m"`
	SchedulerBatch    int           `envconfig:"SCHEDULER_BATCH" default:"100"`
	ClaimTTL          time.Duration `envconfig:"CLAIM_TTL" default:"15m"`
	SendRate          float64       `envconfig:"SEND_RATE" default:"10"`
	SendBurst         int           `envconfig:"SEND_BURST" default:"5"`
	SendTimeout       time.Duration `envconfig:"SEND_TIMEOUT" default:"30s"`

	StatsTTL time.Duration `envconfig:"STATS_TTL" default:"60s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads an optional .env file and binds the environment into Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be > 0")
	}
	if c.SchedulerBatch <= 0 {
		return fmt.Errorf("SCHEDULER_BATCH must be > 0")
	}
	if c.SendRate <= 0 || c.SendBurst <= 0 {
		return fmt.Errorf("SEND_RATE and SEND_BURST must be > 0")
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("SEND_TIMEOUT must be > 0")
	}
	if c.LockTTL <= 0 || c.ClaimTTL <= 0 {
		return fmt.Errorf("LOCK_TTL and CLAIM_TTL must be > 0")
	}
	switch strings.ToLower(c.LockBackend) {
	case "redis", "mysql":
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND: %s", c.LockBackend)
	}
	return nil
}
