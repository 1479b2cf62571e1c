package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds every setting the server, worker and CLIs read from the environment.
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	AppURL   string `env:"APP_URL" envDefault:"http://localhost:8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	Firebase  FirebaseConfig  `envPrefix:"FIREBASE_"`
	Midtrans  MidtransConfig  `envPrefix:"MIDTRANS_"`
	Turnstile TurnstileConfig `envPrefix:"TURNSTILE_"`
	SMTP      SMTPConfig      `envPrefix:"SMTP_"`
	Waha      WahaConfig      `envPrefix:"WAHA_"`
	Storage   StorageConfig   `envPrefix:"S3_"`

	DonationRateLimitPerMinute int `env:"DONATION_RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	PendingDonationTTLHours    int `env:"PENDING_DONATION_TTL_HOURS" envDefault:"24"`
}

type FirebaseConfig struct {
	CredentialsPath string `env:"CREDENTIALS_PATH" envDefault:"./firebase-service-account.json"`
	APIKey          string `env:"API_KEY"`
	AuthDomain      string `env:"AUTH_DOMAIN"`
	ProjectID       string `env:"PROJECT_ID"`
}

type MidtransConfig struct {
	ServerKey    string `env:"SERVER_KEY"`
	ClientKey    string `env:"CLIENT_KEY"`
	IsProduction bool   `env:"IS_PRODUCTION" envDefault:"false"`
}

// Enabled reports whether a server key is present.
func (m MidtransConfig) Enabled() bool {
	return strings.TrimSpace(m.ServerKey) != ""
}

type TurnstileConfig struct {
	SiteKey   string `env:"SITE_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

// Enabled reports whether the challenge widget should be rendered and verified.
func (t TurnstileConfig) Enabled() bool {
	return strings.TrimSpace(t.SiteKey) != "" && strings.TrimSpace(t.SecretKey) != ""
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASS"`
	From     string `env:"FROM" envDefault:"IARK <no-reply@iark.or.id>"`
}

type WahaConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://waha:3000"`
	APIKey  string `env:"API_KEY"`
	Session string `env:"SESSION" envDefault:"default"`
}

type StorageConfig struct {
	Bucket        string `env:"BUCKET"`
	Region        string `env:"REGION" envDefault:"ap-southeast-1"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and parses the environment into Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	cfg.AppURL = strings.TrimSuffix(cfg.AppURL, "/")
	return cfg, nil
}

// SetupLogger configures the global logrus logger from the config.
func SetupLogger(cfg Config) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
