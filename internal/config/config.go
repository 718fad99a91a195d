// 환경변수 기반 설정 로딩
//
// .env 파일이 있으면 먼저 읽고 (godotenv), 이후 실제 환경변수가 우선합니다.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrMisconfigured = errors.New("config invalid")

type Config struct {
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Google   GoogleConfig
}

type HTTPConfig struct {
	Port         string   `env:"PORT" envDefault:"8080"`
	APIPrefix    string   `env:"API_PREFIX" envDefault:"/api/v1"`
	FrontendHost string   `env:"FRONTEND_HOST" envDefault:"http://localhost:5173"`
	CORSOrigins  []string `env:"CORS_ORIGINS" envSeparator:","`
	RateLimitRPS float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" envDefault:"localhost"`
	Port        string `env:"PGPORT" envDefault:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" envDefault:"disable"`
}

type AuthConfig struct {
	SecretKey              string        `env:"SECRET_KEY"`
	AccessTokenTTL         time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"192h"`
	ResetTokenTTL          time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	BcryptCost             int           `env:"BCRYPT_COST" envDefault:"10"`
	AllowSignup            bool          `env:"ALLOW_SIGNUP" envDefault:"true"`
	FirstSuperuser         string        `env:"FIRST_SUPERUSER"`
	FirstSuperuserPassword string        `env:"FIRST_SUPERUSER_PASSWORD"`
}

type SMTPConfig struct {
	Host        string        `env:"SMTP_HOST"`
	Port        int           `env:"SMTP_PORT" envDefault:"587"`
	User        string        `env:"SMTP_USER"`
	Password    string        `env:"SMTP_PASSWORD"`
	TLS         bool          `env:"SMTP_TLS" envDefault:"true"`
	Timeout     time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	FromEmail   string        `env:"EMAILS_FROM_EMAIL"`
	FromName    string        `env:"EMAILS_FROM_NAME"`
	ProjectName string        `env:"PROJECT_NAME" envDefault:"Accounts"`
}

// EmailsEnabled reports whether outgoing mail is configured.
func (c SMTPConfig) EmailsEnabled() bool {
	return c.Host != "" && c.FromEmail != ""
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `env:"GOOGLE_REDIRECT_URI"`
	Issuer       string `env:"GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
}

func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	// .env 가 없으면 무시 (컨테이너 환경에서는 실제 환경변수만 사용)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.HTTP.CORSOrigins = trimCSV(cfg.HTTP.CORSOrigins)
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		return fmt.Errorf("%w: SECRET_KEY is required", ErrMisconfigured)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("%w: ACCESS_TOKEN_TTL must be positive", ErrMisconfigured)
	}
	if c.Auth.ResetTokenTTL <= 0 {
		return fmt.Errorf("%w: RESET_TOKEN_TTL must be positive", ErrMisconfigured)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("%w: BCRYPT_COST must be between 4 and 31", ErrMisconfigured)
	}
	if c.Google.ClientID != "" && c.Google.RedirectURI == "" {
		return fmt.Errorf("%w: GOOGLE_REDIRECT_URI is required with GOOGLE_CLIENT_ID", ErrMisconfigured)
	}
	return nil
}

func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
