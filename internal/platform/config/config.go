package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Environment selects production-only behaviour such as Secure cookies.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
	EnvTesting     Environment = "testing"
)

const (
	devJWTSecret  = "dev-secret-key-change-in-production"
	devAdminToken = "dev-admin-token"
)

// Server is the process configuration. It is built once in main and passed to
// the components that need it.
type Server struct {
	AppName     string      `env:"APP_NAME" envDefault:"portcullis"`
	Addr        string      `env:"PORTCULLIS_ADDR" envDefault:":8080"`
	Environment Environment `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string      `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL     string      `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	AdminToken  string      `env:"ADMIN_API_TOKEN" envDefault:"dev-admin-token"`

	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Mail     MailConfig

	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"15m"`
}

// DatabaseConfig configures the Postgres pool. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL          string        `env:"DATABASE_URL"`
	MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnTimeout  time.Duration `env:"DATABASE_CONN_TIMEOUT" envDefault:"30s"`
	TxTimeout    time.Duration `env:"DATABASE_TX_TIMEOUT" envDefault:"5s"`
}

type AuthConfig struct {
	JWTSecret                     string        `env:"JWT_SECRET" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer                     string        `env:"JWT_ISSUER" envDefault:"portcullis"`
	SessionTTL                    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	AccessTokenTTL                time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"168h"`
	EmailVerificationTTL          time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"1h"`
	PasswordResetTTL              time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"30m"`
	RevokeSessionsOnPasswordReset bool          `env:"REVOKE_SESSIONS_ON_PASSWORD_RESET" envDefault:"false"`
	SessionCookieName             string        `env:"SESSION_COOKIE_NAME" envDefault:"session_token"`
	// CallbackOrigins are accepted for callback_url in addition to the APP_BASE_URL origin.
	CallbackOrigins               []string      `env:"AUTH_CALLBACK_ORIGINS" envSeparator:","`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type KafkaConfig struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"auth.audit"`
}

// MailConfig selects the SMTP sender when Host is set; otherwise mail is logged.
type MailConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"MAIL_FROM" envDefault:"Portcullis <no-reply@portcullis.local>"`
}

// FromEnv loads an optional .env file and parses the environment.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

// Validate rejects development secrets in production and nonsensical TTLs.
func (s Server) Validate() error {
	switch s.Environment {
	case EnvDevelopment, EnvProduction, EnvTesting:
	default:
		return fmt.Errorf("unknown environment %q", s.Environment)
	}
	if s.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if s.IsProduction() {
		if s.Auth.JWTSecret == devJWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if s.AdminToken == devAdminToken {
			return errors.New("ADMIN_API_TOKEN must be set in production")
		}
	}
	if s.Auth.SessionTTL <= 0 || s.Auth.AccessTokenTTL <= 0 {
		return errors.New("session and access token TTLs must be positive")
	}
	if s.Auth.EmailVerificationTTL <= 0 || s.Auth.PasswordResetTTL <= 0 {
		return errors.New("verification TTLs must be positive")
	}
	return nil
}
