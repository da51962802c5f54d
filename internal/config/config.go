package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Backend  BackendConfig
	Session  SessionConfig
	Gate     GateConfig
	Reports  ReportsConfig
	Email    EmailConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port            string
	Env             string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	TrustedProxies  []string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Secret         string
	TTL            time.Duration
	Store          string
	CookieSecure   bool
	CookieSameSite string
}

type GateConfig struct {
	MaxFailures     int
	LockoutDuration time.Duration
	IdleTTL         time.Duration
	DelayBaseMs     int
	DelayRandomMs   int
}

type ReportsConfig struct {
	Location       *time.Location
	ExcludedFields []string
}

// EmailConfig is optional. Delivery is disabled when From is empty.
type EmailConfig struct {
	Region string
	From   string
}

// Enabled reports whether report e-mail delivery is configured
func (c EmailConfig) Enabled() bool {
	return c.From != ""
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := getEnv("SESSION_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	env := getEnv("ENV", "development")

	loc, err := time.LoadLocation(getEnv("REPORT_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "console"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             env,
			AllowedOrigins:  parseAllowedOrigins(env),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
			TrustedProxies:  splitList(getEnv("TRUSTED_PROXIES", "")),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:5000"), "/"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			Secret:         secret,
			TTL:            getEnvAsDuration("SESSION_TTL", 8*time.Hour),
			Store:          strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
			CookieSecure:   getEnvAsBool("COOKIE_SECURE", env == "production"),
			CookieSameSite: getEnv("COOKIE_SAMESITE", "Lax"),
		},
		Gate: GateConfig{
			MaxFailures:     getEnvAsInt("LOGIN_MAX_FAILURES", 3),
			LockoutDuration: getEnvAsDuration("LOGIN_LOCKOUT_DURATION", 15*time.Minute),
			IdleTTL:         getEnvAsDuration("GATE_IDLE_TTL", 24*time.Hour),
			DelayBaseMs:     getEnvAsInt("LOGIN_DELAY_BASE_MS", 100),
			DelayRandomMs:   getEnvAsInt("LOGIN_DELAY_RANDOM_MS", 50),
		},
		Reports: ReportsConfig{
			Location:       loc,
			ExcludedFields: splitList(getEnv("EXPORT_EXCLUDED_FIELDS", "probabilidad,id,fecha_creacion")),
		},
		Email: EmailConfig{
			Region: getEnv("AWS_REGION", "us-east-1"),
			From:   getEnv("REPORT_EMAIL_FROM", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := validateSessionSecret(secret, env); err != nil {
		return nil, err
	}

	switch cfg.Session.Store {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required when SESSION_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("SESSION_STORE must be %q or %q (got %q)",
			SessionStoreMemory, SessionStorePostgres, cfg.Session.Store)
	}

	if cfg.Gate.MaxFailures < 1 {
		return nil, fmt.Errorf("LOGIN_MAX_FAILURES must be at least 1")
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum strength for the cookie signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitList(getEnv("ALLOWED_ORIGINS", ""))
	}

	if origins := splitList(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 {
		return origins
	}

	// Development: the React dev servers
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
