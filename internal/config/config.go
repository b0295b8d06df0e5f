package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret    []byte
	JWTRefreshSecret   []byte
	JWTTemporarySecret []byte

	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	TemporaryTokenTTL time.Duration
	LoginCodeTTL      time.Duration

	FrontendURL string

	KafkaBrokers  []string
	NotifyTopic   string
	NotifyAsync   bool
	NotifyTimeout time.Duration

	ConcealUnknownAccounts bool
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return Load()
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "identity"),
		ServerPort:  EnvIntDefault("PORT", 5002),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: databaseURL(),

		JWTAccessSecret:    []byte(os.Getenv("JWT_ACCESS_SECRET")),
		JWTRefreshSecret:   []byte(os.Getenv("JWT_REFRESH_SECRET_KEY")),
		JWTTemporarySecret: []byte(os.Getenv("JWT_TEMPORARY_SECRET")),

		AccessTokenTTL:    EnvDurationDefault("ACCESS_TOKEN_TTL", 20*time.Minute),
		RefreshTokenTTL:   EnvDurationDefault("REFRESH_TOKEN_TTL", 48*time.Hour),
		TemporaryTokenTTL: EnvDurationDefault("TEMPORARY_TOKEN_TTL", 10*time.Minute),
		LoginCodeTTL:      EnvDurationDefault("LOGIN_CODE_TTL", 5*time.Minute),

		FrontendURL: os.Getenv("FRONTEND_URL"),

		KafkaBrokers:  CSV(os.Getenv("KAFKA_BROKERS")),
		NotifyTopic:   EnvDefault("NOTIFY_TOPIC", "notification_events"),
		NotifyAsync:   EnvBoolDefault("NOTIFY_ASYNC", false),
		NotifyTimeout: EnvDurationDefault("NOTIFY_TIMEOUT", 5*time.Second),

		ConcealUnknownAccounts: EnvBoolDefault("CONCEAL_UNKNOWN_ACCOUNTS", true),
	}
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from DB_* parts.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + EnvDefault("DB_PORT", "5432"),
		Path:     "/" + os.Getenv("DB_DATABASE"),
		RawQuery: "sslmode=" + EnvDefault("DB_SSLMODE", "disable"),
	}
	return u.String()
}

// Validate reports every missing or inconsistent value at once.
func (c Config) Validate() error {
	var errs []error
	require := func(ok bool, name string) {
		if !ok {
			errs = append(errs, fmt.Errorf("missing required env %s", name))
		}
	}
	require(c.DatabaseURL != "", "DATABASE_URL (or DB_HOST)")
	require(len(c.JWTAccessSecret) > 0, "JWT_ACCESS_SECRET")
	require(len(c.JWTRefreshSecret) > 0, "JWT_REFRESH_SECRET_KEY")
	require(len(c.JWTTemporarySecret) > 0, "JWT_TEMPORARY_SECRET")
	require(c.FrontendURL != "", "FRONTEND_URL")

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.ServerPort))
	}
	if c.FrontendURL != "" {
		if u, err := url.Parse(c.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("FRONTEND_URL %q is not an absolute URL", c.FrontendURL))
		}
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
