package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // containers often ship without zoneinfo

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TargetURL       string
	WindowDays      int
	IntervalMinutes int
	StateFile       string
	NotifyPolicy    string
	// ForgetPastState drops a stored date once it lies before today.
	ForgetPastState bool
	Location        *time.Location

	SMTP    SMTPConfig
	Browser BrowserConfig

	LogLevel      string
	Environment   string
	DatabaseURL   string // optional cycle history
	StatusAddr    string // optional status endpoint, e.g. ":8081"
	HeartbeatCron string // optional, e.g. "0 9 * * *"

	Flow *Flow
}

// SMTPConfig is the mail transport. Host and port default to Gmail's
// submission endpoint.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// Complete reports whether everything needed to send is present.
func (c SMTPConfig) Complete() bool {
	return c.Host != "" && c.Port > 0 && c.User != "" && c.Password != "" && c.To != ""
}

// BrowserConfig controls the Chrome session used for each cycle.
type BrowserConfig struct {
	Headless   bool
	RemoteURL  string
	NavTimeout time.Duration
	SlowMotion time.Duration
	UserAgent  string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	flow, err := LoadFlow(os.Getenv("FLOW_CONFIG"))
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{Flow: flow}

	cfg.TargetURL = getEnv("TARGET_URL", flow.TargetURL)
	if cfg.TargetURL == "" {
		return nil, fmt.Errorf("TARGET_URL is not set")
	}

	if cfg.WindowDays, err = getInt("WINDOW_DAYS", 12); err != nil {
		return nil, err
	}
	if cfg.WindowDays < 0 {
		return nil, fmt.Errorf("WINDOW_DAYS must not be negative, got %d", cfg.WindowDays)
	}

	if cfg.IntervalMinutes, err = getInt("CHECK_INTERVAL_MINUTES", 12); err != nil {
		return nil, err
	}
	if cfg.IntervalMinutes < 1 {
		return nil, fmt.Errorf("CHECK_INTERVAL_MINUTES must be at least 1, got %d", cfg.IntervalMinutes)
	}

	cfg.StateFile = getEnv("STATE_FILE", ".state_earliest.txt")
	cfg.NotifyPolicy = strings.ToLower(getEnv("NOTIFY_POLICY", "earlier"))
	if cfg.ForgetPastState, err = getBool("FORGET_PAST_STATE", true); err != nil {
		return nil, err
	}

	tz := getEnv("TIMEZONE", "Europe/Berlin")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cfg.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		To:       os.Getenv("MAIL_TO"),
	}
	if cfg.SMTP.Port, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.From = getEnv("MAIL_FROM", cfg.SMTP.User)

	cfg.Browser = BrowserConfig{
		RemoteURL: os.Getenv("BROWSER_URL"),
		UserAgent: getEnv("USER_AGENT", defaultUserAgent),
	}
	if cfg.Browser.Headless, err = getBool("HEADLESS", true); err != nil {
		return nil, err
	}
	navTimeout, err := getInt("NAV_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	cfg.Browser.NavTimeout = time.Duration(navTimeout) * time.Second
	slowMo, err := getInt("SLOW_MO_MS", 0)
	if err != nil {
		return nil, err
	}
	cfg.Browser.SlowMotion = time.Duration(slowMo) * time.Millisecond

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.StatusAddr = os.Getenv("STATUS_ADDR")
	cfg.HeartbeatCron = os.Getenv("HEARTBEAT_CRON")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
