package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string
	// CIDRs whose X-Forwarded-For header is honored
	TrustedProxies []string

	// Backend selection
	DataBackend   string
	SQLiteDBPath  string
	MemorySeedDir string

	// AMQP (optional; empty URL disables events and alerts)
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string
	AMQPAlertQueue string

	// Workers
	AlertInterval  time.Duration
	ExportInterval time.Duration

	// Trend chart
	TrendWindow int

	// Receipt extraction
	OCREnabled  bool
	OCRLanguage string
	OCRTimeout  time.Duration

	// Google Sheets report export
	GoogleSpreadsheetID     string
	GoogleReportSheetPrefix string

	LogLevel string
}

var (
	validBackends  = []string{"memory", "sqlite"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/pagotrack.db"),
		MemorySeedDir: getEnv("MEMORY_SEED_DIR", "data"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "pagotrack"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "payment_events"),
		AMQPAlertQueue: getEnv("AMQP_ALERT_QUEUE", "missed_payments"),

		AlertInterval:  getEnvDuration("ALERT_INTERVAL", time.Hour),
		ExportInterval: getEnvDuration("EXPORT_INTERVAL", 10*time.Second),

		TrendWindow: getEnvInt("TREND_WINDOW", 4),

		OCREnabled:  getEnvBool("OCR_ENABLED", false),
		OCRLanguage: getEnv("OCR_LANGUAGE", "spa"),
		OCRTimeout:  getEnvDuration("OCR_TIMEOUT", 20*time.Second),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheetPrefix: getEnv("GOOGLE_REPORT_SHEET_PREFIX", "Reporte"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPAlertQueue == "" {
			errors = append(errors, "AMQP alert queue name cannot be empty when AMQP URL is provided")
		}
	}

	errors = append(errors, checkInterval("alert", c.AlertInterval)...)
	errors = append(errors, checkInterval("export", c.ExportInterval)...)

	if c.TrendWindow < 1 || c.TrendWindow > 24 {
		errors = append(errors, fmt.Sprintf("invalid trend window %d: must be between 1 and 24", c.TrendWindow))
	}

	if c.OCREnabled {
		if c.OCRLanguage == "" {
			errors = append(errors, "OCR language cannot be empty when OCR is enabled")
		}
		if c.OCRTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid OCR timeout %v: must be positive", c.OCRTimeout))
		}
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether report export to Google Sheets is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func checkInterval(name string, d time.Duration) []string {
	switch {
	case d < time.Second:
		return []string{fmt.Sprintf("invalid %s interval %v: must be at least 1 second", name, d)}
	case d > 24*time.Hour:
		return []string{fmt.Sprintf("invalid %s interval %v: must be at most 24 hours", name, d)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
