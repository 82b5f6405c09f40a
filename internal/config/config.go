package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WRAPPED"

// StdinPath as a source path reads CSV from standard input.
const StdinPath = "-"

type Config struct {
	// Intake
	SourceType  string `envconfig:"SOURCE_TYPE" validate:"omitempty,oneof=csv xlsx sheets sqlite"`
	SourcePath  string `envconfig:"SOURCE_PATH"`
	XLSXSheet   string `envconfig:"XLSX_SHEET"`
	SQLiteTable string `envconfig:"SQLITE_TABLE" default:"orders" validate:"required"`

	// Google Sheets
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `envconfig:"GOOGLE_SHEET_NAME" default:"Orders"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Calendar and display
	Timezone string `envconfig:"TIMEZONE" default:"Local" validate:"required"`
	Currency string `envconfig:"CURRENCY" default:"USD" validate:"required,len=3,alpha"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// AMQP publishing of computed recaps (optional)
	AMQPURL        string `envconfig:"AMQP_URL"`
	AMQPExchange   string `envconfig:"AMQP_EXCHANGE" default:"wrapped"`
	AMQPRoutingKey string `envconfig:"AMQP_ROUTING_KEY" default:"recaps"`
	// Messages per second when publishing every recap; 0 disables throttling.
	AMQPPublishRate float64 `envconfig:"AMQP_PUBLISH_RATE" default:"10" validate:"gte=0"`

	// Recap cache
	CacheSize int           `envconfig:"CACHE_SIZE" default:"32" validate:"min=1,max=1024"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"10m"`
}

// Load reads the configuration from WRAPPED_* environment variables,
// applying defaults for unset keys.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, describe(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	// Source-specific settings
	switch c.SourceType {
	case "csv", "xlsx", "sqlite":
		if c.SourcePath == "" {
			problems = append(problems, fmt.Sprintf("source path is required for %s source", c.SourceType))
		} else if c.SourcePath == StdinPath && c.SourceType != "csv" {
			problems = append(problems, fmt.Sprintf("standard input is only supported for csv source, not %s", c.SourceType))
		} else if _, err := os.Stat(c.SourcePath); err != nil && c.SourcePath != StdinPath {
			problems = append(problems, fmt.Sprintf("source file does not exist: %s", c.SourcePath))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			problems = append(problems, "Google Spreadsheet ID is required when using sheets source")
		}
		if c.GoogleSheetName == "" {
			problems = append(problems, "Google Sheet name is required when using sheets source")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets source")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				problems = append(problems, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			problems = append(problems, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// describe turns a struct tag violation into a readable message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "min", "max", "gte":
		return fmt.Sprintf("invalid %s %v: %s is %s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	case "len", "alpha":
		return fmt.Sprintf("invalid %s '%v': must be a 3-letter ISO 4217 code", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("invalid %s '%v' (%s)", fe.Field(), fe.Value(), fe.Tag())
	}
}
