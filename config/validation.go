package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("found %d configuration error(s):\n", len(errs)))
	for i, err := range errs {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Message))
	}
	return b.String()
}

// Validate validates the complete configuration
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateTelegram()...)
	errs = append(errs, c.validateCatalog()...)
	errs = append(errs, c.validateRender()...)
	errs = append(errs, c.validateLog()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateTelegram() ValidationErrors {
	var errs ValidationErrors

	if c.Telegram.Token == "" {
		errs = append(errs, ValidationError{
			Field:   "telegram.token",
			Message: "telegram token is required (config file or PLUBOT_TELEGRAM_TOKEN)",
		})
	}
	if c.Telegram.PollTimeoutSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "telegram.poll_timeout_seconds",
			Message: fmt.Sprintf("poll timeout must not be negative, got %d", c.Telegram.PollTimeoutSeconds),
		})
	}
	return errs
}

func (c *Config) validateCatalog() ValidationErrors {
	var errs ValidationErrors

	if c.Catalog.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "catalog.path",
			Message: "catalog path is required",
		})
	} else {
		switch strings.ToLower(filepath.Ext(c.Catalog.Path)) {
		case ".csv", ".xlsx", ".xlsm":
		default:
			errs = append(errs, ValidationError{
				Field:   "catalog.path",
				Message: fmt.Sprintf("unsupported catalog format %q (want .csv, .xlsx or .xlsm)", filepath.Ext(c.Catalog.Path)),
			})
		}
	}
	if c.Catalog.ValiditySeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "catalog.validity_seconds",
			Message: fmt.Sprintf("validity window must not be negative, got %d", c.Catalog.ValiditySeconds),
		})
	}
	return errs
}

func (c *Config) validateRender() ValidationErrors {
	var errs ValidationErrors

	if c.Render.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "render.dir",
			Message: "render artifact directory is required",
		})
	}
	if c.Render.MemoryCacheSize < 0 {
		errs = append(errs, ValidationError{
			Field:   "render.memory_cache_size",
			Message: fmt.Sprintf("memory cache size must not be negative, got %d", c.Render.MemoryCacheSize),
		})
	}
	return errs
}

func (c *Config) validateLog() ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level %q", c.Log.Level),
		})
	}
	return errs
}
