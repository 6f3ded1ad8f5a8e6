package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Auth.validate(); err != nil {
		return err
	}
	if err := c.Workbook.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch a.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug|info|warn|error, got %q", a.LogLevel)
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr must not be empty")
	}
	return nil
}

func (a *AuthConfig) validate() error {
	switch a.Mode {
	case "credentials", "shared", "open":
	default:
		return fmt.Errorf("auth.mode must be one of credentials|shared|open, got %q", a.Mode)
	}
	if a.Mode == "shared" && strings.TrimSpace(a.SharedCode) == "" {
		return fmt.Errorf("auth.mode=shared requires auth.shared_code")
	}
	return nil
}

func (w *WorkbookConfig) validate() error {
	if w.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("workbook.fetch_timeout_seconds must be > 0, got %d", w.FetchTimeoutSeconds)
	}
	if w.CacheTTLMinutes <= 0 {
		return fmt.Errorf("workbook.cache_ttl_minutes must be > 0, got %d", w.CacheTTLMinutes)
	}
	if w.Path != "" && w.URL != "" {
		return fmt.Errorf("workbook.path and workbook.url are mutually exclusive")
	}
	if w.Watch && w.Path == "" {
		return fmt.Errorf("workbook.watch requires workbook.path")
	}
	return nil
}
