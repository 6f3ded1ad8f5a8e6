package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":8180"
	defaultAppLogPath  = "logs/markbook.log"

	defaultAuthMode = "credentials"

	defaultFetchTimeoutSeconds = 30
	defaultCacheTTLMinutes     = 10
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Auth.applyDefaults(keys)
	c.Workbook.applyDefaults(keys)
	c.Vocabulary.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
	a.Env = strings.ToLower(strings.TrimSpace(a.Env))
	a.LogLevel = strings.ToLower(strings.TrimSpace(a.LogLevel))
}

func (a *AuthConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("auth.mode", &a.Mode, defaultAuthMode),
	)
	a.Mode = strings.ToLower(strings.TrimSpace(a.Mode))
}

func (w *WorkbookConfig) applyDefaults(keys keySet) {
	if w == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "workbook.fetch_timeout_seconds",
			need:  func() bool { return w.FetchTimeoutSeconds == 0 },
			apply: func() { w.FetchTimeoutSeconds = defaultFetchTimeoutSeconds },
		},
		fieldDefault{
			key:   "workbook.cache_ttl_minutes",
			need:  func() bool { return w.CacheTTLMinutes == 0 },
			apply: func() { w.CacheTTLMinutes = defaultCacheTTLMinutes },
		},
	)
	w.Path = strings.TrimSpace(w.Path)
	w.URL = strings.TrimSpace(w.URL)
}

func (v *VocabularyConfig) applyDefaults(keys keySet) {
	if v == nil {
		return
	}
	v.Path = strings.TrimSpace(v.Path)
}
