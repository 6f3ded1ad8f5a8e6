package config

import (
	"strings"
	"time"
)

// Config is the root configuration for markbook.
type Config struct {
	App        AppConfig        `toml:"app"`
	Auth       AuthConfig       `toml:"auth"`
	Workbook   WorkbookConfig   `toml:"workbook"`
	Vocabulary VocabularyConfig `toml:"vocabulary"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Env      string `toml:"env"`       // dev | prod
	LogLevel string `toml:"log_level"` // debug | info | warn | error
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// AuthConfig selects how students authenticate. Mode "credentials" checks
// the workbook's credentials sheet, "shared" checks a single configured
// code, "open" accepts any student id.
type AuthConfig struct {
	Mode          string `toml:"mode"`
	SharedCode    string `toml:"shared_code"`
	RequireSecret bool   `toml:"require_secret"`
}

// WorkbookConfig describes where the workbook comes from at startup. Path
// and URL may both be empty, in which case the service starts without data
// and waits for an upload.
type WorkbookConfig struct {
	Path                string `toml:"path"`
	URL                 string `toml:"url"`
	Watch               bool   `toml:"watch"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	CacheTTLMinutes     int    `toml:"cache_ttl_minutes"`
}

// FetchTimeout returns the workbook download timeout as a duration.
func (w WorkbookConfig) FetchTimeout() time.Duration {
	return time.Duration(w.FetchTimeoutSeconds) * time.Second
}

// CacheTTL returns the normalize-cache lifetime as a duration.
func (w WorkbookConfig) CacheTTL() time.Duration {
	return time.Duration(w.CacheTTLMinutes) * time.Minute
}

// VocabularyConfig points at the optional extra-synonyms file.
type VocabularyConfig struct {
	Path string `toml:"path"`
}

// keySet records which configuration keys were explicitly present in the
// loaded files, so defaults only fill keys the operator left out.
type keySet map[string]struct{}

func (k keySet) mark(key string) {
	k[strings.ToLower(strings.TrimSpace(key))] = struct{}{}
}

func (k keySet) isSet(key string) bool {
	_, ok := k[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// fieldDefault describes one defaultable field: the config key that would
// mark it as explicitly set, a predicate deciding whether the default is
// still needed, and the assignment itself.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, value string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = value },
	}
}
