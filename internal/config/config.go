// Package config loads markbook's YAML configuration, merges optional
// include files, applies defaults for keys the operator left out, and
// validates the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads the config file at path and returns the validated result.
// The file may name additional files under a top-level "include:" list;
// included files are merged first, so the including file wins on conflict.
func Load(path string) (*Config, error) {
	files, err := collectConfigFiles(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for _, file := range files {
		if err := mergeConfigFile(v, file); err != nil {
			return nil, err
		}
	}

	var cfg Config
	decodeHook := func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	keys := make(keySet)
	collectSettingsKeys("", v.AllSettings(), keys)
	cfg.applyDefaults(keys)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	tmp := viper.New()
	tmp.SetConfigFile(path)
	if err := tmp.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.MergeConfigMap(tmp.AllSettings()); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// collectConfigFiles returns the include closure of path in merge order:
// includes first (depth-first, in listed order), the file itself last.
func collectConfigFiles(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}
	seen := make(map[string]struct{})
	stack := make(map[string]struct{})
	var ordered []string
	if err := resolveConfigIncludes(abs, seen, stack, &ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

func resolveConfigIncludes(path string, seen, stack map[string]struct{}, ordered *[]string) error {
	if _, ok := stack[path]; ok {
		return fmt.Errorf("config include cycle at %s", path)
	}
	if _, ok := seen[path]; ok {
		return nil
	}
	stack[path] = struct{}{}
	defer delete(stack, path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	includes, err := parseIncludeList(raw)
	if err != nil {
		return fmt.Errorf("parse includes of %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(dir, inc)
		}
		if err := resolveConfigIncludes(inc, seen, stack, ordered); err != nil {
			return err
		}
	}

	seen[path] = struct{}{}
	*ordered = append(*ordered, path)
	return nil
}

func parseIncludeList(raw []byte) ([]string, error) {
	var head struct {
		Include []string `yaml:"include"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	var includes []string
	for _, inc := range head.Include {
		inc = strings.TrimSpace(inc)
		if inc != "" {
			includes = append(includes, inc)
		}
	}
	return includes, nil
}

// collectSettingsKeys flattens viper's nested settings into dotted paths.
func collectSettingsKeys(prefix string, value any, keys keySet) {
	switch val := value.(type) {
	case map[string]any:
		for k, v := range val {
			collectSettingsKeys(joinKey(prefix, k), v, keys)
		}
	case map[any]any:
		for k, v := range val {
			collectSettingsKeys(joinKey(prefix, fmt.Sprintf("%v", k)), v, keys)
		}
	default:
		if prefix != "" {
			keys.mark(prefix)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
