package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"markbook/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RegistryFile maps the vocabulary extension file: extra spellings per
// canonical field. The vocabulary itself cannot grow, only its spellings.
type RegistryFile struct {
	Fields map[string][]string `mapstructure:"fields" yaml:"fields"`
}

// RegistrySnapshot is the published state of the registry.
type RegistrySnapshot struct {
	Version  int64
	LoadedAt time.Time
	Extras   map[string][]string
}

// ChangeListener fires after the registry reloads.
type ChangeListener func(RegistrySnapshot)

// Registry manages the deployment-level vocabulary extension file and
// reloads it when the file changes.
type Registry struct {
	path   string
	v      *viper.Viper
	schema *jsonschema.Schema

	mu        sync.RWMutex
	snapshot  RegistrySnapshot
	listeners []ChangeListener
}

// NewRegistry reads the vocabulary file and watches it for updates.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("vocabulary registry requires path")
	}
	compiled, err := compileVocabularySchema()
	if err != nil {
		return nil, fmt.Errorf("compile vocabulary schema failed: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read vocabulary file failed: %w", err)
	}
	r := &Registry{path: path, v: v, schema: compiled}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("[vocab] registry reload failed: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot returns the current extra spellings.
func (r *Registry) Snapshot() RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneRegistrySnapshot(r.snapshot)
}

// Subscribe registers a listener invoked after every successful reload.
func (r *Registry) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Canonicalizer builds an index from the current snapshot.
func (r *Registry) Canonicalizer() *Canonicalizer {
	snap := r.Snapshot()
	return NewCanonicalizer(snap.Extras, snap.Version)
}

func (r *Registry) reload() error {
	cfg, err := readVocabularyFile(r.path, r.schema)
	if err != nil {
		return err
	}
	extras := make(map[string][]string, len(cfg.Fields))
	count := 0
	for field, spellings := range cfg.Fields {
		key := Normalize(field)
		kept := make([]string, 0, len(spellings))
		for _, s := range spellings {
			if strings.TrimSpace(s) == "" {
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			continue
		}
		extras[key] = kept
		count += len(kept)
	}
	r.mu.Lock()
	r.snapshot = RegistrySnapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Extras:   extras,
	}
	r.mu.Unlock()
	logger.Infof("[vocab] registry loaded %d extra spellings from %s", count, filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneRegistrySnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("vocabulary listener")
			cb(snap)
		}(fn)
	}
}

func cloneRegistrySnapshot(src RegistrySnapshot) RegistrySnapshot {
	dst := RegistrySnapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Extras:   make(map[string][]string, len(src.Extras)),
	}
	for field, spellings := range src.Extras {
		dst.Extras[field] = append([]string(nil), spellings...)
	}
	return dst
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}

// compileVocabularySchema builds the JSON Schema the vocabulary file must
// satisfy: a fields object keyed by canonical names with string arrays.
func compileVocabularySchema() (*jsonschema.Schema, error) {
	fields := Fields()
	enum := make([]any, len(fields))
	for i, f := range fields {
		enum[i] = f
	}
	doc := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"fields": map[string]any{
				"type":          "object",
				"propertyNames": map[string]any{"enum": enum},
				"additionalProperties": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("vocabulary.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("vocabulary.json")
}

func readVocabularyFile(path string, schema *jsonschema.Schema) (RegistryFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RegistryFile{}, fmt.Errorf("read vocabulary file failed: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return RegistryFile{}, fmt.Errorf("parse vocabulary file failed: %w", err)
	}
	if doc == nil {
		return RegistryFile{}, nil
	}
	if err := schema.Validate(doc); err != nil {
		return RegistryFile{}, fmt.Errorf("vocabulary file invalid: %w", err)
	}
	var cfg RegistryFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return RegistryFile{}, nil
		}
		return RegistryFile{}, fmt.Errorf("parse vocabulary file failed: %w", err)
	}
	return cfg, nil
}
