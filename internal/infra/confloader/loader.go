package confloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "OTPSLOT_"

// Layer names, lowest priority first.
const (
	LayerFile     = "file"
	LayerEnv      = "env"
	LayerOverride = "override"
)

// Loader merges a YAML file, environment variables and explicit
// overrides on top of the defaults already held by the target struct.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
	origins   map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file to read. Empty means none.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets values applied above every other source, keyed by
// dotted path (e.g. "storage.data_dir"). Command-line flags use it.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		origins:   map[string]string{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every layer in priority order and unmarshals the result
// into target. Keys no layer sets keep the value target already has.
func (l *Loader) Load(target any) error {
	layers := []struct {
		name string
		read func(*koanf.Koanf) error
	}{
		{LayerFile, l.readFile},
		{LayerEnv, l.readEnv},
		{LayerOverride, l.readOverrides},
	}

	for _, layer := range layers {
		k := koanf.New(".")
		if err := layer.read(k); err != nil {
			return fmt.Errorf("load %s: %w", layer.name, err)
		}
		for _, key := range k.Keys() {
			l.origins[key] = layer.name
		}
		if err := l.k.Merge(k); err != nil {
			return fmt.Errorf("merge %s: %w", layer.name, err)
		}
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// Origin reports which layer set key, or "" when the default stands.
func (l *Loader) Origin(key string) string {
	return l.origins[key]
}

// Origins returns a copy of the key to layer mapping.
func (l *Loader) Origins() map[string]string {
	out := make(map[string]string, len(l.origins))
	for k, v := range l.origins {
		out[k] = v
	}
	return out
}

// Value returns the merged value of key.
func (l *Loader) Value(key string) any {
	return l.k.Get(key)
}

func (l *Loader) readFile(k *koanf.Koanf) error {
	if l.filePath == "" {
		return nil
	}
	return k.Load(file.Provider(l.filePath), yaml.Parser())
}

// readEnv maps PREFIX_SECTION_KEY to section.key. Only the first
// underscore after the prefix separates the section, so keys may contain
// underscores. Variables without a section are ignored.
func (l *Loader) readEnv(k *koanf.Koanf) error {
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		section, key, ok := strings.Cut(s, "_")
		if !ok || section == "" || key == "" {
			return ""
		}
		return section + "." + key
	}
	return k.Load(env.Provider(l.envPrefix, ".", transform), nil)
}

func (l *Loader) readOverrides(k *koanf.Koanf) error {
	if len(l.overrides) == 0 {
		return nil
	}
	return k.Load(overrides(maps.Unflatten(l.overrides, ".")), nil)
}

// overrides is a koanf provider over an already nested map.
type overrides map[string]any

func (o overrides) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: overrides provide a map, not bytes")
}

func (o overrides) Read() (map[string]any, error) {
	return o, nil
}
