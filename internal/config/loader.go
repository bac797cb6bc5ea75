package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// configPathEnv names an explicit config file. A file named here must exist.
const configPathEnv = "CONFIG_PATH"

// Load reads the first config file found in the standard locations, applies
// environment overrides and validates the result.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath is Load with an explicit file. An empty path searches the
// standard locations.
func LoadFromPath(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Loader layers defaults, a YAML file and environment variables, in that order.
type Loader struct {
	configPaths []string
}

// NewLoader searches configs/, the working directory and /etc/taskboard.
func NewLoader() *Loader {
	return &Loader{
		configPaths: []string{
			"configs/config.yaml",
			"config.yaml",
			"/etc/taskboard/config.yaml",
		},
	}
}

// WithConfigPaths replaces the search locations.
func (l *Loader) WithConfigPaths(paths []string) *Loader {
	l.configPaths = paths
	return l
}

// Load builds the configuration. A file found by searching is optional and a
// broken one is skipped; an explicit path or CONFIG_PATH must load.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path
	if explicit == "" {
		explicit = os.Getenv(configPathEnv)
	}

	file := explicit
	if file == "" {
		file = l.search()
	}
	if file != "" {
		if err := readFile(cfg, file); err != nil && explicit != "" {
			return nil, fmt.Errorf("failed to load config from %s: %w", file, err)
		}
	}

	if err := applyEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) search() string {
	for _, p := range l.configPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func readFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv walks nested sections and sets every field whose env tag names a
// non-empty variable.
func applyEnv(section reflect.Value) error {
	for i := range section.NumField() {
		field, meta := section.Field(i), section.Type().Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}

		key := meta.Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" {
			continue
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("failed to set %s from env %s: %w", meta.Name, key, err)
		}
	}
	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

//nolint:exhaustive // config sections only use these kinds
func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidDuration, raw)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", raw)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", raw)
		}
		field.SetUint(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", raw)
		}
		field.SetBool(b)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value: %s", raw)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
