package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"go-fretboard/fretboard"
)

// ServerConfig is the HTTP surface
type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr" validate:"required"`
}

// Config holds application defaults. User selections made at runtime
// (scales, overlays) are not persisted here.
type Config struct {
	Palette        string       `json:"palette,omitempty" mapstructure:"palette"`
	IntervalColors bool         `json:"interval_colors" mapstructure:"interval_colors"`
	Extensions     bool         `json:"extensions" mapstructure:"extensions"`
	ActiveLabel    string       `json:"active_label" mapstructure:"active_label" validate:"oneof=notes intervals blank"`
	AlternateBar   bool         `json:"alternate_bar" mapstructure:"alternate_bar"`
	Footprint      bool         `json:"footprint" mapstructure:"footprint"`
	FretStart      int          `json:"fret_start" mapstructure:"fret_start" validate:"gte=0,lte=24"`
	FretEnd        int          `json:"fret_end" mapstructure:"fret_end" validate:"gte=0,lte=24,gtefield=FretStart"`
	DecayMS        int          `json:"decay_ms" mapstructure:"decay_ms" validate:"gte=10,lte=5000"`
	SyncID         string       `json:"sync_id,omitempty" mapstructure:"sync_id" validate:"omitempty,max=64"`
	Synth          string       `json:"synth,omitempty" mapstructure:"synth"`
	Tuning         string       `json:"tuning,omitempty" mapstructure:"tuning"`
	Server         ServerConfig `json:"server" mapstructure:"server"`
}

// Decay is DecayMS as a duration
func (c *Config) Decay() time.Duration {
	return time.Duration(c.DecayMS) * time.Millisecond
}

// Window is the configured fret range
func (c *Config) Window() fretboard.Window {
	return fretboard.Window{Start: c.FretStart, End: c.FretEnd}.Clamp()
}

// EnvPrefix prefixes environment overrides, e.g. FRETBOARD_SYNC_ID
const EnvPrefix = "FRETBOARD"

func setDefaults(v *viper.Viper) {
	v.SetDefault("palette", "")
	v.SetDefault("interval_colors", false)
	v.SetDefault("extensions", false)
	v.SetDefault("active_label", "notes")
	v.SetDefault("alternate_bar", false)
	v.SetDefault("footprint", true)
	v.SetDefault("fret_start", 0)
	v.SetDefault("fret_end", 12)
	v.SetDefault("decay_ms", 140)
	v.SetDefault("sync_id", "")
	v.SetDefault("synth", "")
	v.SetDefault("tuning", "")
	v.SetDefault("server.addr", ":8090")
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-fretboard"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file at path (the default location when empty),
// then applies FRETBOARD_* environment overrides. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		if p, err := ConfigPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and enums
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, e := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", e.Field(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Tuning != "" {
		if _, err := fretboard.ParseTuning(c.Tuning); err != nil {
			return fmt.Errorf("invalid config: tuning: %w", err)
		}
	}
	return nil
}

// Save writes the config to path (the default location when empty)
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
