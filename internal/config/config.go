// Package config loads the blockduel server configuration.
//
// A config file is YAML. Fields it leaves out keep their Default values, and
// the merged result is checked against an embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config is the full server configuration.
type Config struct {
	Listen    string          `yaml:"listen" json:"listen"`
	Database  string          `yaml:"database" json:"database"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Board     BoardConfig     `yaml:"board" json:"board"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Penalties PenaltiesConfig `yaml:"penalties" json:"penalties"`
	Identity  IdentityConfig  `yaml:"identity" json:"identity"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

type BoardConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

type CacheConfig struct {
	// Capacity bounds the number of participant sessions held in memory.
	Capacity int `yaml:"capacity" json:"capacity"`
}

type PenaltiesConfig struct {
	PacingSteps int `yaml:"pacing_steps" json:"pacing_steps"`
}

type IdentityConfig struct {
	// MaxAttempts bounds the random draws made when assigning a new
	// participant id.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:   ":8000",
		Database: "blockduel.db",
		Log:      LogConfig{Level: "info"},
		Board:    BoardConfig{Width: 10, Height: 20},
		Cache:    CacheConfig{Capacity: 1024},
		Identity: IdentityConfig{MaxAttempts: 64},
	}
}

// SlogLevel maps Log.Level onto a slog level. Unknown names map to Info.
func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every schema violation found in a configuration.
type ValidationError struct {
	Source   string       `json:"source,omitempty"`
	Problems []FieldError `json:"problems"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	prefix := "invalid config"
	if e.Source != "" {
		prefix = fmt.Sprintf("invalid config %s", e.Source)
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(parts, "; "))
}

// IsValidationError returns true if err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Load reads path over Default and validates the result. An empty path
// returns the validated defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Source = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads YAML from r over Default and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks c against the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	err := def.Unify(val).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	ve := &ValidationError{}
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		if len(path) > 0 && path[0] == "#Config" {
			path = path[1:]
		}
		field := strings.Join(path, ".")
		if field == "" {
			field = "config"
		}
		format, args := e.Msg()
		ve.Problems = append(ve.Problems, FieldError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(ve.Problems) == 0 {
		ve.Problems = []FieldError{{Field: "config", Message: err.Error()}}
	}
	return ve
}
