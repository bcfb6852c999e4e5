package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/timberwolf/internal/game"
	"github.com/roach88/timberwolf/internal/logsink"
	"github.com/roach88/timberwolf/internal/timing"
)

// Config is a complete run configuration.
type Config struct {
	Name   string    `yaml:"name" json:"name"`
	Render LoopSpec  `yaml:"render" json:"render"`
	Update LoopSpec  `yaml:"update" json:"update"`
	Log    LogSpec   `yaml:"log" json:"log"`
	Store  StoreSpec `yaml:"store" json:"store"`
	Demo   DemoSpec  `yaml:"demo" json:"demo"`
}

// LoopSpec configures one loop's rate limiter.
type LoopSpec struct {
	// Rate is iterations per second.
	Rate     float64 `yaml:"rate" json:"rate"`
	Lockstep bool    `yaml:"lockstep" json:"lockstep"`
	Catchup  bool    `yaml:"catchup" json:"catchup"`
	Speed    float64 `yaml:"speed" json:"speed"`
}

// LoopConfig converts s to the game's loop configuration.
func (s LoopSpec) LoopConfig() game.LoopConfig {
	return game.LoopConfig{
		Rate:     s.Rate,
		Lockstep: s.Lockstep,
		Catchup:  s.Catchup,
		Speed:    s.Speed,
	}
}

// LogSpec configures the engine log.
type LogSpec struct {
	// Level is the minimum severity forwarded to receivers.
	Level string `yaml:"level" json:"level"`

	// Console adds a receiver printing the classic line format.
	Console bool `yaml:"console" json:"console"`

	// File appends the same line format to this path. Empty disables it.
	File string `yaml:"file" json:"file"`
}

// Severity parses Level. Validated configs always parse.
func (s LogSpec) Severity() logsink.Severity {
	sev, err := logsink.ParseSeverity(s.Level)
	if err != nil {
		return logsink.SeverityInfo
	}
	return sev
}

// StoreSpec configures run history persistence.
type StoreSpec struct {
	// Path is the SQLite database file. Empty disables recording.
	Path string `yaml:"path" json:"path"`
}

// DemoSpec configures the demo layers.
type DemoSpec struct {
	// LoadingTicks is how many updates the loading screen lasts.
	LoadingTicks int `yaml:"loading_ticks" json:"loading_ticks"`

	// TitleTicks stops the run after that many title screen updates.
	// Zero runs until interrupted.
	TitleTicks int `yaml:"title_ticks" json:"title_ticks"`

	// Overlay shows the frame rate HUD over the title screen.
	Overlay bool `yaml:"overlay" json:"overlay"`
}

// Default returns the configuration used when no file is given: 60 renders
// and 20 updates per second, as in the classic demo.
func Default() Config {
	return Config{
		Name: "timberwolf",
		Render: LoopSpec{
			Rate:  60,
			Speed: timing.DefaultSpeed,
		},
		Update: LoopSpec{
			Rate:     20,
			Lockstep: true,
			Catchup:  true,
			Speed:    timing.DefaultSpeed,
		},
		Log: LogSpec{
			Level: "info",
		},
		Demo: DemoSpec{
			LoadingTicks: 40,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Returns an *Error listing every problem found.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Errors: []ValidationError{{
			Field:   "yaml",
			Message: strings.TrimPrefix(err.Error(), "yaml: "),
			Code:    ErrCodeDecode,
		}}}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &Error{Errors: errs}
	}
	return &cfg, nil
}

// Error reports an invalid configuration. It matches
// timing.ErrInvalidConfiguration via errors.Is.
type Error struct {
	// Path is the file the configuration came from, if any.
	Path string

	Errors []ValidationError
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	for i, ve := range e.Errors {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(ve.Error())
	}
	return b.String()
}

// Is reports whether target is timing.ErrInvalidConfiguration.
func (e *Error) Is(target error) bool {
	return target == timing.ErrInvalidConfiguration
}
