package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/composer/internal/gesture"
	"github.com/dshills/composer/internal/input/key"
	"github.com/dshills/composer/internal/input/keymap"
	"github.com/dshills/composer/internal/logging"
)

// Config holds all composer settings.
type Config struct {
	History  HistoryConfig  `toml:"history" yaml:"history"`
	Gesture  GestureConfig  `toml:"gesture" yaml:"gesture"`
	Document DocumentConfig `toml:"document" yaml:"document"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`

	// Keys rebinds terminal editor actions: action name to chord, or to
	// "" to unbind. See keymap.Default for the action names.
	Keys map[string]string `toml:"keys,omitempty" yaml:"keys,omitempty"`
}

// HistoryConfig configures undo/redo.
type HistoryConfig struct {
	// MaxDepth bounds the undo and redo stacks.
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`
	// CoalesceDelay is the quiet period that closes a burst of edits.
	CoalesceDelay Duration `toml:"coalesce_delay" yaml:"coalesce_delay"`
}

// GestureConfig configures pointer gestures.
type GestureConfig struct {
	MinSize            float64 `toml:"min_size" yaml:"min_size"`
	MaxSize            float64 `toml:"max_size" yaml:"max_size"`
	MinFontSize        float64 `toml:"min_font_size" yaml:"min_font_size"`
	MaxFontSize        float64 `toml:"max_font_size" yaml:"max_font_size"`
	SnapDegrees        float64 `toml:"snap_degrees" yaml:"snap_degrees"`
	HandleRadius       float64 `toml:"handle_radius" yaml:"handle_radius"`
	RotateHandleOffset float64 `toml:"rotate_handle_offset" yaml:"rotate_handle_offset"`
	PanModifier        string  `toml:"pan_modifier" yaml:"pan_modifier"`
	SnapModifier       string  `toml:"snap_modifier" yaml:"snap_modifier"`
}

// DocumentConfig holds defaults for new documents.
type DocumentConfig struct {
	DefaultDurationMs int64  `toml:"default_duration_ms" yaml:"default_duration_ms"`
	AspectRatio       string `toml:"aspect_ratio" yaml:"aspect_ratio"`
	Background        string `toml:"background" yaml:"background"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Duration is a time.Duration that decodes from strings such as "350ms".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	g := gesture.DefaultConfig()
	return Config{
		History: HistoryConfig{
			MaxDepth:      120,
			CoalesceDelay: Duration(350 * time.Millisecond),
		},
		Gesture: GestureConfig{
			MinSize:            g.MinSize,
			MaxSize:            g.MaxSize,
			MinFontSize:        g.MinFontSize,
			MaxFontSize:        g.MaxFontSize,
			SnapDegrees:        g.SnapDegrees,
			HandleRadius:       g.HandleRadius,
			RotateHandleOffset: g.RotateHandleOffset,
			PanModifier:        "alt",
			SnapModifier:       "shift",
		},
		Document: DocumentConfig{
			DefaultDurationMs: 30000,
			AspectRatio:       "16:9",
			Background:        "white",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Limits on numeric settings.
const (
	MaxHistoryDepth  = 1000
	MaxCoalesceDelay = 10 * time.Second
)

// Validate checks every setting and returns a *ValidationError listing all
// invalid fields, or nil.
func (c Config) Validate() error {
	var errs []FieldError
	bad := func(path, msg string, v any) {
		errs = append(errs, FieldError{Path: path, Message: msg, Value: v})
	}

	if c.History.MaxDepth < 1 || c.History.MaxDepth > MaxHistoryDepth {
		bad("history.max_depth", fmt.Sprintf("must be between 1 and %d", MaxHistoryDepth), c.History.MaxDepth)
	}
	if d := c.History.CoalesceDelay.Std(); d <= 0 || d > MaxCoalesceDelay {
		bad("history.coalesce_delay", fmt.Sprintf("must be positive and at most %s", MaxCoalesceDelay), c.History.CoalesceDelay)
	}

	g := c.Gesture
	if g.MinSize <= 0 {
		bad("gesture.min_size", "must be positive", g.MinSize)
	}
	if g.MaxSize < g.MinSize {
		bad("gesture.max_size", "must not be less than min_size", g.MaxSize)
	}
	if g.MinFontSize <= 0 {
		bad("gesture.min_font_size", "must be positive", g.MinFontSize)
	}
	if g.MaxFontSize < g.MinFontSize {
		bad("gesture.max_font_size", "must not be less than min_font_size", g.MaxFontSize)
	}
	if g.SnapDegrees <= 0 || g.SnapDegrees > 180 {
		bad("gesture.snap_degrees", "must be in (0, 180]", g.SnapDegrees)
	}
	if g.HandleRadius <= 0 {
		bad("gesture.handle_radius", "must be positive", g.HandleRadius)
	}
	if g.RotateHandleOffset < 0 {
		bad("gesture.rotate_handle_offset", "must not be negative", g.RotateHandleOffset)
	}
	if key.ModifierFromName(g.PanModifier) == key.ModNone {
		bad("gesture.pan_modifier", "unknown modifier", g.PanModifier)
	}
	if key.ModifierFromName(g.SnapModifier) == key.ModNone {
		bad("gesture.snap_modifier", "unknown modifier", g.SnapModifier)
	}

	if c.Document.DefaultDurationMs <= 0 {
		bad("document.default_duration_ms", "must be positive", c.Document.DefaultDurationMs)
	}
	if !validAspect(c.Document.AspectRatio) {
		bad("document.aspect_ratio", `must look like "16:9"`, c.Document.AspectRatio)
	}

	if len(c.Keys) > 0 {
		actions := make([]string, 0, len(c.Keys))
		for action := range c.Keys {
			actions = append(actions, action)
		}
		sort.Strings(actions)
		known := make(map[string]bool)
		for _, a := range keymap.Default().Actions() {
			known[a] = true
		}
		for _, action := range actions {
			chord := c.Keys[action]
			switch {
			case !known[action]:
				bad("keys."+action, "unknown action", chord)
			case chord != "":
				if _, err := key.Parse(chord); err != nil {
					bad("keys."+action, err.Error(), chord)
				}
			}
		}
		if _, err := c.Keymap(); err != nil && len(errs) == 0 {
			bad("keys", err.Error(), nil)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		bad("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

func validAspect(s string) bool {
	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return false
	}
	a, err1 := strconv.Atoi(w)
	b, err2 := strconv.Atoi(h)
	return err1 == nil && err2 == nil && a > 0 && b > 0
}

// GestureSettings converts the gesture section into controller settings.
// Call on a validated Config.
func (c Config) GestureSettings() gesture.Config {
	g := c.Gesture
	return gesture.Config{
		MinSize:            g.MinSize,
		MaxSize:            g.MaxSize,
		MinFontSize:        g.MinFontSize,
		MaxFontSize:        g.MaxFontSize,
		SnapDegrees:        g.SnapDegrees,
		SnapModifier:       key.ModifierFromName(g.SnapModifier),
		PanModifier:        key.ModifierFromName(g.PanModifier),
		HandleRadius:       g.HandleRadius,
		RotateHandleOffset: g.RotateHandleOffset,
	}
}

// Keymap returns the default terminal keymap with Keys applied.
func (c Config) Keymap() (*keymap.Parsed, error) {
	km, err := keymap.Default().Rebind(c.Keys)
	if err != nil {
		return nil, err
	}
	return km.Parse()
}

// Equal reports whether c and o hold the same settings. A nil and an
// empty Keys map are equal.
func (c Config) Equal(o Config) bool {
	if c.History != o.History || c.Gesture != o.Gesture || c.Document != o.Document || c.Logging != o.Logging {
		return false
	}
	if len(c.Keys) != len(o.Keys) {
		return false
	}
	for action, chord := range c.Keys {
		if other, found := o.Keys[action]; !found || other != chord {
			return false
		}
	}
	return true
}

// LogLevel returns the configured logging level.
func (c Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}
