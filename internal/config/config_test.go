package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/composer/internal/clock"
	"github.com/dshills/composer/internal/input/key"
	"github.com/dshills/composer/internal/logging"
)

const sampleTOML = `
[history]
max_depth = 80          # 1..1000
coalesce_delay = "500ms"

[gesture]
min_size = 40
max_font_size = 300
pan_modifier = "ctrl"

[document]
aspect_ratio = "9:16"

[logging]
level = "debug"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.History.CoalesceDelay.Std() != 350*time.Millisecond {
		t.Errorf("CoalesceDelay = %v", cfg.History.CoalesceDelay)
	}
	g := cfg.GestureSettings()
	if g.PanModifier != key.ModAlt || g.SnapModifier != key.ModShift {
		t.Errorf("modifiers = %v, %v", g.PanModifier, g.SnapModifier)
	}
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse("sample.toml", []byte(sampleTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.History.MaxDepth != 80 {
		t.Errorf("MaxDepth = %d", cfg.History.MaxDepth)
	}
	if cfg.History.CoalesceDelay.Std() != 500*time.Millisecond {
		t.Errorf("CoalesceDelay = %v", cfg.History.CoalesceDelay)
	}
	if cfg.Gesture.MinSize != 40 || cfg.Gesture.MaxFontSize != 300 {
		t.Errorf("gesture = %+v", cfg.Gesture)
	}
	// Unnamed settings keep their defaults.
	if cfg.Gesture.MaxSize != Default().Gesture.MaxSize {
		t.Errorf("MaxSize = %v, want default", cfg.Gesture.MaxSize)
	}
	if cfg.GestureSettings().PanModifier != key.ModCtrl {
		t.Errorf("PanModifier = %v", cfg.GestureSettings().PanModifier)
	}
	if cfg.Document.AspectRatio != "9:16" || cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("document/logging = %+v %+v", cfg.Document, cfg.Logging)
	}
}

func TestParseYAML(t *testing.T) {
	data := `
history:
  max_depth: 50
  coalesce_delay: 1s
gesture:
  snap_degrees: 15
document:
  background: transparent
`
	cfg, err := Parse("sample.yaml", []byte(data), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.History.MaxDepth != 50 || cfg.History.CoalesceDelay.Std() != time.Second {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Gesture.SnapDegrees != 15 {
		t.Errorf("SnapDegrees = %v", cfg.Gesture.SnapDegrees)
	}
	if cfg.Document.Background != "transparent" {
		t.Errorf("Background = %q", cfg.Document.Background)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, f := range []Format{FormatTOML, FormatYAML} {
		cfg, err := Parse("empty", []byte("# nothing\n"), f)
		if err != nil {
			t.Fatalf("%s: Parse: %v", f, err)
		}
		if !cfg.Equal(Default()) {
			t.Errorf("%s: empty file should give defaults", f)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"toml syntax", "[history]\nmax_depth = = 3\n", FormatTOML},
		{"toml unknown key", "[history]\ndepth = 3\n", FormatTOML},
		{"toml bad duration", "[history]\ncoalesce_delay = \"soon\"\n", FormatTOML},
		{"yaml syntax", "history: [\n", FormatYAML},
		{"yaml unknown key", "history:\n  depth: 3\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("input", []byte(tt.data), tt.format)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if perr.Path != "input" {
				t.Errorf("Path = %q", perr.Path)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("input", []byte("[history]\nmax_depth = = 3\n"), FormatTOML)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v", err)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
}

func TestValidateListsEveryField(t *testing.T) {
	cfg := Default()
	cfg.History.MaxDepth = 0
	cfg.Gesture.MaxSize = 10
	cfg.Gesture.PanModifier = "hyper"
	cfg.Document.AspectRatio = "wide"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %T", err)
	}
	want := []string{
		"history.max_depth",
		"gesture.max_size",
		"gesture.pan_modifier",
		"document.aspect_ratio",
		"logging.level",
	}
	if len(verr.Fields) != len(want) {
		t.Errorf("fields = %v", verr.Fields)
	}
	for _, path := range want {
		if !verr.Has(path) {
			t.Errorf("missing %s in %v", path, verr)
		}
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"composer.toml", FormatTOML, false},
		{"composer.YAML", FormatYAML, false},
		{"dir/composer.yml", FormatYAML, false},
		{"composer.json", 0, true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if (err != nil) != tt.err {
			t.Errorf("FormatOf(%q) err = %v", tt.path, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("FormatOf(%q) = %v, want %v", tt.path, got, tt.want)
		}
		if tt.err && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("FormatOf(%q) err = %v, want ErrUnsupportedFormat", tt.path, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "composer.toml", sampleTOML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.MaxDepth != 80 {
		t.Errorf("MaxDepth = %d", cfg.History.MaxDepth)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}

	cfg, err = LoadOrDefault(filepath.Join(dir, "missing.toml"))
	if err != nil || !cfg.Equal(Default()) {
		t.Errorf("LoadOrDefault = %+v, %v", cfg, err)
	}
	cfg, err = LoadOrDefault("")
	if err != nil || !cfg.Equal(Default()) {
		t.Errorf("LoadOrDefault(\"\") = %+v, %v", cfg, err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want := Default()
	want.History.MaxDepth = 42
	want.History.CoalesceDelay = Duration(time.Second)
	want.Keys = map[string]string{"app.quit": "ctrl+q"}

	for _, f := range []Format{FormatTOML, FormatYAML} {
		data, err := Marshal(want, f)
		if err != nil {
			t.Fatalf("%s: Marshal: %v", f, err)
		}
		got, err := Parse("round-trip", data, f)
		if err != nil {
			t.Fatalf("%s: Parse: %v\n%s", f, err, data)
		}
		if !got.Equal(want) {
			t.Errorf("%s: got %+v, want %+v", f, got, want)
		}
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "composer.toml", sampleTOML)

	fake := clock.NewFake(time.Unix(0, 0))
	w, err := Watch(path, WithWatchClock(fake))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	var got []Config
	remove := w.OnChange(func(cfg Config) { got = append(got, cfg) })

	// Unchanged contents do not notify.
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("observer called %d times for unchanged file", len(got))
	}

	writeFile(t, dir, "composer.toml", "[history]\nmax_depth = 7\n")
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(got) != 1 || got[0].History.MaxDepth != 7 {
		t.Fatalf("observer got %+v", got)
	}
	if w.Current().History.MaxDepth != 7 {
		t.Errorf("Current = %+v", w.Current().History)
	}

	// An invalid file keeps the previous configuration.
	writeFile(t, dir, "composer.toml", "[history]\nmax_depth = 0\n")
	if err := w.Reload(); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Reload err = %v", err)
	}
	if w.Current().History.MaxDepth != 7 {
		t.Error("failed reload should keep the previous config")
	}

	remove()
	writeFile(t, dir, "composer.toml", "[history]\nmax_depth = 9\n")
	_ = w.Reload()
	if len(got) != 1 {
		t.Error("removed observer should not be called")
	}
}

func TestWatcherSeesWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "composer.yaml", "history:\n  max_depth: 10\n")

	w, err := Watch(path, WithReloadDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	changed := make(chan Config, 4)
	w.OnChange(func(cfg Config) { changed <- cfg })

	writeFile(t, dir, "composer.yaml", "history:\n  max_depth: 11\n")

	// A reload may observe the truncated file first; wait for the final one.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changed:
			if cfg.History.MaxDepth == 11 {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for reload, current = %+v", w.Current().History)
		}
	}
}

func TestWatchMissingFile(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}
}

func TestCloseTwice(t *testing.T) {
	path := writeFile(t, t.TempDir(), "composer.toml", "")
	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestKeys(t *testing.T) {
	const data = `
[keys]
"app.quit" = "ctrl+q"
"layer.duplicate" = ""
`
	cfg, err := Parse("keys.toml", []byte(data), FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	km, err := cfg.Keymap()
	if err != nil {
		t.Fatalf("Keymap: %v", err)
	}
	if b, ok := km.Lookup(key.Event{Key: key.KeyRune, Rune: 'q', Modifiers: key.ModCtrl}); !ok || b.Action != "app.quit" {
		t.Errorf("ctrl+q = %q, %v", b.Action, ok)
	}
	if _, ok := km.Lookup(key.Event{Key: key.KeyRune, Rune: 'd'}); ok {
		t.Error("d should be unbound")
	}
	if cfg.Equal(Default()) {
		t.Error("rebinding should make the config differ from the defaults")
	}
}

func TestKeysValidation(t *testing.T) {
	tests := []struct {
		name string
		keys map[string]string
		path string
	}{
		{"unknown action", map[string]string{"layer.explode": "x"}, "keys.layer.explode"},
		{"bad chord", map[string]string{"app.quit": "hyper+q"}, "keys.app.quit"},
		{"conflict", map[string]string{"app.quit": "s"}, "keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Keys = tt.keys
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate = %v, want *ValidationError", err)
			}
			if !verr.Has(tt.path) {
				t.Errorf("fields = %+v, want %s", verr.Fields, tt.path)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a, b := Default(), Default()
	b.Keys = map[string]string{}
	if !a.Equal(b) {
		t.Error("nil and empty Keys should be equal")
	}
	b.Keys["app.quit"] = "x"
	if a.Equal(b) || b.Equal(a) {
		t.Error("different Keys should not be equal")
	}
	c := Default()
	c.Logging.Level = "debug"
	if a.Equal(c) {
		t.Error("different levels should not be equal")
	}
}
