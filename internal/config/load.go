package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration file syntax.
type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads, decodes and validates the file at path. Settings the file
// does not name keep their defaults.
func Load(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data, format)
}

// LoadOrDefault is like Load but returns the defaults when path is empty or
// the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, ErrFileNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes data over the defaults and validates the result. source
// names the input in errors.
func Parse(source string, data []byte, format Format) (Config, error) {
	cfg := Default()

	var err error
	switch format {
	case FormatTOML:
		err = decodeTOML(source, data, &cfg)
	case FormatYAML:
		err = decodeYAML(source, data, &cfg)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

func decodeYAML(source string, data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty or comment-only document.
			return nil
		}
		return &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return nil
}

// Marshal encodes cfg in the given format.
func Marshal(cfg Config, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(cfg)
	case FormatYAML:
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
