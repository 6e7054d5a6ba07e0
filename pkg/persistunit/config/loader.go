package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates a configuration that failed validation.
var ErrInvalid = errors.New("invalid persistence config")

var validate = validator.New()

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses and validates YAML data. Unknown keys are rejected.
func FromYAML(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// FromJSON parses and validates JSON data. Unknown keys are rejected.
func FromJSON(data []byte) (Config, error) {
	var c Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks field constraints, name uniqueness, and that every unit
// refers to a configured datasource. The returned error wraps ErrInvalid.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var errs []error
	jndiNames := make(map[string]bool, len(c.DataSources))
	for _, ds := range c.DataSources {
		if jndiNames[ds.JNDIName] {
			errs = append(errs, fmt.Errorf("duplicate datasource %q", ds.JNDIName))
		}
		jndiNames[ds.JNDIName] = true
	}

	unitNames := make(map[string]bool, len(c.Units))
	for _, u := range c.Units {
		if unitNames[u.Name] {
			errs = append(errs, fmt.Errorf("duplicate unit %q", u.Name))
		}
		unitNames[u.Name] = true
		if !jndiNames[u.DataSource] {
			errs = append(errs, fmt.Errorf("unit %q references unknown datasource %q", u.Name, u.DataSource))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
