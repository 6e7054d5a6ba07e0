package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the persistence configuration of a server.
type Config struct {
	// DataSources are bound in the naming directory at startup, in order.
	DataSources []DataSource `yaml:"dataSources" json:"dataSources" validate:"dive"`

	// Units are the persistence units that can be resolved by name.
	Units []Unit `yaml:"units" json:"units" validate:"dive"`
}

// DataSource pairs a directory name with a connection descriptor.
type DataSource struct {
	JNDIName string   `yaml:"jndiName" json:"jndiName" validate:"required"`
	Database Database `yaml:"database" json:"database"`
}

// Database describes how to open a connection pool.
type Database struct {
	// Driver is the database/sql driver name.
	Driver string `yaml:"driver" json:"driver" validate:"required,oneof=sqlite postgres"`

	// URL is the driver-specific data source name.
	URL string `yaml:"url" json:"url" validate:"required"`

	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`

	// Properties are appended to the connection URL as query parameters.
	Properties map[string]string `yaml:"properties" json:"properties"`

	MaxOpenConns    int      `yaml:"maxOpenConns" json:"maxOpenConns" validate:"gte=0"`
	MaxIdleConns    int      `yaml:"maxIdleConns" json:"maxIdleConns" validate:"gte=0"`
	ConnMaxLifetime Duration `yaml:"connMaxLifetime" json:"connMaxLifetime" validate:"gte=0"`
	ConnMaxIdleTime Duration `yaml:"connMaxIdleTime" json:"connMaxIdleTime" validate:"gte=0"`

	// ValidationQuery runs once after connecting; empty skips it.
	ValidationQuery string `yaml:"validationQuery" json:"validationQuery"`

	// PingTimeout bounds the startup connectivity check. Zero means 5s.
	PingTimeout Duration `yaml:"pingTimeout" json:"pingTimeout" validate:"gte=0"`
}

// Unit defines a persistence unit.
type Unit struct {
	Name string `yaml:"name" json:"name" validate:"required"`

	// DataSource is the directory name of the datasource the unit uses.
	DataSource string `yaml:"dataSource" json:"dataSource" validate:"required"`

	// Schema statements run once, when the unit's factory is built.
	Schema []string `yaml:"schema" json:"schema"`

	Properties map[string]any `yaml:"properties" json:"properties"`
}

// Props returns the unit properties with typed accessors.
func (u Unit) Props() Properties {
	return NewProperties(u.Properties)
}

// Unit returns the unit named name.
func (c Config) Unit(name string) (Unit, bool) {
	for _, u := range c.Units {
		if u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// DataSource returns the datasource bound under jndiName.
func (c Config) DataSource(jndiName string) (DataSource, bool) {
	for _, ds := range c.DataSources {
		if ds.JNDIName == jndiName {
			return ds, true
		}
	}
	return DataSource{}, false
}

// Duration is a time.Duration that decodes from "30s" style strings or
// from numbers of seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case nil:
		*d = 0
	case string:
		parsed, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case int64:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration type %T", raw)
	}
	return nil
}
