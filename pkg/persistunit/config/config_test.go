package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/persistunit/pkg/persistunit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
dataSources:
  - jndiName: java:/jdbc/orders
    database:
      driver: sqlite
      url: file:orders.db
      maxOpenConns: 8
      maxIdleConns: 2
      connMaxLifetime: 30m
      connMaxIdleTime: 90
      validationQuery: SELECT 1
  - jndiName: java:/jdbc/users
    database:
      driver: postgres
      url: postgres://db.internal:5432/users
      user: app
      password: secret
      properties:
        sslmode: disable

units:
  - name: orders-db
    dataSource: java:/jdbc/orders
    schema:
      - CREATE TABLE IF NOT EXISTS orders (id INTEGER PRIMARY KEY)
    properties:
      session.acquireTimeout: 5s
  - name: users-db
    dataSource: java:/jdbc/users
`

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, cfg.DataSources, 2)
	orders := cfg.DataSources[0]
	assert.Equal(t, "java:/jdbc/orders", orders.JNDIName)
	assert.Equal(t, "sqlite", orders.Database.Driver)
	assert.Equal(t, 8, orders.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, orders.Database.ConnMaxLifetime.Std())
	assert.Equal(t, 90*time.Second, orders.Database.ConnMaxIdleTime.Std())
	assert.Equal(t, "SELECT 1", orders.Database.ValidationQuery)

	users, ok := cfg.DataSource("java:/jdbc/users")
	require.True(t, ok)
	assert.Equal(t, "disable", users.Database.Properties["sslmode"])

	unit, ok := cfg.Unit("orders-db")
	require.True(t, ok)
	assert.Len(t, unit.Schema, 1)
	assert.Equal(t, 5*time.Second, unit.Props().Duration("session.acquireTimeout", time.Second))

	_, ok = cfg.Unit("missing")
	assert.False(t, ok)
}

func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"dataSources": [{"jndiName": "ds", "database": {"driver": "sqlite", "url": ":memory:", "pingTimeout": "2s"}}],
		"units": [{"name": "u", "dataSource": "ds", "properties": {"retries": 3}}]
	}`)

	cfg, err := config.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.DataSources[0].Database.PingTimeout.Std())
	assert.Equal(t, 3, cfg.Units[0].Props().Int("retries", 0))
}

func TestFromYAML_Empty(t *testing.T) {
	cfg, err := config.FromYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.DataSources)
	assert.Empty(t, cfg.Units)
}

func TestFromYAML_UnknownField(t *testing.T) {
	_, err := config.FromYAML([]byte("dataSource: []\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			DataSources: []config.DataSource{{
				JNDIName: "ds",
				Database: config.Database{Driver: "sqlite", URL: ":memory:"},
			}},
			Units: []config.Unit{{Name: "u", DataSource: "ds"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		msg    string
	}{
		{"missing jndi name", func(c *config.Config) { c.DataSources[0].JNDIName = "" }, "JNDIName"},
		{"missing driver", func(c *config.Config) { c.DataSources[0].Database.Driver = "" }, "Driver"},
		{"unsupported driver", func(c *config.Config) { c.DataSources[0].Database.Driver = "oracle" }, "oneof"},
		{"missing url", func(c *config.Config) { c.DataSources[0].Database.URL = "" }, "URL"},
		{"negative pool size", func(c *config.Config) { c.DataSources[0].Database.MaxOpenConns = -1 }, "MaxOpenConns"},
		{"missing unit name", func(c *config.Config) { c.Units[0].Name = "" }, "Name"},
		{"duplicate datasource", func(c *config.Config) {
			c.DataSources = append(c.DataSources, c.DataSources[0])
		}, `duplicate datasource "ds"`},
		{"duplicate unit", func(c *config.Config) {
			c.Units = append(c.Units, c.Units[0])
		}, `duplicate unit "u"`},
		{"unknown datasource", func(c *config.Config) { c.Units[0].DataSource = "other" }, `unknown datasource "other"`},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "persistence.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Len(t, cfg.Units, 2)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "persistence.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"dataSources": [], "units": []}`), 0o600))

		_, err := config.FromFile(path)
		require.NoError(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "persistence.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

		_, err := config.FromFile(path)
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "read config file")
	})
}

func TestDuration_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte(`
dataSources:
  - jndiName: ds
    database:
      driver: sqlite
      url: ":memory:"
      pingTimeout: soon
`))
	assert.ErrorContains(t, err, "parse duration")
}
