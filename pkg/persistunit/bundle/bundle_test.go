package bundle_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/persistunit/pkg/persistunit/bundle"
	"github.com/randalmurphal/persistunit/pkg/persistunit/config"
	"github.com/randalmurphal/persistunit/pkg/persistunit/naming"
)

func sqliteSource(t *testing.T, name string) config.DataSource {
	t.Helper()
	return config.DataSource{
		JNDIName: name,
		Database: config.Database{
			Driver: "sqlite",
			URL:    filepath.Join(t.TempDir(), "bundle.db"),
		},
	}
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		DataSources: []config.DataSource{
			sqliteSource(t, "java:/jdbc/orders"),
			sqliteSource(t, "java:/jdbc/users"),
		},
		Units: []config.Unit{
			{Name: "orders-db", DataSource: "java:/jdbc/orders"},
			{Name: "users-db", DataSource: "java:/jdbc/users"},
		},
	}
}

func TestBundle_RunAndStop(t *testing.T) {
	dir := naming.NewDirectory()
	b := bundle.New()

	require.NoError(t, b.Run(context.Background(), testConfig(t), bundle.Environment{Directory: dir}))
	assert.True(t, b.Running())
	assert.Equal(t, []string{"java:/jdbc/orders", "java:/jdbc/users"}, b.DataSources())

	db, err := naming.LookupAs[*sql.DB](dir, "java:/jdbc/orders")
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	require.NoError(t, b.Stop())
	assert.False(t, b.Running())
	assert.Equal(t, 0, dir.Len())
	assert.Error(t, db.Ping(), "pool is closed")

	// Second stop is a no-op
	require.NoError(t, b.Stop())
}

func TestBundle_RequiresDirectory(t *testing.T) {
	err := bundle.New().Run(context.Background(), testConfig(t), bundle.Environment{})
	assert.ErrorIs(t, err, bundle.ErrNoDirectory)
}

func TestBundle_InvalidConfig(t *testing.T) {
	cfg := config.Config{Units: []config.Unit{{Name: "orders-db", DataSource: "java:/jdbc/missing"}}}

	err := bundle.New().Run(context.Background(), cfg, bundle.Environment{Directory: naming.NewDirectory()})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestBundle_AlreadyRunning(t *testing.T) {
	dir := naming.NewDirectory()
	b := bundle.New()
	require.NoError(t, b.Run(context.Background(), testConfig(t), bundle.Environment{Directory: dir}))
	t.Cleanup(func() { b.Stop() })

	err := b.Run(context.Background(), testConfig(t), bundle.Environment{Directory: dir})
	assert.ErrorIs(t, err, bundle.ErrAlreadyRunning)
}

func TestBundle_FailureRollsBack(t *testing.T) {
	dir := naming.NewDirectory()
	cfg := testConfig(t)
	cfg.DataSources[1].Database.URL = filepath.Join(t.TempDir(), "missing", "dir", "users.db")
	cfg.Units = nil

	b := bundle.New()
	err := b.Run(context.Background(), cfg, bundle.Environment{Directory: dir, Metrics: prometheus.NewRegistry()})
	require.Error(t, err)

	assert.False(t, b.Running())
	assert.Equal(t, 0, dir.Len(), "datasources bound before the failure are unbound")
	assert.Empty(t, b.DataSources())
}

func TestBundle_NameAlreadyBound(t *testing.T) {
	dir := naming.NewDirectory()
	require.NoError(t, dir.Bind("java:/jdbc/users", "taken"))

	err := bundle.New().Run(context.Background(), testConfig(t), bundle.Environment{Directory: dir})
	assert.ErrorIs(t, err, naming.ErrAlreadyBound)

	assert.False(t, dir.IsBound("java:/jdbc/orders"))
	obj, err := dir.Lookup("java:/jdbc/users")
	require.NoError(t, err)
	assert.Equal(t, "taken", obj)
}

func TestBundle_PoolMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := bundle.Environment{Directory: naming.NewDirectory(), Metrics: reg}
	cfg := testConfig(t)
	b := bundle.New()

	require.NoError(t, b.Run(context.Background(), cfg, env))

	families, err := reg.Gather()
	require.NoError(t, err)
	labels := dbNames(families, "go_sql_max_open_connections")
	assert.ElementsMatch(t, []string{"java:/jdbc/orders", "java:/jdbc/users"}, labels)

	// Stop unregisters, so the same names can be registered again
	require.NoError(t, b.Stop())
	require.NoError(t, b.Run(context.Background(), cfg, env))
	require.NoError(t, b.Stop())
}

func dbNames(families []*dto.MetricFamily, metric string) []string {
	var names []string
	for _, mf := range families {
		if mf.GetName() != metric {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "db_name" {
					names = append(names, lp.GetValue())
				}
			}
		}
	}
	return names
}

func TestBundle_AdminRoutes(t *testing.T) {
	dir := naming.NewDirectory()
	router := chi.NewRouter()
	b := bundle.New()
	require.NoError(t, b.Run(context.Background(), testConfig(t), bundle.Environment{Directory: dir, Admin: router}))
	t.Cleanup(func() { b.Stop() })

	t.Run("healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/persistence/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var report bundle.HealthReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "healthy", report.Status)
		require.Len(t, report.DataSources, 2)
		assert.Equal(t, "sqlite", report.DataSources[0].Driver)
	})

	t.Run("units", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/persistence/units", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"units":[
			{"name":"orders-db","dataSource":"java:/jdbc/orders","bound":true},
			{"name":"users-db","dataSource":"java:/jdbc/users","bound":true}
		]}`, rec.Body.String())
	})

	t.Run("unhealthy", func(t *testing.T) {
		db, err := naming.LookupAs[*sql.DB](dir, "java:/jdbc/users")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/persistence/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var report bundle.HealthReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "unhealthy", report.Status)
		assert.True(t, report.DataSources[0].Healthy)
		assert.False(t, report.DataSources[1].Healthy)
		assert.NotEmpty(t, report.DataSources[1].Error)
	})
}
