package bundle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/randalmurphal/persistunit/pkg/persistunit/datasource"
)

// HealthTimeout bounds each datasource check on the health endpoint.
const HealthTimeout = 2 * time.Second

// SourceHealth is one datasource's entry in the health response.
type SourceHealth struct {
	Name    string `json:"name"`
	Driver  string `json:"driver"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthReport is the body of GET /persistence/health.
type HealthReport struct {
	Status      string         `json:"status"`
	DataSources []SourceHealth `json:"dataSources"`
}

// UnitInfo is one entry of GET /persistence/units.
type UnitInfo struct {
	Name       string `json:"name"`
	DataSource string `json:"dataSource"`
	Bound      bool   `json:"bound"`
}

// Health checks every bound datasource.
func (b *Bundle) Health(ctx context.Context) HealthReport {
	b.mu.RLock()
	sources := append([]boundSource(nil), b.sources...)
	b.mu.RUnlock()

	report := HealthReport{Status: "healthy", DataSources: make([]SourceHealth, 0, len(sources))}
	for _, src := range sources {
		h := SourceHealth{Name: src.name, Driver: src.driver, Healthy: true}

		cctx, cancel := context.WithTimeout(ctx, HealthTimeout)
		if err := datasource.Check(cctx, src.db, src.validationQuery); err != nil {
			h.Healthy = false
			h.Error = err.Error()
			report.Status = "unhealthy"
		}
		cancel()

		report.DataSources = append(report.DataSources, h)
	}
	return report
}

// Units lists the configured persistence units and whether their
// datasource is currently bound.
func (b *Bundle) Units() []UnitInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]UnitInfo, 0, len(b.units))
	for _, u := range b.units {
		out = append(out, UnitInfo{
			Name:       u.Name,
			DataSource: u.DataSource,
			Bound:      b.env.Directory.IsBound(u.DataSource),
		})
	}
	return out
}

func (b *Bundle) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := b.Health(r.Context())
	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	b.respondJSON(w, status, report)
}

func (b *Bundle) handleUnits(w http.ResponseWriter, _ *http.Request) {
	b.respondJSON(w, http.StatusOK, map[string]any{"units": b.Units()})
}

func (b *Bundle) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (b *Bundle) logger() *slog.Logger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.env.Logger == nil {
		return slog.Default()
	}
	return b.env.Logger
}
