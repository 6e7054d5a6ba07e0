package container

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/persistunit/pkg/persistunit"
	"github.com/randalmurphal/persistunit/pkg/persistunit/bundle"
	"github.com/randalmurphal/persistunit/pkg/persistunit/config"
	"github.com/randalmurphal/persistunit/pkg/persistunit/naming"
	"github.com/randalmurphal/persistunit/pkg/persistunit/observability"
	"github.com/randalmurphal/persistunit/pkg/persistunit/sqlunit"
)

// App is the assembled persistence runtime.
type App struct {
	Config    config.Config
	Directory *naming.Directory
	Bundle    *bundle.Bundle
	Registry  *persistunit.Registry
	Services  *persistunit.Services
	Container *Container
}

// ProviderSet provides every component of App.
var ProviderSet = wire.NewSet(
	ProvideDirectory,
	ProvideBundle,
	ProvideBuilder,
	ProvideRegistry,
	ProvideServices,
	ProvideContainer,
	wire.Struct(new(App), "*"),
)

// ProvideDirectory creates the naming directory shared by the bundle and
// the unit builder.
func ProvideDirectory() *naming.Directory {
	return naming.NewDirectory()
}

// ProvideBundle runs the bundle. The cleanup stops it.
func ProvideBundle(
	ctx context.Context,
	cfg config.Config,
	dir *naming.Directory,
	logger *slog.Logger,
	metrics prometheus.Registerer,
	admin chi.Router,
) (*bundle.Bundle, func(), error) {
	b := bundle.New()
	err := b.Run(ctx, cfg, bundle.Environment{
		Directory: dir,
		Metrics:   metrics,
		Admin:     admin,
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return b, func() {
		if err := b.Stop(); err != nil && logger != nil {
			logger.Error("persistence bundle stop failed", slog.String("error", err.Error()))
		}
	}, nil
}

// ProvideBuilder builds units from cfg against the datasources in dir.
func ProvideBuilder(cfg config.Config, dir *naming.Directory, logger *slog.Logger) persistunit.Builder {
	return sqlunit.NewBuilder(cfg.Units, dir, sqlunit.WithLogger(logger))
}

// ProvideRegistry creates the unit registry with OpenTelemetry metrics
// and tracing.
func ProvideRegistry(builder persistunit.Builder, logger *slog.Logger) *persistunit.Registry {
	return persistunit.NewRegistry(builder,
		persistunit.WithLogger(logger),
		persistunit.WithMetrics(observability.NewMetricsRecorder()),
		persistunit.WithSpanManager(observability.NewSpanManager()),
	)
}

// ProvideServices creates the injection services.
func ProvideServices(reg *persistunit.Registry) *persistunit.Services {
	return persistunit.NewServices(reg)
}

// ProvideContainer registers the injection services. The cleanup shuts the
// container down, which shuts the registry down.
func ProvideContainer(svc *persistunit.Services) (*Container, func(), error) {
	c := New()
	if err := c.Add(svc); err != nil {
		return nil, nil, err
	}
	return c, c.Cleanup, nil
}
