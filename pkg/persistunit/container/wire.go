//go:build wireinject
// +build wireinject

package container

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/persistunit/pkg/persistunit/config"
)

// InitializeApp assembles the persistence runtime for cfg. The returned
// cleanup shuts the registry down, then stops the bundle.
func InitializeApp(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	metrics prometheus.Registerer,
	admin chi.Router,
) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
