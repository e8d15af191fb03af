package bootstrap

import (
	"labbook/internal/infra/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var MetricsModule = fx.Module("metrics",
	fx.Provide(
		metrics.New,
		NewRegistry,
	),
)

func NewRegistry(m *metrics.Metrics) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	if err := m.Register(registry); err != nil {
		return nil, err
	}
	return registry, nil
}
