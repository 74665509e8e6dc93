// Package metrics exposes registry operation counters to Prometheus.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/kitties/internal/kitty"
)

// OutcomeOK labels a successful operation. Rejections are labelled with
// their lowercased error code, anything else with OutcomeError.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics implements registry.Observer.
type Metrics struct {
	Operations *prometheus.CounterVec
	Records    prometheus.Gauge
}

// New registers the registry metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kitties_operations_total",
			Help: "Registry operations by name and outcome",
		}, []string{"op", "outcome"}),
		Records: f.NewGauge(prometheus.GaugeOpts{
			Name: "kitties_records",
			Help: "Number of records minted",
		}),
	}
}

// ObserveOperation counts one operation.
func (m *Metrics) ObserveOperation(op string, err error) {
	m.Operations.WithLabelValues(op, Outcome(err)).Inc()
}

// SetRecords sets the record gauge.
func (m *Metrics) SetRecords(n int) {
	m.Records.Set(float64(n))
}

// Outcome maps an operation error to its label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := kitty.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return OutcomeError
}

// WriteText writes every metric gathered by g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
