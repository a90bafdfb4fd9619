// Package metrics records the outcome of the startup sequence as
// Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stages label values for skipped_total.
const (
	StageScan        = "scan"
	StageInstantiate = "instantiate"
	StageAutowire    = "autowire"
	StageRouting     = "routing"
)

// Collector holds the bootstrap metrics.
type Collector struct {
	beans     prometheus.Gauge
	routes    prometheus.Gauge
	units     prometheus.Gauge
	bootstrap prometheus.Gauge
	skipped   *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		beans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gospring_beans",
			Help: "Number of bean names bound in the container, aliases included",
		}),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gospring_routes",
			Help: "Number of paths in the route table",
		}),
		units: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gospring_scanned_units",
			Help: "Number of type names found by the component scan",
		}),
		bootstrap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gospring_bootstrap_seconds",
			Help: "Duration of the startup sequence",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gospring_skipped_total",
			Help: "Components or fields skipped during startup",
		}, []string{"stage"}),
	}

	for _, stage := range []string{StageScan, StageInstantiate, StageAutowire, StageRouting} {
		c.skipped.WithLabelValues(stage).Add(0)
	}

	if reg != nil {
		for _, m := range []prometheus.Collector{c.beans, c.routes, c.units, c.bootstrap, c.skipped} {
			if err := reg.Register(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *Collector) SetBeans(n int)  { c.beans.Set(float64(n)) }
func (c *Collector) SetRoutes(n int) { c.routes.Set(float64(n)) }
func (c *Collector) SetUnits(n int)  { c.units.Set(float64(n)) }

// ObserveBootstrap records how long startup took.
func (c *Collector) ObserveBootstrap(d time.Duration) {
	c.bootstrap.Set(d.Seconds())
}

// Skipped adds n skipped items for stage.
func (c *Collector) Skipped(stage string, n int) {
	if n <= 0 {
		return
	}
	c.skipped.WithLabelValues(stage).Add(float64(n))
}
