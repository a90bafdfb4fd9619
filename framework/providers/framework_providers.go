// Package providers holds the constructors the application kernel hands to
// its dig container. Each one builds a single framework service from the
// services it depends on.
package providers

import (
	"io/fs"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/container"
	"github.com/km-arc/go-spring/framework/log"
	"github.com/km-arc/go-spring/framework/metrics"
	"github.com/km-arc/go-spring/framework/routing"
	"github.com/km-arc/go-spring/framework/scanner"
)

// DefaultResource is the configuration resource read when none is given.
const DefaultResource = "application.properties"

// Resources locates the configuration resource and the classpath the
// scanner walks.
type Resources struct {
	FS        fs.FS
	Resource  string
	Classpath fs.FS
}

// Components carries the descriptor providers of the application.
type Components []container.Provider

// ── Config ────────────────────────────────────────────────────────────────────

// Properties loads the configuration resource.
func Properties(res Resources) (*config.Properties, error) {
	resource := res.Resource
	if resource == "" {
		resource = DefaultResource
	}
	return config.Load(res.FS, resource)
}

// Config builds the typed configuration, environment overlay included.
func Config(props *config.Properties) (*config.Config, error) {
	return config.FromProperties(props)
}

// ── Logging ───────────────────────────────────────────────────────────────────

// Logger builds the zap logger described by the log.* keys.
func Logger(cfg *config.Config) log.Logger {
	return log.New(&log.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}).With("app", cfg.App.Name)
}

// ── Pipeline ──────────────────────────────────────────────────────────────────

// Scanner builds the component scanner over the classpath.
func Scanner(res Resources, cfg *config.Config, l log.Logger) *scanner.Scanner {
	classpath := res.Classpath
	if classpath == nil {
		classpath = res.FS
	}
	return scanner.New(classpath,
		scanner.WithExtension(cfg.Scan.Extension),
		scanner.WithStrict(cfg.Scan.Strict),
		scanner.WithLogger(l),
	)
}

// Catalog installs every component provider.
func Catalog(components Components) (*container.Catalog, error) {
	catalog := container.NewCatalog()
	if err := catalog.Install(components...); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Container builds the empty instance registry.
func Container(cfg *config.Config, l log.Logger) *container.Container {
	return container.New(
		container.WithLogger(l),
		container.WithStrictAutowire(cfg.Scan.StrictAutowire),
	)
}

// Mapper builds the route mapper.
func Mapper(cfg *config.Config, l log.Logger) *routing.Mapper {
	return routing.NewMapper(
		routing.WithLogger(l),
		routing.WithStrictRoutes(cfg.Scan.StrictRoutes),
	)
}

// ── Metrics ───────────────────────────────────────────────────────────────────

// MetricsIn lets the registerer be absent from the graph.
type MetricsIn struct {
	dig.In

	Registerer prometheus.Registerer `optional:"true"`
}

// Metrics registers the bootstrap collector.
func Metrics(in MetricsIn) (*metrics.Collector, error) {
	return metrics.NewCollector(in.Registerer)
}

// Register provides every constructor above on c. Values the caller supplies
// itself (Resources, Components, and optionally log.Logger and
// prometheus.Registerer) must be provided separately. A caller-supplied
// logger replaces the one built from configuration.
func Register(c *dig.Container, customLogger bool) error {
	constructors := []interface{}{
		Properties,
		Config,
		Scanner,
		Catalog,
		Container,
		Mapper,
		Metrics,
	}
	if !customLogger {
		constructors = append(constructors, Logger)
	}
	for _, ctor := range constructors {
		if err := c.Provide(ctor); err != nil {
			return err
		}
	}
	return nil
}
