// Package app runs the startup sequence: configuration, component scan,
// instantiation, autowiring and route mapping, exactly once.
package app

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"
	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/container"
	"github.com/km-arc/go-spring/framework/log"
	"github.com/km-arc/go-spring/framework/metrics"
	"github.com/km-arc/go-spring/framework/providers"
	"github.com/km-arc/go-spring/framework/routing"
	"github.com/km-arc/go-spring/framework/scanner"
)

// Version of the framework.
const Version = "0.1.0"

// Application is the assembled, fully wired application.
type Application struct {
	config    *config.Config
	container *container.Container
	routes    *routing.Table
	router    *routing.Router
	metrics   *metrics.Collector
	gatherer  prometheus.Gatherer
	logger    log.Logger
}

// ── Options ───────────────────────────────────────────────────────────────────

type options struct {
	resources  providers.Resources
	components providers.Components
	envFiles   []string
	loadEnv    bool
	registerer prometheus.Registerer
	logger     log.Logger
}

// Option configures New.
type Option func(*options)

// WithResources sets where the configuration resource is read from.
func WithResources(fsys fs.FS, resource string) Option {
	return func(o *options) {
		o.resources.FS = fsys
		o.resources.Resource = resource
	}
}

// WithClasspath sets the tree the scanner walks. Defaults to the
// resources FS.
func WithClasspath(fsys fs.FS) Option {
	return func(o *options) { o.resources.Classpath = fsys }
}

// WithProviders adds component descriptor providers.
func WithProviders(p ...container.Provider) Option {
	return func(o *options) { o.components = append(o.components, p...) }
}

// WithEnvFiles loads the given .env files before configuration is read.
// With no arguments ".env" is tried.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.envFiles = files
		o.loadEnv = true
	}
}

// WithRegisterer registers the bootstrap metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLogger replaces the logger built from the log.* configuration keys.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ── Bootstrap ─────────────────────────────────────────────────────────────────

type pipeline struct {
	dig.In

	Config    *config.Config
	Logger    log.Logger
	Scanner   *scanner.Scanner
	Catalog   *container.Catalog
	Container *container.Container
	Mapper    *routing.Mapper
	Metrics   *metrics.Collector
}

// New assembles the framework services and runs the startup sequence.
// Errors are the typed errors of the failing stage (ConfigLoadError,
// ScanError, DuplicateBeanError, ...).
//
//	application, err := app.New(
//	    app.WithResources(os.DirFS("resources"), "application.properties"),
//	    app.WithProviders(demo.Provider{}),
//	)
func New(opts ...Option) (*Application, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.resources.FS == nil {
		o.resources.FS = os.DirFS(".")
	}
	if o.loadEnv {
		config.LoadEnv(o.envFiles...)
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if o.registerer == nil {
		reg := prometheus.NewRegistry()
		o.registerer, gatherer = reg, reg
	} else if g, ok := o.registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}

	di := dig.New()
	supplied := []interface{}{
		func() providers.Resources { return o.resources },
		func() providers.Components { return o.components },
		func() prometheus.Registerer { return o.registerer },
	}
	if o.logger != nil {
		supplied = append(supplied, func() log.Logger { return o.logger })
	}
	for _, ctor := range supplied {
		if err := di.Provide(ctor); err != nil {
			return nil, err
		}
	}
	if err := providers.Register(di, o.logger != nil); err != nil {
		return nil, err
	}

	a := &Application{gatherer: gatherer}
	if err := di.Invoke(a.bootstrap); err != nil {
		err = dig.RootCause(err)
		if o.logger != nil {
			o.logger.Errorf("[app]startup failed: %v", err)
		}
		return nil, err
	}
	return a, nil
}

func (a *Application) bootstrap(p pipeline) error {
	start := time.Now()
	logger := p.Logger
	cfg := p.Config

	names, err := p.Scanner.Scan(cfg.Scan.Package)
	if err != nil {
		logger.Errorf("[app]scan: %v", err)
		return err
	}
	p.Metrics.SetUnits(len(names))
	p.Metrics.Skipped(metrics.StageScan, count(p.Scanner.Warnings()))

	before := count(p.Container.Warnings())
	if err := p.Container.Instantiate(p.Catalog, names); err != nil {
		return err
	}
	instantiated := count(p.Container.Warnings())
	p.Metrics.Skipped(metrics.StageInstantiate, instantiated-before)

	if err := p.Container.Autowire(); err != nil {
		return err
	}
	p.Metrics.Skipped(metrics.StageAutowire, count(p.Container.Warnings())-instantiated)

	table, err := p.Mapper.Map(p.Container)
	if err != nil {
		return err
	}
	p.Metrics.Skipped(metrics.StageRouting, count(p.Mapper.Warnings()))

	router := routing.New()
	router.Middleware(routing.RequestLogger(logger))
	router.MountAt(cfg.App.BasePath, table)

	elapsed := time.Since(start)
	p.Metrics.SetBeans(p.Container.Len())
	p.Metrics.SetRoutes(table.Len())
	p.Metrics.ObserveBootstrap(elapsed)

	a.config = cfg
	a.container = p.Container
	a.routes = table
	a.router = router
	a.metrics = p.Metrics
	a.logger = logger

	logger.Infof("[app]scanned %d unit(s), %d bean name(s), %d route(s) in %s",
		len(names), p.Container.Len(), table.Len(), elapsed)
	logger.Infof("framework is init.")
	return nil
}

func count(err error) int { return len(multierr.Errors(err)) }

// ── Accessors ─────────────────────────────────────────────────────────────────

func (a *Application) Config() *config.Config          { return a.config }
func (a *Application) Properties() *config.Properties  { return a.config.Properties() }
func (a *Application) Container() *container.Container { return a.container }
func (a *Application) Routes() *routing.Table          { return a.routes }
func (a *Application) Router() *routing.Router         { return a.router }
func (a *Application) Metrics() *metrics.Collector     { return a.metrics }
func (a *Application) Logger() log.Logger              { return a.logger }

// Warnings returns everything skipped while instantiating and autowiring.
func (a *Application) Warnings() error { return a.container.Warnings() }

// MetricsHandler exposes the registry the bootstrap metrics live in.
func (a *Application) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})
}

// Environment returns the app.env value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }

// ── Serve ─────────────────────────────────────────────────────────────────────

// Run serves the router on app.port until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	addr := ":" + a.config.App.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("[app]%s listening on %s [%s]", a.config.App.Name, addr, a.config.App.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Infof("[app]shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
