// Package console is the gospring command line: it boots the application
// from a configuration resource and a classpath and inspects or serves it.
//
//	gospring routes --config resources/application.properties --classpath classes
//	gospring beans
//	gospring serve --env .env
package console

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-spring/framework/app"
	"github.com/km-arc/go-spring/framework/container"
	"github.com/km-arc/go-spring/framework/log"
)

// Console holds the root command and the flags shared by every subcommand.
type Console struct {
	providers []container.Provider

	// used when --config / --classpath are not given
	resources fs.FS
	classpath fs.FS

	configFile    string
	classpathDir  string
	envFiles      []string
	logger        log.Logger
	extraBootOpts []app.Option

	root *cobra.Command
}

// Option configures a Console.
type Option func(*Console)

// WithDefaults sets the trees used when no --config or --classpath flag is
// given, typically embedded resources.
func WithDefaults(resources, classpath fs.FS) Option {
	return func(c *Console) {
		c.resources = resources
		c.classpath = classpath
	}
}

// WithLogger replaces the logger built from configuration.
func WithLogger(l log.Logger) Option {
	return func(c *Console) { c.logger = l }
}

// WithAppOptions passes extra options to app.New.
func WithAppOptions(opts ...app.Option) Option {
	return func(c *Console) { c.extraBootOpts = append(c.extraBootOpts, opts...) }
}

// New builds the command tree for an application made of providers.
func New(providers []container.Provider, opts ...Option) *Console {
	c := &Console{providers: providers}
	for _, opt := range opts {
		opt(c)
	}

	c.root = &cobra.Command{
		Use:           "gospring",
		Short:         "Component-scanning application runner",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := c.root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "configuration resource (.properties or .yaml)")
	flags.StringVar(&c.classpathDir, "classpath", "", "directory scanned for components (default: directory of --config)")
	flags.StringSliceVar(&c.envFiles, "env", nil, ".env files loaded before configuration")

	for _, cmd := range []interface{ Command() *cobra.Command }{
		&routesCommand{console: c},
		&beansCommand{console: c},
		&serveCommand{console: c},
	} {
		c.root.AddCommand(cmd.Command())
	}
	return c
}

// Command returns the root command.
func (c *Console) Command() *cobra.Command { return c.root }

// Execute runs the root command with os.Args.
func (c *Console) Execute() error { return c.root.Execute() }

// Boot builds the application from the current flag values.
func (c *Console) Boot() (*app.Application, error) {
	opts := []app.Option{app.WithProviders(c.providers...)}

	switch {
	case c.configFile != "":
		dir := filepath.Dir(c.configFile)
		opts = append(opts,
			app.WithResources(os.DirFS(dir), filepath.Base(c.configFile)),
			app.WithClasspath(os.DirFS(dir)),
		)
	case c.resources != nil:
		opts = append(opts, app.WithResources(c.resources, ""), app.WithClasspath(c.classpath))
	default:
		return nil, errors.New("console: no configuration given, use --config")
	}

	if c.classpathDir != "" {
		opts = append(opts, app.WithClasspath(os.DirFS(c.classpathDir)))
	}
	if len(c.envFiles) > 0 {
		opts = append(opts, app.WithEnvFiles(c.envFiles...))
	}
	if c.logger != nil {
		opts = append(opts, app.WithLogger(c.logger))
	}
	return app.New(append(opts, c.extraBootOpts...)...)
}
