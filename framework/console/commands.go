package console

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// ── routes ────────────────────────────────────────────────────────────────────

type routesCommand struct{ console *Console }

func (r *routesCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return r.Handle(cmd) },
	}
}

func (r *routesCommand) Handle(cmd *cobra.Command) error {
	a, err := r.console.Boot()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tHANDLER")
	for _, e := range a.Routes().Entries() {
		fmt.Fprintf(w, "%s\t%s\n", e.Path, e.Handler.Name())
	}
	return w.Flush()
}

// ── beans ─────────────────────────────────────────────────────────────────────

type beansCommand struct {
	console  *Console
	warnings bool
}

func (b *beansCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beans",
		Short: "Print the registered beans and their types",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return b.Handle(cmd) },
	}
	cmd.Flags().BoolVar(&b.warnings, "warnings", false, "also print what was skipped during startup")
	return cmd
}

func (b *beansCommand) Handle(cmd *cobra.Command) error {
	a, err := b.console.Boot()
	if err != nil {
		return err
	}
	c := a.Container()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE")
	for _, name := range c.Names() {
		bean, _ := c.Bean(name)
		fmt.Fprintf(w, "%s\t%s\n", name, bean.TypeName())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if b.warnings {
		for _, warning := range multierr.Errors(a.Warnings()) {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped: %v\n", warning)
		}
	}
	return nil
}

// ── serve ─────────────────────────────────────────────────────────────────────

type serveCommand struct{ console *Console }

func (s *serveCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the route table over HTTP, with /metrics",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return s.Handle(cmd) },
	}
}

func (s *serveCommand) Handle(cmd *cobra.Command) error {
	a, err := s.console.Boot()
	if err != nil {
		return err
	}
	a.Router().Get("/metrics", a.MetricsHandler().ServeHTTP)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}
