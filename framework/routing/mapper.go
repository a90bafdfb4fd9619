package routing

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/container"
	"github.com/km-arc/go-spring/framework/log"
)

// DuplicateRouteError reports two handlers normalizing to the same path.
// Only returned with strict routes; otherwise the later handler wins.
type DuplicateRouteError struct {
	Path        string
	Existing    string
	Conflicting string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("routing: path %q mapped to both %s and %s", e.Path, e.Existing, e.Conflicting)
}

// ── Table ────────────────────────────────────────────────────────────────────

// Entry is one row of the route table.
type Entry struct {
	Path    string
	Handler *Handler
}

// Table maps normalized paths to handlers. Built once by Mapper.Map and
// read-only afterwards.
type Table struct {
	handlers map[string]*Handler
}

func newTable() *Table {
	return &Table{handlers: make(map[string]*Handler)}
}

// Lookup returns the handler for a normalized path.
func (t *Table) Lookup(path string) (*Handler, bool) {
	h, ok := t.handlers[path]
	return h, ok
}

// Paths returns every mapped path, sorted.
func (t *Table) Paths() []string {
	out := make([]string, 0, len(t.handlers))
	for p := range t.handlers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Entries returns the table rows sorted by path.
func (t *Table) Entries() []Entry {
	paths := t.Paths()
	out := make([]Entry, len(paths))
	for i, p := range paths {
		out[i] = Entry{Path: p, Handler: t.handlers[p]}
	}
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.handlers) }

// ── Mapper ───────────────────────────────────────────────────────────────────

// Mapper builds the route table from the controllers of a container.
type Mapper struct {
	logger log.Logger
	strict bool

	// routes skipped by the last Map
	warnings error
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithLogger sets the logger used for skipped and overwritten routes.
func WithLogger(l log.Logger) MapperOption {
	return func(m *Mapper) { m.logger = l }
}

// WithStrictRoutes makes a path collision fatal instead of last-write-wins.
func WithStrictRoutes(strict bool) MapperOption {
	return func(m *Mapper) { m.strict = strict }
}

// NewMapper creates a Mapper.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{logger: log.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map walks the controller beans in registration order and joins each
// type-level fragment with each method-level fragment.
//
//	Route("/demo") + RouteMethod("Query", "queryUser") → "/demo/queryUser"
func (m *Mapper) Map(c *container.Container) (*Table, error) {
	table := newTable()
	m.warnings = nil
	for _, bean := range c.Beans() {
		d := bean.Descriptor
		if d == nil || !d.IsController() {
			continue
		}
		owner := reflect.TypeOf(bean.Instance)

		for _, route := range d.Routes() {
			method, ok := owner.MethodByName(route.Method)
			if !ok {
				err := fmt.Errorf("routing: skip %q: %s has no exported method %q", route.Fragment, owner, route.Method)
				m.logger.Warnf("[routing]%v", err)
				m.warnings = multierr.Append(m.warnings, err)
				continue
			}

			path := Normalize(d.Route(), route.Fragment)
			h := newHandler(bean, method)
			if existing, ok := table.handlers[path]; ok {
				if m.strict {
					err := &DuplicateRouteError{Path: path, Existing: existing.Name(), Conflicting: h.Name()}
					m.logger.Errorf("[routing]%v", err)
					return nil, err
				}
				m.logger.Warnf("[routing]%s: %s replaces %s", path, h.Name(), existing.Name())
			}
			table.handlers[path] = h
			m.logger.Debugf("[routing]mapped %s -> %s", path, h.Name())
		}
	}
	return table, nil
}

// Warnings returns the routes the last Map skipped, combined with multierr.
func (m *Mapper) Warnings() error { return m.warnings }

// Normalize builds "/" + base + "/" + fragment and collapses every run of
// '/' into one.
func Normalize(base, fragment string) string {
	raw := "/" + base + "/" + fragment
	var b strings.Builder
	b.Grow(len(raw))
	prevSlash := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(ch)
	}
	return b.String()
}
