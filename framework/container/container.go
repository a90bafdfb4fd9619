package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/log"
)

// ── Beans ─────────────────────────────────────────────────────────────────────

// Bean is a named, container-owned instance.
type Bean struct {
	Name     string
	Instance any

	// Descriptor is nil for instances registered directly with Register.
	Descriptor *Descriptor
}

// TypeName returns the qualified type name of the instance.
func (b *Bean) TypeName() string {
	if b.Descriptor != nil {
		return b.Descriptor.Name()
	}
	return TypeKey(b.Instance)
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the instance registry. It is filled once at startup by
// Instantiate and Autowire and read-only afterwards.
//
// Names resolve in three namespaces, in order:
//   - bean names ("userController", and capability aliases like "userService")
//   - capability qualified names (the interface's QualifiedName)
//   - concrete qualified names (the struct's QualifiedName)
type Container struct {
	mu sync.RWMutex

	// name → bean, including capability aliases
	beans map[string]*Bean

	// primary beans in registration order
	order []*Bean

	// capability qualified name → bean
	capabilities map[string]*Bean

	// concrete qualified name → bean
	types map[string]*Bean

	logger         log.Logger
	strictAutowire bool

	// non-fatal failures collected during Instantiate and Autowire
	warnings error
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used to report skipped components and fields.
func WithLogger(l log.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithStrictAutowire turns a missing injection target into a fatal
// UnresolvedDependencyError instead of a warning.
func WithStrictAutowire(strict bool) Option {
	return func(c *Container) { c.strictAutowire = strict }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		beans:        make(map[string]*Bean),
		capabilities: make(map[string]*Bean),
		types:        make(map[string]*Bean),
		logger:       log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds a pre-built instance under name.
//
//	c.Register("clock", realClock{})
func (c *Container) Register(name string, instance any) error {
	if instance == nil {
		return fmt.Errorf("container: bean %q: nil instance", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.register(name, instance, nil)
	return err
}

// register inserts a primary bean (must hold mu.Lock).
func (c *Container) register(name string, instance any, d *Descriptor) (*Bean, error) {
	if existing, ok := c.beans[name]; ok && sameBinding(existing, instance, d) {
		return existing, nil
	}
	bean := &Bean{Name: name, Instance: instance, Descriptor: d}
	if err := c.bind(name, bean); err != nil {
		return nil, err
	}
	c.order = append(c.order, bean)

	key := QualifiedName(reflect.TypeOf(instance))
	if _, ok := c.types[key]; !ok {
		c.types[key] = bean
	}
	if d != nil && d.Name() != key {
		if _, ok := c.types[d.Name()]; !ok {
			c.types[d.Name()] = bean
		}
	}
	return bean, nil
}

// bind maps name to bean. Binding the same bean again is a no-op (must hold
// mu.Lock).
func (c *Container) bind(name string, bean *Bean) error {
	if existing, ok := c.beans[name]; ok {
		if existing == bean {
			return nil
		}
		return &DuplicateBeanError{
			Name:        name,
			Existing:    existing.TypeName(),
			Conflicting: bean.TypeName(),
		}
	}
	c.beans[name] = bean
	return nil
}

// bindCapability binds bean under the capability's lower-first simple name
// and records it under the capability's qualified name (must hold mu.Lock).
func (c *Container) bindCapability(capability reflect.Type, bean *Bean) error {
	key := QualifiedName(capability)
	if owner, ok := c.capabilities[key]; ok {
		if owner == bean {
			return nil
		}
		return &DuplicateBindingError{Capability: key, Existing: owner.Name, Conflicting: bean.Name}
	}
	if err := c.bind(LowerFirst(capability.Name()), bean); err != nil {
		return err
	}
	c.capabilities[key] = bean
	return nil
}

// sameBinding reports whether existing already holds the component being
// registered. Components are identified by descriptor; only pre-built
// instances fall back to instance identity.
func sameBinding(existing *Bean, instance any, d *Descriptor) bool {
	if existing.Descriptor != nil || d != nil {
		return existing.Descriptor == d
	}
	return sameInstance(existing.Instance, instance)
}

// sameInstance compares pointers by address. Pointers to zero-size values
// may share an address, so they never count as the same instance.
func sameInstance(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Pointer && vb.Kind() == reflect.Pointer {
		return va.Type() == vb.Type() && va.Type().Elem().Size() > 0 && va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() || va.Type() != vb.Type() {
		return false
	}
	return a == b
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Bean returns the bean registered under name in any of the three namespaces.
func (c *Container) Bean(name string) (*Bean, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.beans[name]; ok {
		return b, true
	}
	if b, ok := c.capabilities[name]; ok {
		return b, true
	}
	if b, ok := c.types[name]; ok {
		return b, true
	}
	return nil, false
}

// Lookup returns the instance registered under name.
func (c *Container) Lookup(name string) (any, bool) {
	b, ok := c.Bean(name)
	if !ok {
		return nil, false
	}
	return b.Instance, true
}

// Make resolves name and panics when nothing is bound.
//
//	svc := c.Make("userService")
func (c *Container) Make(name string) any {
	instance, ok := c.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("container: no bean registered for [%s]", name))
	}
	return instance
}

// Bound returns true if name resolves to a bean.
func (c *Container) Bound(name string) bool {
	_, ok := c.Bean(name)
	return ok
}

// Beans returns the primary beans in registration order. Capability
// aliases are not repeated.
func (c *Container) Beans() []*Bean {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Bean(nil), c.order...)
}

// Names returns every bean name, aliases included, sorted.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.beans))
	for k := range c.beans {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bean names, aliases included.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.beans)
}

// Warnings returns the non-fatal failures recorded so far, combined with
// multierr, or nil. Use multierr.Errors to split them.
func (c *Container) Warnings() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warnings
}

// warn logs and records a non-fatal failure.
func (c *Container) warn(err error) {
	c.logger.Warnf("[container]skipped: %v", err)
	c.mu.Lock()
	c.warnings = multierr.Append(c.warnings, err)
	c.mu.Unlock()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: svc := c.Make("userService").(UserService)
//	// Write:      svc := container.Resolve[UserService](c, "userService")
func Resolve[T any](c *Container, name string) T {
	instance := c.Make(name)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("container: Resolve[%s]: [%s] resolved to %T", reflect.TypeOf((*T)(nil)).Elem(), name, instance))
	}
	return typed
}

// TryResolve is like Resolve but reports failure instead of panicking.
func TryResolve[T any](c *Container, name string) (T, bool) {
	instance, ok := c.Lookup(name)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := instance.(T)
	return typed, ok
}
