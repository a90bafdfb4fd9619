package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// AutowiredTag is the struct tag that marks a field for injection. The tag
// value, when non-blank, names the bean to inject; otherwise the field's
// qualified type name is used.
//
//	type UserController struct {
//	    service UserService `autowired:""`
//	    repo    *Repo       `autowired:"userRepository"`
//	}
const AutowiredTag = "autowired"

// MethodRoute binds a method-level route fragment to a method name.
type MethodRoute struct {
	Method   string
	Fragment string
}

// Injection is a field carrying the autowired marker.
type Injection struct {
	Field reflect.StructField
	Label string
}

// Descriptor is the explicit registration record of an application
// component: its name, capability markers, constructor, injectable fields
// and routes. Build one with Component.
type Descriptor struct {
	name string
	typ  reflect.Type

	construct     func() (any, error)
	constructType reflect.Type

	controller   bool
	service      bool
	label        string
	route        string
	capabilities []reflect.Type
	routes       []MethodRoute
}

// ComponentOption configures a Descriptor.
type ComponentOption func(d *Descriptor)

// Component describes the struct type T. Instances are *T.
//
//	container.Component[UserServiceImpl](
//	    container.Named("app.UserServiceImpl"),
//	    container.Service(""),
//	    container.Implements[UserService](),
//	)
//
// It panics when T is not a struct, when a declared capability is not an
// interface implemented by *T, or when a Constructor returns a different type.
func Component[T any](opts ...ComponentOption) *Descriptor {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("container: Component[%s]: not a struct type", typ))
	}

	d := &Descriptor{name: QualifiedName(typ), typ: typ}
	for _, opt := range opts {
		opt(d)
	}

	ptr := reflect.PointerTo(typ)
	for _, capability := range d.capabilities {
		if !ptr.Implements(capability) {
			panic(fmt.Sprintf("container: Component[%s]: %s does not implement %s", typ, ptr, capability))
		}
	}
	if d.constructType != nil && d.constructType != ptr {
		panic(fmt.Sprintf("container: Component[%s]: constructor returns %s", typ, d.constructType))
	}
	return d
}

// ── Options ──────────────────────────────────────────────────────────────────

// Named overrides the qualified name the component is resolved by. The
// default is QualifiedName of the type.
func Named(qualified string) ComponentOption {
	return func(d *Descriptor) {
		if q := strings.TrimSpace(qualified); q != "" {
			d.name = q
		}
	}
}

// Controller marks the component as exposing routes.
func Controller() ComponentOption {
	return func(d *Descriptor) { d.controller = true }
}

// Service marks the component as an injectable business component. A
// non-blank label replaces the default bean name.
func Service(label string) ComponentOption {
	return func(d *Descriptor) {
		d.service = true
		d.label = label
	}
}

// Route sets the type-level route fragment.
func Route(fragment string) ComponentOption {
	return func(d *Descriptor) { d.route = fragment }
}

// RouteMethod adds a method-level route fragment. Routes keep declaration order.
func RouteMethod(method, fragment string) ComponentOption {
	return func(d *Descriptor) {
		d.routes = append(d.routes, MethodRoute{Method: method, Fragment: fragment})
	}
}

// Implements declares that the component satisfies capability I, which
// must be an interface type.
func Implements[I any]() ComponentOption {
	capability := reflect.TypeOf((*I)(nil)).Elem()
	if capability.Kind() != reflect.Interface {
		panic(fmt.Sprintf("container: Implements[%s]: not an interface", capability))
	}
	return func(d *Descriptor) {
		d.capabilities = append(d.capabilities, capability)
	}
}

// Constructor replaces the default zero-value constructor.
func Constructor[T any](fn func() (*T, error)) ComponentOption {
	return func(d *Descriptor) {
		d.constructType = reflect.TypeOf((*T)(nil))
		d.construct = func() (any, error) {
			v, err := fn()
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, errors.New("constructor returned nil")
			}
			return v, nil
		}
	}
}

// ── Accessors ────────────────────────────────────────────────────────────────

// Name returns the qualified name.
func (d *Descriptor) Name() string { return d.name }

// SimpleName returns the last segment of the qualified name.
func (d *Descriptor) SimpleName() string { return simpleName(d.name) }

// Type returns the described struct type.
func (d *Descriptor) Type() reflect.Type { return d.typ }

func (d *Descriptor) IsController() bool { return d.controller }
func (d *Descriptor) IsService() bool    { return d.service }

// Label returns the service marker's explicit bean name, if any.
func (d *Descriptor) Label() string { return d.label }

// Route returns the type-level route fragment ("" when absent).
func (d *Descriptor) Route() string { return d.route }

// Capabilities returns the declared interfaces.
func (d *Descriptor) Capabilities() []reflect.Type {
	return append([]reflect.Type(nil), d.capabilities...)
}

// Routes returns the method-level routes in declaration order.
func (d *Descriptor) Routes() []MethodRoute {
	return append([]MethodRoute(nil), d.routes...)
}

// Injections returns the fields of the type carrying the autowired tag.
func (d *Descriptor) Injections() []Injection {
	return injectionsOf(d.typ)
}

// BeanName returns the name the component registers under: the service
// label when non-blank, otherwise the lower-first simple name.
func (d *Descriptor) BeanName() string {
	if d.service && !d.controller {
		if label := strings.TrimSpace(d.label); label != "" {
			return label
		}
	}
	return LowerFirst(d.SimpleName())
}

// New constructs an instance. Panics inside the constructor are recovered
// and reported as errors.
func (d *Descriptor) New() (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	if d.construct != nil {
		return d.construct()
	}
	return reflect.New(d.typ).Interface(), nil
}

func injectionsOf(t reflect.Type) []Injection {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []Injection
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		label, ok := f.Tag.Lookup(AutowiredTag)
		if !ok {
			continue
		}
		out = append(out, Injection{Field: f, Label: strings.TrimSpace(label)})
	}
	return out
}
