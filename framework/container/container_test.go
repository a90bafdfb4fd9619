package container_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Greeter interface{ Greet() string }
type Closer interface{ Close() error }

type EnglishGreeter struct{}

func (*EnglishGreeter) Greet() string { return "hello" }
func (*EnglishGreeter) Close() error  { return nil }

type FrenchGreeter struct{}

func (*FrenchGreeter) Greet() string { return "bonjour" }

type Repo struct{ rows []string }

type Plain struct{}

type Widget struct{}

type GreetingController struct {
	greeter Greeter `autowired:"greeter"`
	Repo    *Repo   `autowired:""`
	closer  Closer  `autowired:"nope"`
	wrong   *Repo   `autowired:"greeter"`
	plain   string
}

func (g *GreetingController) Hello() string { return g.greeter.Greet() }

func catalogOf(t *testing.T, ds ...*container.Descriptor) *container.Catalog {
	t.Helper()
	cat := container.NewCatalog()
	require.NoError(t, cat.Register(ds...))
	return cat
}

func english() *container.Descriptor {
	return container.Component[EnglishGreeter](
		container.Named("app.EnglishGreeter"),
		container.Service(""),
		container.Implements[Greeter](),
		container.Implements[Closer](),
	)
}

func french() *container.Descriptor {
	return container.Component[FrenchGreeter](
		container.Named("app.FrenchGreeter"),
		container.Service(""),
		container.Implements[Greeter](),
	)
}

func warnings(c *container.Container) []error {
	return multierr.Errors(c.Warnings())
}

// ── names ─────────────────────────────────────────────────────────────────────

func TestLowerFirst(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"UserController", "userController"},
		{"userController", "userController"},
		{"A", "a"},
		{"", ""},
		{"_Private", "_Private"},
		{"1Abc", "1Abc"},
		{"Éclair", "Éclair"},
		{"URL", "uRL"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := container.LowerFirst(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, container.LowerFirst(got), "idempotent")
		})
	}
}

func TestQualifiedName(t *testing.T) {
	want := "github.com.km-arc.go-spring.framework.container_test.Repo"
	assert.Equal(t, want, container.QualifiedName(reflect.TypeOf(Repo{})))
	assert.Equal(t, want, container.QualifiedName(reflect.TypeOf(&Repo{})))
	assert.Equal(t, want, container.TypeKey((*Repo)(nil)))
	assert.Equal(t, "string", container.QualifiedName(reflect.TypeOf("")))
	assert.Equal(t, "[]int", container.QualifiedName(reflect.TypeOf([]int{})))
}

// ── descriptors ───────────────────────────────────────────────────────────────

func TestComponent_Defaults(t *testing.T) {
	d := container.Component[GreetingController]()

	assert.Equal(t, container.TypeKey((*GreetingController)(nil)), d.Name())
	assert.Equal(t, "GreetingController", d.SimpleName())
	assert.Equal(t, "greetingController", d.BeanName())
	assert.False(t, d.IsController())
	assert.False(t, d.IsService())

	inj := d.Injections()
	require.Len(t, inj, 4)
	assert.Equal(t, "greeter", inj[0].Field.Name)
	assert.Equal(t, "greeter", inj[0].Label)
	assert.Equal(t, "Repo", inj[1].Field.Name)
	assert.Equal(t, "", inj[1].Label)
}

func TestComponent_BeanName(t *testing.T) {
	tests := []struct {
		name string
		d    *container.Descriptor
		want string
	}{
		{"controller", container.Component[Plain](container.Controller()), "plain"},
		{"service default", container.Component[Plain](container.Service("")), "plain"},
		{"service blank label", container.Component[Plain](container.Service("   ")), "plain"},
		{"service label", container.Component[Plain](container.Service("custom")), "custom"},
		{"named", container.Component[Plain](container.Named("x.y.Other"), container.Controller()), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.BeanName())
		})
	}
}

func TestComponent_Panics(t *testing.T) {
	assert.Panics(t, func() { container.Component[int]() }, "non-struct")
	assert.Panics(t, func() {
		container.Component[Plain](container.Implements[Greeter]())
	}, "capability not implemented")
	assert.Panics(t, func() { container.Implements[Plain]() }, "not an interface")
	assert.Panics(t, func() {
		container.Component[Plain](container.Constructor(func() (*Repo, error) { return &Repo{}, nil }))
	}, "constructor type mismatch")
}

func TestDescriptor_New(t *testing.T) {
	d := container.Component[Repo](container.Constructor(func() (*Repo, error) {
		return &Repo{rows: []string{"a"}}, nil
	}))
	v, err := d.New()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v.(*Repo).rows)

	d = container.Component[Repo](container.Constructor(func() (*Repo, error) { panic("boom") }))
	_, err = d.New()
	assert.ErrorContains(t, err, "boom")

	d = container.Component[Repo](container.Constructor(func() (*Repo, error) { return nil, nil }))
	_, err = d.New()
	assert.Error(t, err)
}

// ── catalog ───────────────────────────────────────────────────────────────────

func TestCatalog_RegisterAndResolve(t *testing.T) {
	cat := catalogOf(t, english(), french())

	d, err := cat.Resolve("app.FrenchGreeter")
	require.NoError(t, err)
	assert.Equal(t, "FrenchGreeter", d.SimpleName())
	assert.Equal(t, []string{"app.EnglishGreeter", "app.FrenchGreeter"}, cat.Names())
	assert.Equal(t, 2, cat.Len())
}

func TestCatalog_Duplicate(t *testing.T) {
	cat := catalogOf(t, english())
	err := cat.Register(english())
	assert.True(t, errors.Is(err, container.ErrDuplicateComponent))
}

func TestCatalog_UnknownName(t *testing.T) {
	_, err := container.NewCatalog().Resolve("app.Missing")

	var resErr *container.TypeResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "app.Missing", resErr.Name)
	assert.True(t, errors.Is(err, container.ErrUnknownType))
}

type staticProvider struct{ name string }

func (p *staticProvider) Components() []*container.Descriptor {
	return []*container.Descriptor{container.Component[Plain](container.Named(p.name))}
}

func TestCatalog_Install(t *testing.T) {
	cat := container.NewCatalog()
	p := &staticProvider{name: "app.Plain"}

	require.NoError(t, cat.Install(p, p))
	require.NoError(t, cat.Install(p))
	assert.Equal(t, 1, cat.Len())

	fn := container.ProviderFunc(func() []*container.Descriptor { return []*container.Descriptor{french()} })
	require.NoError(t, cat.Install(fn))
	assert.Equal(t, 2, cat.Len())
}

// ── Instantiate ───────────────────────────────────────────────────────────────

func TestInstantiate_UnmarkedTypesIgnored(t *testing.T) {
	cat := catalogOf(t, container.Component[Plain](container.Named("app.Plain")))
	c := container.New()

	require.NoError(t, c.Instantiate(cat, []string{"app.Plain"}))
	assert.Zero(t, c.Len())
	assert.NoError(t, c.Warnings())
}

func TestInstantiate_ServiceWithTwoCapabilities(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Instantiate(catalogOf(t, english()), []string{"app.EnglishGreeter"}))

	assert.Equal(t, []string{"closer", "englishGreeter", "greeter"}, c.Names())

	own := c.Make("englishGreeter")
	assert.Same(t, own, c.Make("greeter"))
	assert.Same(t, own, c.Make("closer"))
	assert.Len(t, c.Beans(), 1)
}

func TestInstantiate_CapabilityQualifiedNameResolves(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Instantiate(catalogOf(t, english()), []string{"app.EnglishGreeter"}))

	g, ok := container.TryResolve[Greeter](c, container.TypeKey((*Greeter)(nil)))
	require.True(t, ok)
	assert.Equal(t, "hello", g.Greet())
}

func TestInstantiate_DuplicateBindingEitherOrder(t *testing.T) {
	orders := [][]string{
		{"app.EnglishGreeter", "app.FrenchGreeter"},
		{"app.FrenchGreeter", "app.EnglishGreeter"},
	}
	for _, names := range orders {
		t.Run(names[0], func(t *testing.T) {
			c := container.New()
			err := c.Instantiate(catalogOf(t, english(), french()), names)

			var dup *container.DuplicateBindingError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, container.TypeKey((*Greeter)(nil)), dup.Capability)
			assert.Contains(t, err.Error(), "ambiguous implementation")
		})
	}
}

func TestInstantiate_DuplicateBeanName(t *testing.T) {
	cat := catalogOf(t,
		container.Component[Plain](container.Named("a.Plain"), container.Controller()),
		container.Component[Repo](container.Named("b.Repo"), container.Service("plain")),
	)
	c := container.New()

	err := c.Instantiate(cat, []string{"a.Plain", "b.Repo"})

	var dup *container.DuplicateBeanError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "plain", dup.Name)
}

func TestInstantiate_ZeroSizeComponentsSharingAName(t *testing.T) {
	cat := catalogOf(t,
		container.Component[Widget](container.Named("a.Widget"), container.Controller()),
		container.Component[Widget](container.Named("b.Widget"), container.Controller()),
	)
	c := container.New()

	err := c.Instantiate(cat, []string{"a.Widget", "b.Widget"})

	var dup *container.DuplicateBeanError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "widget", dup.Name)
}

func TestInstantiate_SameNameTwiceIsNoop(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Instantiate(catalogOf(t, english()), []string{"app.EnglishGreeter", "app.EnglishGreeter"}))
	assert.Equal(t, []string{"closer", "englishGreeter", "greeter"}, c.Names())
}

func TestInstantiate_LabelEqualToCapabilityAlias(t *testing.T) {
	cat := catalogOf(t, container.Component[FrenchGreeter](
		container.Named("app.FrenchGreeter"),
		container.Service("greeter"),
		container.Implements[Greeter](),
	))
	c := container.New()

	require.NoError(t, c.Instantiate(cat, []string{"app.FrenchGreeter"}))
	assert.Equal(t, []string{"greeter"}, c.Names())
}

func TestInstantiate_SkipsUnresolvableAndFailingTypes(t *testing.T) {
	cat := catalogOf(t,
		english(),
		container.Component[Repo](
			container.Named("app.Repo"),
			container.Service(""),
			container.Constructor(func() (*Repo, error) { return nil, errors.New("no database") }),
		),
	)
	c := container.New()

	err := c.Instantiate(cat, []string{"app.Unknown", "app.Repo", "app.EnglishGreeter"})
	require.NoError(t, err)

	assert.True(t, c.Bound("englishGreeter"))
	assert.False(t, c.Bound("repo"))

	ws := warnings(c)
	require.Len(t, ws, 2)
	var resErr *container.TypeResolutionError
	assert.ErrorAs(t, ws[0], &resErr)
	var instErr *container.InstantiationError
	assert.ErrorAs(t, ws[1], &instErr)
	assert.Equal(t, "app.Repo", instErr.Name)
}

func TestInstantiate_ControllerIgnoresCapabilities(t *testing.T) {
	cat := catalogOf(t, container.Component[EnglishGreeter](
		container.Named("app.EnglishGreeter"),
		container.Controller(),
		container.Service("ignored"),
		container.Implements[Greeter](),
	))
	c := container.New()

	require.NoError(t, c.Instantiate(cat, []string{"app.EnglishGreeter"}))
	assert.Equal(t, []string{"englishGreeter"}, c.Names())
}

// ── Autowire ──────────────────────────────────────────────────────────────────

func wiredContainer(t *testing.T, opts ...container.Option) *container.Container {
	t.Helper()
	cat := catalogOf(t,
		english(),
		container.Component[Repo](container.Named("app.Repo"), container.Service("")),
		container.Component[GreetingController](container.Named("app.GreetingController"), container.Controller()),
	)
	c := container.New(opts...)
	require.NoError(t, c.Instantiate(cat, []string{"app.EnglishGreeter", "app.Repo", "app.GreetingController"}))
	return c
}

func TestAutowire_AssignsFields(t *testing.T) {
	c := wiredContainer(t)
	require.NoError(t, c.Autowire())

	ctrl := container.Resolve[*GreetingController](c, "greetingController")

	assert.Equal(t, "hello", ctrl.Hello(), "unexported field injected by label")
	assert.Same(t, c.Make("repo"), ctrl.Repo, "exported field injected by qualified type")
	assert.Nil(t, ctrl.closer, "missing target leaves field untouched")
	assert.Nil(t, ctrl.wrong, "incompatible target leaves field untouched")
	assert.Empty(t, ctrl.plain)
}

func TestAutowire_ReportsSkippedFields(t *testing.T) {
	c := wiredContainer(t)
	require.NoError(t, c.Autowire())

	ws := warnings(c)
	require.Len(t, ws, 2)

	var missing *container.UnresolvedDependencyError
	require.ErrorAs(t, ws[0], &missing)
	assert.Equal(t, "nope", missing.Target)

	var access *container.InjectionAccessError
	require.ErrorAs(t, ws[1], &access)
	assert.Equal(t, "wrong", access.Field)
}

func TestAutowire_Strict(t *testing.T) {
	c := wiredContainer(t, container.WithStrictAutowire(true))

	err := c.Autowire()

	var missing *container.UnresolvedDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "greetingController", missing.Bean)
	assert.Equal(t, "closer", missing.Field)
}

func TestAutowire_RegisteredInstance(t *testing.T) {
	c := container.New()
	ctrl := &GreetingController{}
	require.NoError(t, c.Register("ctrl", ctrl))
	require.NoError(t, c.Register("greeter", &EnglishGreeter{}))

	require.NoError(t, c.Autowire())
	assert.Equal(t, "hello", ctrl.Hello())
}

// ── Registration & resolution ─────────────────────────────────────────────────

func TestRegister_SameInstanceTwiceIsNoop(t *testing.T) {
	c := container.New()
	r := &Repo{}
	require.NoError(t, c.Register("repo", r))
	require.NoError(t, c.Register("repo", r))

	var dup *container.DuplicateBeanError
	assert.ErrorAs(t, c.Register("repo", &Repo{}), &dup)
	assert.Error(t, c.Register("nil", nil))
}

func TestRegister_DistinctZeroSizeInstancesConflict(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register("plain", &Plain{}))

	var dup *container.DuplicateBeanError
	assert.ErrorAs(t, c.Register("plain", &Plain{}), &dup)
}

func TestMake_PanicsWhenUnbound(t *testing.T) {
	assert.Panics(t, func() { container.New().Make("missing") })
}

func TestResolve_WrongTypePanics(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register("repo", &Repo{}))

	assert.PanicsWithValue(t,
		"container: Resolve[container_test.Greeter]: [repo] resolved to *container_test.Repo",
		func() { container.Resolve[Greeter](c, "repo") })

	_, ok := container.TryResolve[Greeter](c, "repo")
	assert.False(t, ok)
	_, ok = container.TryResolve[*Repo](c, "missing")
	assert.False(t, ok)
}
