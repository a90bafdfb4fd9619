package app_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-spring/framework/app"
	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/container"
	"github.com/km-arc/go-spring/framework/log"
	"github.com/km-arc/go-spring/framework/scanner"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type UserService interface{ Names() []string }

type UserServiceImpl struct{}

func (*UserServiceImpl) Names() []string { return []string{"alice"} }

type AuditService struct{}

func (*AuditService) Names() []string { return nil }

type UserController struct {
	users UserService   `autowired:""`
	audit *AuditService `autowired:"auditor"`
}

func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, strings.Join(c.users.Names(), ","))
}

func components() container.Provider {
	return container.ProviderFunc(func() []*container.Descriptor {
		return []*container.Descriptor{
			container.Component[UserController](
				container.Named("app.UserController"),
				container.Controller(),
				container.Route("/user"),
				container.RouteMethod("List", "list"),
			),
			container.Component[UserServiceImpl](
				container.Named("app.UserServiceImpl"),
				container.Service(""),
				container.Implements[UserService](),
			),
		}
	})
}

func unit() *fstest.MapFile { return &fstest.MapFile{Data: []byte{0xCA, 0xFE}} }

func resources(props string) fstest.MapFS {
	return fstest.MapFS{
		"application.properties":    {Data: []byte(props)},
		"app/UserController.class":  unit(),
		"app/UserServiceImpl.class": unit(),
	}
}

func boot(t *testing.T, fsys fstest.MapFS, opts ...app.Option) (*app.Application, error) {
	t.Helper()
	return app.New(append([]app.Option{
		app.WithResources(fsys, "application.properties"),
		app.WithProviders(components()),
		app.WithLogger(log.Nop()),
	}, opts...)...)
}

// ── End to end ────────────────────────────────────────────────────────────────

func TestNew_EndToEnd(t *testing.T) {
	a, err := boot(t, resources("scanPackage=app\n"))
	require.NoError(t, err)

	c := a.Container()
	for _, name := range []string{"userController", "userServiceImpl", "userService"} {
		assert.True(t, c.Bound(name), name)
	}
	assert.Same(t, c.Make("userService"), c.Make("userServiceImpl"))

	assert.Equal(t, []string{"/user/list"}, a.Routes().Paths())
	h, ok := a.Routes().Lookup("/user/list")
	require.True(t, ok)
	assert.Equal(t, "UserController.List", h.Name())

	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/list", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", rr.Body.String(), "controller was autowired")

	assert.ErrorContains(t, a.Warnings(), "auditor", "missing target skipped")
	assert.Equal(t, "app", a.Properties().GetDefault(config.KeyScanPackage, ""))
	assert.True(t, a.IsLocal())
}

func TestNew_LogsInit(t *testing.T) {
	var buf bytes.Buffer
	_, err := boot(t, resources("scanPackage=app\n"), app.WithLogger(log.NewWithWriter(&buf, "info")))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "framework is init.")
}

func TestNew_BasePathAndRequestLog(t *testing.T) {
	var buf bytes.Buffer
	a, err := boot(t, resources("scanPackage=app\napp.basePath=/api\n"), app.WithLogger(log.NewWithWriter(&buf, "info")))
	require.NoError(t, err)
	assert.Equal(t, []string{"/user/list"}, a.Routes().Paths(), "table paths carry no base path")

	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/user/list", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", rr.Body.String())

	rr = httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/list", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Contains(t, buf.String(), "[http]GET /api/user/list 200")
}

func TestNew_YAMLResource(t *testing.T) {
	fsys := resources("")
	fsys["application.yaml"] = &fstest.MapFile{Data: []byte("scanPackage: app\napp:\n  port: 9090\n")}

	a, err := app.New(
		app.WithResources(fsys, "application.yaml"),
		app.WithProviders(components()),
		app.WithLogger(log.Nop()),
	)
	require.NoError(t, err)
	assert.Equal(t, "9090", a.Config().App.Port)
	assert.Equal(t, 1, a.Routes().Len())
}

func TestNew_SeparateClasspath(t *testing.T) {
	res := fstest.MapFS{"application.properties": {Data: []byte("scanPackage=com.acme\n")}}
	classpath := fstest.MapFS{"com/acme/UserServiceImpl.class": unit()}

	a, err := app.New(
		app.WithResources(res, "application.properties"),
		app.WithClasspath(classpath),
		app.WithProviders(container.ProviderFunc(func() []*container.Descriptor {
			return []*container.Descriptor{container.Component[UserServiceImpl](
				container.Named("com.acme.UserServiceImpl"),
				container.Service(""),
			)}
		})),
		app.WithLogger(log.Nop()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"userServiceImpl"}, a.Container().Names())
	assert.Zero(t, a.Routes().Len())
}

// ── Failures ──────────────────────────────────────────────────────────────────

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fsys   fstest.MapFS
		opts   []app.Option
		target any
	}{
		{
			name:   "missing resource",
			fsys:   fstest.MapFS{},
			target: new(*config.ConfigLoadError),
		},
		{
			name:   "blank scan package",
			fsys:   resources("app.name=x\n"),
			target: new(*config.ConfigLoadError),
		},
		{
			name:   "missing package directory",
			fsys:   resources("scanPackage=nowhere\n"),
			target: new(*scanner.ScanError),
		},
		{
			name: "capability bound twice",
			fsys: func() fstest.MapFS {
				f := resources("scanPackage=app\n")
				f["app/AuditService.class"] = unit()
				return f
			}(),
			opts: []app.Option{app.WithProviders(container.ProviderFunc(func() []*container.Descriptor {
				return []*container.Descriptor{container.Component[AuditService](
					container.Named("app.AuditService"),
					container.Service("auditor"),
					container.Implements[UserService](),
				)}
			}))},
			target: new(*container.DuplicateBindingError),
		},
		{
			name:   "strict autowire",
			fsys:   resources("scanPackage=app\nstrictAutowire=true\n"),
			target: new(*container.UnresolvedDependencyError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := boot(t, tt.fsys, tt.opts...)
			assert.Nil(t, a)
			require.Error(t, err)
			assert.ErrorAs(t, err, tt.target)
		})
	}
}

func TestNew_LogsStartupFailure(t *testing.T) {
	var buf bytes.Buffer
	_, err := boot(t, fstest.MapFS{}, app.WithLogger(log.NewWithWriter(&buf, "info")))

	var loadErr *config.ConfigLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, buf.String(), "[app]startup failed")
	assert.Contains(t, buf.String(), "application.properties")
}

func TestNew_UnknownNamesAreSkipped(t *testing.T) {
	fsys := resources("scanPackage=app\n")
	fsys["app/Ghost.class"] = unit()

	a, err := boot(t, fsys)
	require.NoError(t, err)

	var resolveErr *container.TypeResolutionError
	require.ErrorAs(t, a.Warnings(), &resolveErr)
	assert.Equal(t, "app.Ghost", resolveErr.Name)
}

// ── Metrics ───────────────────────────────────────────────────────────────────

func TestNew_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	fsys := resources("scanPackage=app\n")
	fsys["app/Ghost.class"] = unit()

	_, err := boot(t, fsys, app.WithRegisterer(reg))
	require.NoError(t, err)

	expected := `
# HELP gospring_beans Number of bean names bound in the container, aliases included
# TYPE gospring_beans gauge
gospring_beans 3
# HELP gospring_routes Number of paths in the route table
# TYPE gospring_routes gauge
gospring_routes 1
# HELP gospring_scanned_units Number of type names found by the component scan
# TYPE gospring_scanned_units gauge
gospring_scanned_units 3
# HELP gospring_skipped_total Components or fields skipped during startup
# TYPE gospring_skipped_total counter
gospring_skipped_total{stage="autowire"} 1
gospring_skipped_total{stage="instantiate"} 1
gospring_skipped_total{stage="routing"} 0
gospring_skipped_total{stage="scan"} 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"gospring_beans", "gospring_routes", "gospring_scanned_units", "gospring_skipped_total"))
}

func TestApplication_MetricsHandler(t *testing.T) {
	a, err := boot(t, resources("scanPackage=app\n"))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	a.MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "gospring_bootstrap_seconds")
}
