package routing

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gohttp "github.com/km-arc/go-spring/framework/http"
	"github.com/km-arc/go-spring/framework/log"
)

// Router wraps chi.Router. It is the HTTP-facing collaborator of the route
// table: Mount hands every request below the base path to the table.
type Router struct {
	mux chi.Router
}

// New creates a Router with Recoverer and RealIP installed.
func New() *Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	return &Router{mux: r}
}

// Get registers a fixed endpoint next to the route table, e.g. /metrics.
func (r *Router) Get(pattern string, h http.HandlerFunc) { r.mux.Get(pattern, h) }

// Middleware adds one or more middleware to the router. chi requires them
// before any route is registered.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Route table ──────────────────────────────────────────────────────────────

// Mount serves the route table at the root.
func (r *Router) Mount(table *Table) { r.MountAt("", table) }

// MountAt serves the route table below basePath. Table paths are never
// parsed as chi patterns: one catch-all route looks the request path up in
// the table, so fragments containing '*' or '{' stay literal.
//
//	r.MountAt("/api", table) // GET /api/user/list → table.Lookup("/user/list")
func (r *Router) MountAt(basePath string, table *Table) {
	base := strings.TrimSuffix(Normalize(basePath, ""), "/")
	serve := func(mx chi.Router) {
		h := &tableHandler{table: table, base: base}
		mx.Handle("/", h)
		mx.Handle("/*", h)
	}
	if base == "" {
		serve(r.mux)
		return
	}
	r.mux.Route(base, serve)
}

type tableHandler struct {
	table *Table
	base  string
}

func (t *tableHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, t.base)
	if path == "" {
		path = "/"
	}
	h, ok := t.table.Lookup(path)
	if !ok {
		gohttp.NewResponse(w).NotFound()
		return
	}
	h.ServeHTTP(w, req)
}

// ── Middleware ───────────────────────────────────────────────────────────────

// RequestLogger logs one line per request through the framework logger.
func RequestLogger(l log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			defer func() {
				l.Infof("[http]%s %s %d %dB %s", req.Method, req.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
			}()
			next.ServeHTTP(ww, req)
		})
	}
}

// ServeHTTP implements http.Handler so Router can be passed to http.Server.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
