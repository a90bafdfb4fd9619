package routing

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/km-arc/go-spring/framework/container"
	gohttp "github.com/km-arc/go-spring/framework/http"
)

var (
	responseWriterType = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
	requestType        = reflect.TypeOf((*http.Request)(nil))
	gohttpRequestType  = reflect.TypeOf((*gohttp.Request)(nil))
	gohttpResponseType = reflect.TypeOf((*gohttp.Response)(nil))
)

type signature int

const (
	sigOther signature = iota
	sigStd             // func(http.ResponseWriter, *http.Request)
	sigWrapped         // func(*gohttp.Request, *gohttp.Response)
)

// Handler is a method bound to the bean that owns it. The bean stays owned
// by the container; the handler only references it.
type Handler struct {
	bean   *container.Bean
	method reflect.Method
	fn     reflect.Value
	sig    signature
}

func newHandler(bean *container.Bean, method reflect.Method) *Handler {
	fn := reflect.ValueOf(bean.Instance).Method(method.Index)
	return &Handler{bean: bean, method: method, fn: fn, sig: signatureOf(fn.Type())}
}

func signatureOf(t reflect.Type) signature {
	if t.NumIn() != 2 || t.NumOut() != 0 {
		return sigOther
	}
	switch {
	case t.In(0) == responseWriterType && t.In(1) == requestType:
		return sigStd
	case t.In(0) == gohttpRequestType && t.In(1) == gohttpResponseType:
		return sigWrapped
	}
	return sigOther
}

// Bean returns the owning bean.
func (h *Handler) Bean() *container.Bean { return h.bean }

// Method returns the method name.
func (h *Handler) Method() string { return h.method.Name }

// Name returns "SimpleName.Method", e.g. "UserController.List".
func (h *Handler) Name() string {
	owner := reflect.TypeOf(h.bean.Instance)
	for owner.Kind() == reflect.Pointer {
		owner = owner.Elem()
	}
	simple := owner.Name()
	if h.bean.Descriptor != nil {
		simple = h.bean.Descriptor.SimpleName()
	}
	return simple + "." + h.method.Name
}

// Call invokes the method with args and returns its results.
func (h *Handler) Call(args ...any) (out []any, err error) {
	t := h.fn.Type()
	if t.IsVariadic() || len(args) != t.NumIn() {
		return nil, fmt.Errorf("routing: %s takes %d argument(s), got %d", h.Name(), t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := t.In(i)
		if a == nil {
			switch want.Kind() {
			case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
				in[i] = reflect.Zero(want)
				continue
			}
			return nil, fmt.Errorf("routing: %s argument %d: nil for %s", h.Name(), i, want)
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(want) {
			return nil, fmt.Errorf("routing: %s argument %d: %s is not assignable to %s", h.Name(), i, v.Type(), want)
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("routing: %s panicked: %v", h.Name(), r)
		}
	}()
	results := h.fn.Call(in)
	out = make([]any, len(results))
	for i, r := range results {
		out[i] = r.Interface()
	}
	return out, nil
}

// ServeHTTP dispatches to methods shaped like an http.HandlerFunc or
// taking (*gohttp.Request, *gohttp.Response). Anything else answers 501.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch h.sig {
	case sigStd:
		h.fn.Call([]reflect.Value{reflect.ValueOf(w), reflect.ValueOf(r)})
	case sigWrapped:
		h.fn.Call([]reflect.Value{reflect.ValueOf(gohttp.NewRequest(r)), reflect.ValueOf(gohttp.NewResponse(w))})
	default:
		gohttp.NewResponse(w).NotImplemented(h.Name() + " cannot serve HTTP requests")
	}
}
