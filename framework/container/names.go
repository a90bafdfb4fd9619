package container

import (
	"reflect"
	"strings"
)

// LowerFirst lowercases the first character when it is an ASCII letter A–Z.
// Everything else is left untouched, so LowerFirst(LowerFirst(s)) == LowerFirst(s).
//
//	LowerFirst("UserController") // "userController"
//	LowerFirst("Éclair")         // "Éclair"
func LowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+('a'-'A')) + s[1:]
}

// QualifiedName returns the dotted, package-qualified name of t. Pointer
// types are dereferenced, and the package path's slashes become dots.
//
//	QualifiedName(reflect.TypeOf(&app.UserController{}))
//	// "github.com.km-arc.go-spring.internal.demo.app.UserController"
func QualifiedName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return strings.ReplaceAll(t.PkgPath(), "/", ".") + "." + t.Name()
}

// TypeKey returns the qualified name of v's type, useful as a stable
// key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))
func TypeKey(v any) string {
	return QualifiedName(reflect.TypeOf(v))
}

// simpleName returns the last dotted segment of a qualified name.
func simpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
