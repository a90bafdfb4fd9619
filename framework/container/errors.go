package container

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is wrapped by TypeResolutionError when no descriptor
	// is registered under a scanned name.
	ErrUnknownType = errors.New("no component registered under this name")

	// ErrDuplicateComponent is returned by Catalog.Register for a name that
	// already has a descriptor.
	ErrDuplicateComponent = errors.New("component already registered")
)

// TypeResolutionError reports a scanned name that could not be resolved to
// a descriptor. Non-fatal: the name is skipped.
type TypeResolutionError struct {
	Name string
	Err  error
}

func (e *TypeResolutionError) Error() string {
	return fmt.Sprintf("container: resolve type %q: %v", e.Name, e.Err)
}

func (e *TypeResolutionError) Unwrap() error { return e.Err }

// InstantiationError reports a constructor failure. Non-fatal: the type is skipped.
type InstantiationError struct {
	Name string
	Err  error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("container: instantiate %q: %v", e.Name, e.Err)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

// DuplicateBeanError reports a second, different instance registered under
// an existing bean name. Fatal.
type DuplicateBeanError struct {
	Name        string
	Existing    string // qualified type of the bound instance
	Conflicting string // qualified type of the rejected instance
}

func (e *DuplicateBeanError) Error() string {
	return fmt.Sprintf("container: bean %q already bound to %s, cannot bind %s", e.Name, e.Existing, e.Conflicting)
}

// DuplicateBindingError reports a capability satisfied by more than one
// service. Fatal: the application author has to disambiguate.
type DuplicateBindingError struct {
	Capability  string
	Existing    string // bean name already bound to the capability
	Conflicting string // bean name that tried to bind it again
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("container: ambiguous implementation: more than one service satisfies capability %s (%q and %q)",
		e.Capability, e.Existing, e.Conflicting)
}

// InjectionAccessError reports a field that could not be assigned.
// Non-fatal: the field is left untouched.
type InjectionAccessError struct {
	Bean  string
	Field string
	Err   error
}

func (e *InjectionAccessError) Error() string {
	return fmt.Sprintf("container: inject %s.%s: %v", e.Bean, e.Field, e.Err)
}

func (e *InjectionAccessError) Unwrap() error { return e.Err }

// UnresolvedDependencyError reports an autowired field whose target bean
// does not exist. Only returned with strict autowiring.
type UnresolvedDependencyError struct {
	Bean   string
	Field  string
	Target string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("container: inject %s.%s: no bean named %q", e.Bean, e.Field, e.Target)
}
