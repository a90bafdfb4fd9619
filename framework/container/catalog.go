package container

import (
	"fmt"
	"reflect"
	"sync"
)

// ── Provider interface ───────────────────────────────────────────────────────

// Provider contributes component descriptors to a Catalog. Application
// packages implement it so the bootstrap can resolve the names the scanner
// finds.
//
//	type AppProvider struct{}
//
//	func (AppProvider) Components() []*container.Descriptor {
//	    return []*container.Descriptor{
//	        container.Component[UserController](container.Controller(), container.Route("/user")),
//	    }
//	}
type Provider interface {
	Components() []*Descriptor
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() []*Descriptor

func (f ProviderFunc) Components() []*Descriptor { return f() }

// ── Catalog ──────────────────────────────────────────────────────────────────

// Catalog maps qualified names to descriptors. It plays the part of a
// class loader: scanned names are resolved against it.
type Catalog struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	order       []string
	installed   map[Provider]bool
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		descriptors: make(map[string]*Descriptor),
		installed:   make(map[Provider]bool),
	}
}

// Register adds descriptors. A name that is already registered is rejected
// with ErrDuplicateComponent; nil descriptors are ignored.
func (c *Catalog) Register(descriptors ...*Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range descriptors {
		if d == nil {
			continue
		}
		if _, ok := c.descriptors[d.name]; ok {
			return fmt.Errorf("catalog: %q: %w", d.name, ErrDuplicateComponent)
		}
		c.descriptors[d.name] = d
		c.order = append(c.order, d.name)
	}
	return nil
}

// Install registers the components of each provider. Installing the same
// comparable provider value twice is a no-op.
func (c *Catalog) Install(providers ...Provider) error {
	for _, p := range providers {
		if p == nil {
			continue
		}
		hashable := reflect.TypeOf(p).Comparable()
		if hashable && c.isInstalled(p) {
			continue
		}
		if err := c.Register(p.Components()...); err != nil {
			return err
		}
		if hashable {
			c.mu.Lock()
			c.installed[p] = true
			c.mu.Unlock()
		}
	}
	return nil
}

func (c *Catalog) isInstalled(p Provider) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.installed[p]
}

// Resolve returns the descriptor registered under name.
func (c *Catalog) Resolve(name string) (*Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.descriptors[name]
	if !ok {
		return nil, &TypeResolutionError{Name: name, Err: ErrUnknownType}
	}
	return d, nil
}

// Names returns the registered names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
