package container

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Autowire assigns every autowired field of every bean from the container.
// Unexported fields are written too.
//
// The target is the tag's label when non-blank, otherwise the field type's
// qualified name. A missing target is skipped with a warning, or returned
// as UnresolvedDependencyError under WithStrictAutowire. Assignment
// failures are recorded as InjectionAccessError and never stop the rest of
// the wiring.
func (c *Container) Autowire() error {
	for _, bean := range c.Beans() {
		target := reflect.ValueOf(bean.Instance)
		if target.Kind() != reflect.Pointer || target.IsNil() || target.Elem().Kind() != reflect.Struct {
			continue
		}
		elem := target.Elem()

		injections := injectionsOf(target.Type())
		if bean.Descriptor != nil && bean.Descriptor.Type() == elem.Type() {
			injections = bean.Descriptor.Injections()
		}

		for _, inj := range injections {
			name := inj.Label
			if name == "" {
				name = QualifiedName(inj.Field.Type)
			}

			value, ok := c.Lookup(name)
			if !ok {
				missing := &UnresolvedDependencyError{Bean: bean.Name, Field: inj.Field.Name, Target: name}
				if c.strictAutowire {
					c.logger.Errorf("[container]%v", missing)
					return missing
				}
				c.warn(missing)
				continue
			}

			if err := assign(elem.Field(inj.Field.Index[0]), value); err != nil {
				c.warn(&InjectionAccessError{Bean: bean.Name, Field: inj.Field.Name, Err: err})
				continue
			}
			c.logger.Debugf("[container]injected %s.%s <- %q", bean.Name, inj.Field.Name, name)
		}
	}
	return nil
}

// assign writes value into dst, bypassing the exported-field restriction.
func assign(dst reflect.Value, value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	src := reflect.ValueOf(value)
	if !src.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("%s is not assignable to %s", src.Type(), dst.Type())
	}
	if !dst.CanSet() {
		dst = reflect.NewAt(dst.Type(), unsafe.Pointer(dst.UnsafeAddr())).Elem()
	}
	dst.Set(src)
	return nil
}
