// Package container provides the component catalog and the instance
// registry (IoC container) filled by the startup sequence.
//
// # Overview
//
// Go has no runtime class loading, so components are declared explicitly
// with descriptors. A descriptor carries everything an annotation would:
// the capability markers (controller, service, route), the interfaces the
// component satisfies, its constructor and its routes. Injectable fields
// are marked with the `autowired` struct tag.
//
// # Lifecycle
//
//  1. Describe:    catalog.Register(container.Component[UserController](...))
//  2. Scan:        names, _ := scanner.New(fsys).Scan("app")
//  3. Instantiate: c.Instantiate(catalog, names)
//  4. Autowire:    c.Autowire()
//  5. Serve:       routes are built from c by the routing package
//
// # Descriptors
//
//	type UserService interface{ List() []string }
//
//	type UserServiceImpl struct {
//	    repo *UserRepository `autowired:"userRepository"`
//	}
//
//	catalog.Register(
//	    container.Component[UserServiceImpl](
//	        container.Named("app.UserServiceImpl"),
//	        container.Service(""),
//	        container.Implements[UserService](),
//	    ),
//	    container.Component[UserController](
//	        container.Named("app.UserController"),
//	        container.Controller(),
//	        container.Route("/user"),
//	        container.RouteMethod("List", "list"),
//	    ),
//	)
//
// # Bean names
//
// Controllers register under LowerFirst of their simple name. Services
// register under their label, or LowerFirst of their simple name, and are
// additionally bound under LowerFirst of each capability's name:
//
//	userServiceImpl → *UserServiceImpl
//	userService     → the same *UserServiceImpl
//
// Two services satisfying the same capability fail with
// DuplicateBindingError; two instances under one name fail with
// DuplicateBeanError.
//
// # Resolving
//
//	raw := c.Make("userService")
//	svc := container.Resolve[UserService](c, "userService")
//	svc, ok := container.TryResolve[UserService](c, "userService")
package container
