// Package demo is a small user-directory application assembled entirely by
// component scanning: a controller, a service behind an interface and an
// in-memory repository.
package demo

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/km-arc/go-spring/framework/container"
	gohttp "github.com/km-arc/go-spring/framework/http"
)

//go:embed resources
var resources embed.FS

// Resources returns the configuration resource tree.
func Resources() fs.FS {
	sub, err := fs.Sub(resources, "resources")
	if err != nil {
		panic(err)
	}
	return sub
}

// Classpath returns the tree the component scan walks.
func Classpath() fs.FS {
	sub, err := fs.Sub(resources, "resources/classpath")
	if err != nil {
		panic(err)
	}
	return sub
}

// ── Model ─────────────────────────────────────────────────────────────────────

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ── Repository ────────────────────────────────────────────────────────────────

type UserRepository struct {
	mu     sync.RWMutex
	users  map[int]User
	nextID int
}

func NewUserRepository() (*UserRepository, error) {
	return &UserRepository{users: map[int]User{
		1: {ID: 1, Name: "Alice"},
		2: {ID: 2, Name: "Bob"},
	}, nextID: 3}, nil
}

func (r *UserRepository) All() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *UserRepository) Find(id int) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}

func (r *UserRepository) Add(name string) User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := User{ID: r.nextID, Name: name}
	r.users[u.ID] = u
	r.nextID++
	return u
}

// ── Service ───────────────────────────────────────────────────────────────────

type UserService interface {
	List() []User
	Get(id int) (User, bool)
	Create(name string) (User, error)
}

type UserServiceImpl struct {
	repo *UserRepository `autowired:"userRepository"`
}

func (s *UserServiceImpl) List() []User           { return s.repo.All() }
func (s *UserServiceImpl) Get(id int) (User, bool) { return s.repo.Find(id) }

func (s *UserServiceImpl) Create(name string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, errors.New("name is required")
	}
	return s.repo.Add(name), nil
}

// ── Controller ────────────────────────────────────────────────────────────────

// UserController serves /user/list, /user/show?id=N and POST /user/create.
type UserController struct {
	userService UserService `autowired:""`
}

func (c *UserController) List(req *gohttp.Request, res *gohttp.Response) {
	res.Success(c.userService.List())
}

func (c *UserController) Show(req *gohttp.Request, res *gohttp.Response) {
	id, err := strconv.Atoi(req.Query("id"))
	if err != nil {
		res.Error(http.StatusBadRequest, "id must be a number")
		return
	}
	u, ok := c.userService.Get(id)
	if !ok {
		res.NotFound("user not found")
		return
	}
	res.Success(u)
}

func (c *UserController) Create(req *gohttp.Request, res *gohttp.Response) {
	if req.Method() != http.MethodPost {
		res.Error(http.StatusMethodNotAllowed, "use POST")
		return
	}
	if !req.IsJSON() {
		res.Error(http.StatusUnsupportedMediaType, "expected a JSON body")
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	u, err := c.userService.Create(body.Name)
	if err != nil {
		res.Error(http.StatusUnprocessableEntity, err.Error())
		return
	}
	res.JSON(http.StatusCreated, map[string]any{"data": u})
}

// ── Provider ──────────────────────────────────────────────────────────────────

// Provider registers the demo components under the "app" package.
type Provider struct{}

func (Provider) Components() []*container.Descriptor {
	return []*container.Descriptor{
		container.Component[UserController](
			container.Named("app.UserController"),
			container.Controller(),
			container.Route("/user"),
			container.RouteMethod("List", "list"),
			container.RouteMethod("Show", "show"),
			container.RouteMethod("Create", "create"),
		),
		container.Component[UserServiceImpl](
			container.Named("app.UserServiceImpl"),
			container.Service(""),
			container.Implements[UserService](),
		),
		container.Component[UserRepository](
			container.Named("app.UserRepository"),
			container.Service("userRepository"),
			container.Constructor(NewUserRepository),
		),
		container.Component[User](container.Named("app.User")),
	}
}
