// Package sandbox is an in-memory stand-in for the shop backend.
//
// It answers the GraphQL documents the client sends by root field name.
// Arguments are read from the request variables only; selection sets are
// ignored and full records are returned. Good enough to drive the client
// end to end without network access to the real service.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/catalog"
)

var (
	// ErrUnauthorized is returned when an operation needs a bearer token.
	ErrUnauthorized = errors.New("authentication required")
	// ErrLoginTaken is returned when registering an existing login.
	ErrLoginTaken = errors.New("login already taken")
	// ErrCredentialsRequired is returned for registrations without login or password.
	ErrCredentialsRequired = errors.New("login and password are required")
	// ErrUnknownGood is returned for order lines referencing a missing good.
	ErrUnknownGood = errors.New("unknown good")
)

// IDGenerator hands out ids for new users and orders.
type IDGenerator interface {
	NewID() string
}

// UUIDv7IDs generates time-sortable UUIDv7 ids.
type UUIDv7IDs struct{}

// NewID returns a new hyphenated UUIDv7.
func (UUIDv7IDs) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

type user struct {
	id    string
	login string
	hash  []byte
}

// Backend holds the sandbox data. Safe for concurrent use.
type Backend struct {
	mu         sync.Mutex
	categories []SeedCategory
	goods      map[string]SeedGood
	goodOrder  []string
	users      map[string]user
	orders     map[string][]catalog.Order

	tokens tokenIssuer
	ids    IDGenerator
	now    func() time.Time
	cost   int
}

// Config parameterizes a Backend. Zero fields take defaults.
type Config struct {
	// Secret signs issued tokens. Defaults to a fixed development secret.
	Secret string
	// IDs generates new entity ids. Defaults to UUIDv7IDs.
	IDs IDGenerator
	// Now is the clock used for order timestamps and token iat.
	Now func() time.Time
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// DevSecret is the default token secret. The sandbox is not meant to be
// exposed beyond a developer machine.
const DevSecret = "storefront-sandbox"

// NewBackend loads seed into a fresh Backend.
func NewBackend(seed *Seed, cfg Config) (*Backend, error) {
	if cfg.Secret == "" {
		cfg.Secret = DevSecret
	}
	if cfg.IDs == nil {
		cfg.IDs = UUIDv7IDs{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	b := &Backend{
		categories: slices.Clone(seed.Categories),
		goods:      make(map[string]SeedGood, len(seed.Goods)),
		users:      make(map[string]user, len(seed.Users)),
		orders:     make(map[string][]catalog.Order),
		tokens:     tokenIssuer{secret: []byte(cfg.Secret)},
		ids:        cfg.IDs,
		now:        cfg.Now,
		cost:       cfg.BcryptCost,
	}
	for _, g := range seed.Goods {
		b.goods[g.ID] = g
		b.goodOrder = append(b.goodOrder, g.ID)
	}
	for _, u := range seed.Users {
		if _, err := b.Register(u.Login, u.Password); err != nil {
			return nil, fmt.Errorf("seed user %q: %w", u.Login, err)
		}
	}
	return b, nil
}

// Register creates a user.
func (b *Backend) Register(login, password string) (catalog.User, error) {
	if login == "" || password == "" {
		return catalog.User{}, ErrCredentialsRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return catalog.User{}, fmt.Errorf("could not hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[login]; exists {
		return catalog.User{}, ErrLoginTaken
	}
	u := user{id: b.ids.NewID(), login: login, hash: hash}
	b.users[login] = u
	return catalog.User{ID: u.id, Login: u.login}, nil
}

// Login returns a signed token, or nil for unknown users and wrong
// passwords.
func (b *Backend) Login(login, password string) (*string, error) {
	b.mu.Lock()
	u, ok := b.users[login]
	b.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not verify password: %w", err)
	}

	token, err := b.tokens.issue(Subject{ID: u.id, Login: u.login}, b.now())
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Authenticate resolves a bearer token to its subject.
func (b *Backend) Authenticate(token string) (Subject, error) {
	sub, err := b.tokens.verify(token)
	if err != nil {
		return Subject{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if u, ok := b.users[sub.Login]; !ok || u.id != sub.ID {
		return Subject{}, ErrInvalidToken
	}
	return sub, nil
}

// filter is the first element of a backend query argument such as
// `[{"_id":"x"}]` or `[{"parent":null}]`.
type filter map[string]any

func parseFilter(q string) (filter, error) {
	if q == "" {
		return filter{}, nil
	}
	var filters []filter
	if err := json.Unmarshal([]byte(q), &filters); err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", q, err)
	}
	if len(filters) == 0 || filters[0] == nil {
		return filter{}, nil
	}
	return filters[0], nil
}

func (f filter) matches(id, parent string) bool {
	if want, ok := f["_id"]; ok && want != id {
		return false
	}
	if want, ok := f["parent"]; ok {
		if want == nil {
			return parent == ""
		}
		return want == parent
	}
	return true
}

// CategoryFind lists categories matching q, without goods.
func (b *Backend) CategoryFind(q string) ([]catalog.Category, error) {
	f, err := parseFilter(q)
	if err != nil {
		return nil, err
	}
	out := []catalog.Category{}
	for _, c := range b.categories {
		if f.matches(c.ID, c.Parent) {
			out = append(out, catalog.Category{ID: c.ID, Name: c.Name})
		}
	}
	return out, nil
}

// CategoryFindOne returns the first category matching q with its goods and
// subcategories, or nil.
func (b *Backend) CategoryFindOne(q string) (*catalog.Category, error) {
	f, err := parseFilter(q)
	if err != nil {
		return nil, err
	}
	for _, c := range b.categories {
		if !f.matches(c.ID, c.Parent) {
			continue
		}
		cat := &catalog.Category{ID: c.ID, Name: c.Name}
		for _, sub := range b.categories {
			if sub.Parent == c.ID {
				cat.SubCategories = append(cat.SubCategories, catalog.Category{ID: sub.ID, Name: sub.Name})
			}
		}
		for _, id := range b.goodOrder {
			g := b.goods[id]
			if slices.Contains(g.Categories, c.ID) {
				good := g.Good
				good.Description = ""
				cat.Goods = append(cat.Goods, good)
			}
		}
		return cat, nil
	}
	return nil, nil
}

// GoodFindOne returns the first good matching q, or nil.
func (b *Backend) GoodFindOne(q string) (*catalog.Good, error) {
	f, err := parseFilter(q)
	if err != nil {
		return nil, err
	}
	for _, id := range b.goodOrder {
		if f.matches(id, "") {
			good := b.goods[id].Good
			return &good, nil
		}
	}
	return nil, nil
}

// OrderFind lists the subject's orders, oldest first.
func (b *Backend) OrderFind(sub Subject) []catalog.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]catalog.Order{}, b.orders[sub.ID]...)
}

// OrderUpsert places an order for the subject, pricing every line from the
// catalog.
func (b *Backend) OrderUpsert(sub Subject, lines []catalog.OrderLine) (catalog.Order, error) {
	order := catalog.Order{
		CreatedAt: strconv.FormatInt(b.now().UnixMilli(), 10),
	}
	for _, line := range lines {
		g, ok := b.goods[line.Good.ID]
		if !ok {
			return catalog.Order{}, fmt.Errorf("%w: %q", ErrUnknownGood, line.Good.ID)
		}
		if line.Count < 1 {
			continue
		}
		order.OrderGoods = append(order.OrderGoods, catalog.OrderGood{
			ID:    b.ids.NewID(),
			Price: g.Price,
			Count: line.Count,
			Good:  g.Good,
		})
		order.Total += g.Price * float64(line.Count)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	order.ID = b.ids.NewID()
	b.orders[sub.ID] = append(b.orders[sub.ID], order)
	return order, nil
}
