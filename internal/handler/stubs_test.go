package handler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/catalog/internal/auth"
	"storefront/catalog/internal/config"
	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/filter"
	"storefront/catalog/internal/service"
	"storefront/catalog/internal/taxonomy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testAuth = config.AuthConfig{JWTSecret: "handler-secret"}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testAuth.JWTSecret))
	require.NoError(t, err)
	return signed
}

func strPtr(s string) *string { return &s }

// Category: Coffee -> Espresso -> Single Origin, Tea. Roast: Light, Dark.
func coffeeSnapshot() *filter.Snapshot {
	return filter.NewSnapshot(
		[]domain.Attribute{
			{ID: "cat", Name: "Category", SelectionType: domain.SelectionTypeSingle, IsHierarchical: true, IsActive: true},
			{ID: "roast", Name: "Roast", SelectionType: domain.SelectionTypeSingle, IsActive: true},
		},
		map[string][]domain.Term{
			"cat": {
				{ID: "coffee", AttributeID: "cat", Name: "Coffee", Path: []string{}},
				{ID: "espresso", AttributeID: "cat", Name: "Espresso", ParentID: strPtr("coffee"), Path: []string{"coffee"}},
				{ID: "single", AttributeID: "cat", Name: "Single Origin", ParentID: strPtr("espresso"), Path: []string{"coffee", "espresso"}},
				{ID: "tea", AttributeID: "cat", Name: "Tea", Path: []string{}},
			},
			"roast": {
				{ID: "light", AttributeID: "roast", Name: "Light", Path: []string{}},
				{ID: "dark", AttributeID: "roast", Name: "Dark", Path: []string{}},
			},
		},
	)
}

func item(id, title string, price int64, attrs map[string]string) domain.Product {
	return domain.Product{ID: id, Title: title, Price: decimal.NewFromInt(price), Attributes: attrs}
}

func catalogProducts() []domain.Product {
	return []domain.Product{
		item("P1", "Brazil Santos", 100, map[string]string{"cat": "coffee", "roast": "dark"}),
		item("P2", "Lungo Blend", 200, map[string]string{"cat": "espresso", "roast": "light"}),
		item("P3", "Yirgacheffe", 300, map[string]string{"cat": "single", "roast": "dark"}),
		item("P4", "Earl Grey", 150, map[string]string{"cat": "tea"}),
		item("P5", "Mystery Bag", 120, map[string]string{"cat": "deleted-term"}),
	}
}

type stubTaxonomy struct {
	mu        sync.Mutex
	snapshot  *filter.Snapshot
	listeners []func()
}

func (s *stubTaxonomy) LoadSnapshot(context.Context) *filter.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *stubTaxonomy) FilterAttributes(ctx context.Context) []service.FilterAttribute {
	snap := s.LoadSnapshot(ctx)
	out := make([]service.FilterAttribute, 0, snap.Len())
	for _, a := range snap.Attributes() {
		out = append(out, service.FilterAttribute{Attribute: a, Terms: taxonomy.BuildTree(snap.Terms(a.ID))})
	}
	return out
}

func (s *stubTaxonomy) OnChange(fn func()) func() {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
	return func() {}
}

func (s *stubTaxonomy) change(snapshot *filter.Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (s *stubTaxonomy) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// withoutRoast is coffeeSnapshot after Roast was deactivated.
func withoutRoast() *filter.Snapshot {
	full := coffeeSnapshot()
	return filter.NewSnapshot(
		[]domain.Attribute{full.Attributes()[0]},
		map[string][]domain.Term{"cat": full.Terms("cat")},
	)
}

type stubCatalog struct {
	mu          sync.Mutex
	products    []domain.Product
	subscribers []func([]domain.Product)
}

func (s *stubCatalog) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products
}

func (s *stubCatalog) Product(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.Products() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

func (s *stubCatalog) Subscribe(fn func([]domain.Product)) func() {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	current := s.products
	s.mu.Unlock()
	fn(current)
	return func() {}
}

func (s *stubCatalog) push(products []domain.Product) {
	s.mu.Lock()
	s.products = products
	subscribers := append(([]func([]domain.Product))(nil), s.subscribers...)
	s.mu.Unlock()
	for _, fn := range subscribers {
		fn(products)
	}
}

func (s *stubCatalog) subscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

type stubAdmin struct {
	attributes []domain.Attribute
	err        error
	created    *service.AttributeInput
	termInput  *service.TermInput
}

func (s *stubAdmin) ListAttributes(context.Context, bool) ([]domain.Attribute, error) {
	return s.attributes, s.err
}

func (s *stubAdmin) CreateAttribute(_ context.Context, in service.AttributeInput) (*domain.Attribute, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &in
	return &domain.Attribute{ID: "new", Name: in.Name, SelectionType: in.SelectionType, IsActive: true}, nil
}

func (s *stubAdmin) UpdateAttribute(_ context.Context, id string, u domain.AttributeUpdate) (*domain.Attribute, error) {
	if s.err != nil {
		return nil, s.err
	}
	a := domain.Attribute{ID: id, Name: "Roast", SelectionType: domain.SelectionTypeSingle, IsActive: true}
	if u.IsActive != nil {
		a.IsActive = *u.IsActive
	}
	return &a, nil
}

func (s *stubAdmin) DeleteAttribute(context.Context, string) error { return s.err }

func (s *stubAdmin) ListTerms(context.Context, string) ([]domain.Term, error) {
	return []domain.Term{}, s.err
}

func (s *stubAdmin) CreateTerm(_ context.Context, attributeID string, in service.TermInput) (*domain.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.termInput = &in
	return &domain.Term{ID: "t-new", AttributeID: attributeID, Name: in.Name, ParentID: in.ParentID, Path: []string{}}, nil
}

func (s *stubAdmin) RenameTerm(_ context.Context, id, name string) (*domain.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Term{ID: id, Name: name, Path: []string{}}, nil
}

func (s *stubAdmin) DeleteTerm(context.Context, string) error { return s.err }

func (s *stubAdmin) ProductFormAttributes(context.Context) ([]service.FormAttribute, error) {
	return []service.FormAttribute{}, s.err
}

func newTestRouter(tax *stubTaxonomy, cat *stubCatalog, admin *stubAdmin) *gin.Engine {
	return NewRouter(NewStoreHandler(tax, cat), NewAdminHandler(admin), auth.NewVerifier(testAuth))
}
