package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/domain/event"
	"storefront/catalog/internal/state"
)

var errStoreDown = errors.New("store unavailable")

type fakeAttributes struct {
	items map[string]domain.Attribute
	fail  bool
	lists int
}

func newFakeAttributes(attrs ...domain.Attribute) *fakeAttributes {
	f := &fakeAttributes{items: make(map[string]domain.Attribute)}
	for _, a := range attrs {
		f.items[a.ID] = a
	}
	return f
}

func (f *fakeAttributes) ListAttributes(_ context.Context, activeOnly bool) ([]domain.Attribute, error) {
	f.lists++
	if f.fail {
		return nil, errStoreDown
	}
	out := make([]domain.Attribute, 0, len(f.items))
	for _, a := range f.items {
		if activeOnly && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeAttributes) GetAttribute(_ context.Context, id string) (*domain.Attribute, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("attribute %s: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (f *fakeAttributes) CreateAttribute(_ context.Context, a *domain.Attribute) error {
	f.items[a.ID] = *a
	return nil
}

func (f *fakeAttributes) UpdateAttribute(_ context.Context, id string, u domain.AttributeUpdate) error {
	a, ok := f.items[id]
	if !ok {
		return fmt.Errorf("attribute %s: %w", id, domain.ErrNotFound)
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.SelectionType != nil {
		a.SelectionType = *u.SelectionType
	}
	if u.IsHierarchical != nil {
		a.IsHierarchical = *u.IsHierarchical
	}
	if u.IsActive != nil {
		a.IsActive = *u.IsActive
	}
	f.items[id] = a
	return nil
}

func (f *fakeAttributes) DeleteAttribute(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return fmt.Errorf("attribute %s: %w", id, domain.ErrNotFound)
	}
	delete(f.items, id)
	return nil
}

type fakeTerms struct {
	items  map[string]domain.Term
	writes int
	// afterList runs once, after ListTermsByAttributes has read its result.
	afterList func()
}

func newFakeTerms(terms ...domain.Term) *fakeTerms {
	f := &fakeTerms{items: make(map[string]domain.Term)}
	for _, t := range terms {
		f.items[t.ID] = t
	}
	return f
}

func (f *fakeTerms) ListTerms(_ context.Context, attributeID string) ([]domain.Term, error) {
	out := make([]domain.Term, 0)
	for _, t := range f.items {
		if t.AttributeID == attributeID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTerms) ListTermsByAttributes(ctx context.Context, ids []string) (map[string][]domain.Term, error) {
	out := make(map[string][]domain.Term, len(ids))
	for _, id := range ids {
		out[id], _ = f.ListTerms(ctx, id)
	}
	if hook := f.afterList; hook != nil {
		f.afterList = nil
		hook()
	}
	return out, nil
}

func (f *fakeTerms) GetTerm(_ context.Context, id string) (*domain.Term, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("term %s: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (f *fakeTerms) CreateTerm(_ context.Context, t *domain.Term) error {
	f.writes++
	f.items[t.ID] = *t
	return nil
}

func (f *fakeTerms) RenameTerm(_ context.Context, id, name string) error {
	t, ok := f.items[id]
	if !ok {
		return fmt.Errorf("term %s: %w", id, domain.ErrNotFound)
	}
	f.writes++
	t.Name = name
	f.items[id] = t
	return nil
}

func (f *fakeTerms) DeleteTerm(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return fmt.Errorf("term %s: %w", id, domain.ErrNotFound)
	}
	f.writes++
	delete(f.items, id)
	return nil
}

type fakeCache struct {
	value       *state.Taxonomy
	generation  int64
	invalidated int
}

func (f *fakeCache) Get(context.Context) (*state.Taxonomy, bool, error) {
	return f.value, f.value != nil, nil
}

func (f *fakeCache) Generation(context.Context) (int64, error) {
	return f.generation, nil
}

func (f *fakeCache) Set(_ context.Context, generation int64, t *state.Taxonomy) (bool, error) {
	if generation != f.generation {
		return false, nil
	}
	f.value = t
	return true, nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidated++
	f.generation++
	f.value = nil
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (f *fakePublisher) Publish(_ context.Context, e event.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return fmt.Sprintf("%d-0", len(f.events)), nil
}
