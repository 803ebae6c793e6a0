package filter

import (
	"sync"

	"storefront/catalog/internal/domain"
)

// Session is the single recomputation entry point for one shopper's view. Any change to
// the product set, the taxonomy snapshot or the selection recomputes the result from the
// full current state; results are never patched incrementally.
type Session struct {
	mu        sync.Mutex
	products  []domain.Product
	snapshot  *Snapshot
	selection domain.Selection
	result    []domain.Product
	onResult  func([]domain.Product)
}

// NewSession creates a session with no products, an empty taxonomy and an empty selection.
// onResult, if non-nil, receives every recomputed result while the session lock is held,
// so it must not call back into the session.
func NewSession(onResult func([]domain.Product)) *Session {
	return &Session{
		snapshot:  EmptySnapshot(),
		selection: domain.NewSelection(),
		result:    []domain.Product{},
		onResult:  onResult,
	}
}

// SetProducts replaces the product set, typically with a projection snapshot.
func (s *Session) SetProducts(products []domain.Product) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	return s.recompute()
}

// SetSnapshot replaces the taxonomy snapshot. A nil snapshot resets to empty.
func (s *Session) SetSnapshot(snap *Snapshot) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap == nil {
		snap = EmptySnapshot()
	}
	s.snapshot = snap
	return s.recompute()
}

func (s *Session) SetSelection(sel domain.Selection) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
	return s.recompute()
}

// Toggle applies exclusive-choice toggling for one attribute and recomputes.
func (s *Session) Toggle(attributeID, termID string) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = s.selection.Toggle(attributeID, termID)
	return s.recompute()
}

func (s *Session) Selection() domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Result returns the most recent result.
func (s *Session) Result() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) recompute() []domain.Product {
	s.result = Filter(s.products, s.selection, s.snapshot)
	if s.onResult != nil {
		s.onResult(s.result)
	}
	return s.result
}
