package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/domain/event"
	"storefront/catalog/internal/filter"
	"storefront/catalog/internal/queue"
	"storefront/catalog/internal/repository"
	"storefront/catalog/internal/state"
	"storefront/catalog/internal/taxonomy"
)

// AttributeInput is the payload for creating an attribute.
type AttributeInput struct {
	Name           string               `json:"name"`
	SelectionType  domain.SelectionType `json:"type"`
	IsHierarchical bool                 `json:"isHierarchical"`
	IsActive       *bool                `json:"isActive"`
}

// TermInput is the payload for creating a term.
type TermInput struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// FilterAttribute is one block of the storefront filter sidebar.
type FilterAttribute struct {
	domain.Attribute
	Terms []*taxonomy.Node `json:"terms"`
}

// FormAttribute is one attribute offered on the admin product form.
type FormAttribute struct {
	domain.Attribute
	Terms []domain.Term `json:"terms"`
}

type TaxonomyService struct {
	attributes repository.AttributeRepository
	terms      repository.TermRepository
	cache      state.TaxonomyCache
	publisher  queue.Publisher

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

func NewTaxonomyService(
	attributes repository.AttributeRepository,
	terms repository.TermRepository,
	cache state.TaxonomyCache,
	publisher queue.Publisher,
) *TaxonomyService {
	return &TaxonomyService{
		attributes: attributes,
		terms:      terms,
		cache:      cache,
		publisher:  publisher,
		listeners:  make(map[int]func()),
	}
}

func (s *TaxonomyService) ListAttributes(ctx context.Context, activeOnly bool) ([]domain.Attribute, error) {
	return s.attributes.ListAttributes(ctx, activeOnly)
}

func (s *TaxonomyService) GetAttribute(ctx context.Context, id string) (*domain.Attribute, error) {
	return s.attributes.GetAttribute(ctx, id)
}

func (s *TaxonomyService) CreateAttribute(ctx context.Context, in AttributeInput) (*domain.Attribute, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("attribute name is required: %w", domain.ErrInvalidInput)
	}

	selectionType := in.SelectionType
	if selectionType == "" {
		selectionType = domain.SelectionTypeSingle
	}
	if !selectionType.IsValid() {
		return nil, fmt.Errorf("unknown selection type %q: %w", selectionType, domain.ErrInvalidInput)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attribute id: %w", err)
	}

	attribute := &domain.Attribute{
		ID:             id.String(),
		Name:           name,
		SelectionType:  selectionType,
		IsHierarchical: in.IsHierarchical,
		IsActive:       in.IsActive == nil || *in.IsActive,
	}
	if err := s.attributes.CreateAttribute(ctx, attribute); err != nil {
		return nil, err
	}

	log.Infof("✅ Created attribute %s (%s)", attribute.Name, attribute.ID)
	s.changed(ctx, &event.TaxonomyChanged{AttributeID: attribute.ID, Action: "create"})
	return attribute, nil
}

func (s *TaxonomyService) UpdateAttribute(ctx context.Context, id string, update domain.AttributeUpdate) (*domain.Attribute, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("attribute name must not be empty: %w", domain.ErrInvalidInput)
		}
		update.Name = &name
	}
	if update.SelectionType != nil && !update.SelectionType.IsValid() {
		return nil, fmt.Errorf("unknown selection type %q: %w", *update.SelectionType, domain.ErrInvalidInput)
	}

	if !update.IsEmpty() {
		if err := s.attributes.UpdateAttribute(ctx, id, update); err != nil {
			return nil, err
		}
		s.changed(ctx, &event.TaxonomyChanged{AttributeID: id, Action: "update"})
	}

	return s.attributes.GetAttribute(ctx, id)
}

// DeleteAttribute removes the attribute only. Its terms and product assignments are left behind.
func (s *TaxonomyService) DeleteAttribute(ctx context.Context, id string) error {
	if err := s.attributes.DeleteAttribute(ctx, id); err != nil {
		return err
	}

	log.Infof("🗑️ Deleted attribute %s", id)
	s.changed(ctx, &event.TaxonomyChanged{AttributeID: id, Action: "delete"})
	return nil
}

func (s *TaxonomyService) ListTerms(ctx context.Context, attributeID string) ([]domain.Term, error) {
	return s.terms.ListTerms(ctx, attributeID)
}

// CreateTerm validates the term and computes its ancestor path from the parent before the single write.
func (s *TaxonomyService) CreateTerm(ctx context.Context, attributeID string, in TermInput) (*domain.Term, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("term name is required: %w", domain.ErrInvalidInput)
	}

	attribute, err := s.attributes.GetAttribute(ctx, attributeID)
	if err != nil {
		return nil, err
	}

	term := &domain.Term{
		AttributeID: attribute.ID,
		Name:        name,
		Path:        []string{},
	}

	if in.ParentID != nil && *in.ParentID != "" {
		if !attribute.IsHierarchical {
			return nil, fmt.Errorf("attribute %s is not hierarchical: %w", attribute.ID, domain.ErrInvalidParent)
		}

		parent, err := s.terms.GetTerm(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("parent term %s does not exist: %w", *in.ParentID, domain.ErrInvalidParent)
			}
			return nil, err
		}
		if parent.AttributeID != attribute.ID {
			return nil, fmt.Errorf("parent term %s belongs to attribute %s: %w",
				parent.ID, parent.AttributeID, domain.ErrInvalidParent)
		}

		parentID := parent.ID
		term.ParentID = &parentID
		term.Path = parent.ChildPath()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate term id: %w", err)
	}
	term.ID = id.String()

	if err := s.terms.CreateTerm(ctx, term); err != nil {
		return nil, err
	}

	log.Infof("✅ Created term %s under attribute %s", term.Name, attribute.Name)
	s.changed(ctx, &event.TaxonomyChanged{AttributeID: attribute.ID, TermID: term.ID, Action: "create"})
	return term, nil
}

func (s *TaxonomyService) RenameTerm(ctx context.Context, id, name string) (*domain.Term, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("term name is required: %w", domain.ErrInvalidInput)
	}

	if err := s.terms.RenameTerm(ctx, id, name); err != nil {
		return nil, err
	}

	term, err := s.terms.GetTerm(ctx, id)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, &event.TaxonomyChanged{AttributeID: term.AttributeID, TermID: id, Action: "update"})
	return term, nil
}

// DeleteTerm removes only the term. Its children keep their parent reference and surface as roots.
func (s *TaxonomyService) DeleteTerm(ctx context.Context, id string) error {
	term, err := s.terms.GetTerm(ctx, id)
	if err != nil {
		return err
	}

	if err := s.terms.DeleteTerm(ctx, id); err != nil {
		return err
	}

	log.Infof("🗑️ Deleted term %s", id)
	s.changed(ctx, &event.TaxonomyChanged{AttributeID: term.AttributeID, TermID: id, Action: "delete"})
	return nil
}

// LoadTaxonomy returns the active attributes and their terms, from the cache when possible.
func (s *TaxonomyService) LoadTaxonomy(ctx context.Context) (*state.Taxonomy, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		log.Warnf("⚠️ Taxonomy cache unavailable, loading from database: %v", err)
	}
	if ok {
		return cached, nil
	}

	// Read before the database so a write that lands mid-load keeps this result out of the cache.
	generation, genErr := s.cache.Generation(ctx)

	attributes, err := s.attributes.ListAttributes(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load attributes: %w", err)
	}

	ids := make([]string, 0, len(attributes))
	for _, a := range attributes {
		ids = append(ids, a.ID)
	}

	terms, err := s.terms.ListTermsByAttributes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load terms: %w", err)
	}

	t := &state.Taxonomy{Attributes: attributes, Terms: terms}
	if genErr != nil {
		log.Warnf("⚠️ Taxonomy generation unavailable, not caching: %v", genErr)
		return t, nil
	}

	stored, err := s.cache.Set(ctx, generation, t)
	if err != nil {
		log.Warnf("⚠️ Failed to cache taxonomy: %v", err)
	} else if !stored {
		log.Debugf("Taxonomy not cached: cache disabled or changed while loading")
	}

	return t, nil
}

// LoadSnapshot never fails: when the taxonomy cannot be loaded the storefront filters without constraints.
func (s *TaxonomyService) LoadSnapshot(ctx context.Context) *filter.Snapshot {
	t, err := s.LoadTaxonomy(ctx)
	if err != nil {
		log.Errorf("❌ Failed to load taxonomy, filtering without attributes: %v", err)
		return filter.EmptySnapshot()
	}

	return filter.NewSnapshot(t.Attributes, t.Terms)
}

// FilterAttributes returns the sidebar: active attributes by name, each with its term tree.
func (s *TaxonomyService) FilterAttributes(ctx context.Context) []FilterAttribute {
	snap := s.LoadSnapshot(ctx)

	out := make([]FilterAttribute, 0, snap.Len())
	for _, a := range snap.Attributes() {
		terms := snap.Terms(a.ID)

		var nodes []*taxonomy.Node
		if a.IsHierarchical {
			nodes = taxonomy.BuildTree(append([]domain.Term(nil), terms...))
		} else {
			flat := append([]domain.Term(nil), terms...)
			taxonomy.SortTerms(flat)
			nodes = make([]*taxonomy.Node, 0, len(flat))
			for _, t := range flat {
				nodes = append(nodes, &taxonomy.Node{Term: t})
			}
		}

		out = append(out, FilterAttribute{Attribute: a, Terms: nodes})
	}

	return out
}

// ProductFormAttributes lists active attributes with flat term lists for the admin product form.
func (s *TaxonomyService) ProductFormAttributes(ctx context.Context) ([]FormAttribute, error) {
	t, err := s.LoadTaxonomy(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]FormAttribute, 0, len(t.Attributes))
	for _, a := range t.Attributes {
		terms := t.Terms[a.ID]
		if terms == nil {
			terms = []domain.Term{}
		}
		out = append(out, FormAttribute{Attribute: a, Terms: terms})
	}

	return out, nil
}

// OnChange registers fn to run whenever the taxonomy changes on any instance.
func (s *TaxonomyService) OnChange(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// HandleTaxonomyChanged reacts to a TaxonomyChanged event from the stream.
func (s *TaxonomyService) HandleTaxonomyChanged(ctx context.Context, data []byte) error {
	e, err := event.UnmarshalEvent[*event.TaxonomyChanged](data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal taxonomy event: %w", err)
	}

	log.Debugf("🔄 Taxonomy %s on attribute %s", e.Action, e.AttributeID)
	s.notify()
	return nil
}

func (s *TaxonomyService) notify() {
	s.mu.Lock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// changed runs after a committed mutation, so failures here are logged rather than returned.
func (s *TaxonomyService) changed(ctx context.Context, e *event.TaxonomyChanged) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warnf("⚠️ Failed to invalidate taxonomy cache: %v", err)
	}

	if _, err := s.publisher.Publish(ctx, e); err != nil {
		log.Errorf("❌ Failed to publish taxonomy change: %v", err)
	}
}
