// Package projection keeps the live, in-memory product list the storefront filters over.
package projection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/domain/event"
)

// ProductSource is where product snapshots are read from: the shared products table or the
// product catalog service.
type ProductSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type Projection struct {
	source      ProductSource
	resyncEvery time.Duration

	refreshMu sync.Mutex

	mu          sync.RWMutex
	products    []domain.Product
	loaded      bool
	subscribers map[int]func([]domain.Product)
	nextID      int
}

func New(source ProductSource, resyncEvery time.Duration) *Projection {
	return &Projection{
		source:      source,
		resyncEvery: resyncEvery,
		products:    []domain.Product{},
		subscribers: make(map[int]func([]domain.Product)),
	}
}

// Products returns the current snapshot. The slice is replaced, never mutated, on refresh.
func (p *Projection) Products() []domain.Product {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.products
}

func (p *Projection) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// Product looks id up in the snapshot, falling back to the source. Inactive products are not found.
func (p *Projection) Product(ctx context.Context, id string) (*domain.Product, error) {
	for _, product := range p.Products() {
		if product.ID == id {
			return &product, nil
		}
	}

	product, err := p.source.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsVisible() {
		return nil, fmt.Errorf("product %s is inactive: %w", id, domain.ErrNotFound)
	}
	return product, nil
}

// Subscribe calls fn with every new snapshot, starting with the current one when it is loaded.
func (p *Projection) Subscribe(fn func([]domain.Product)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	current, loaded := p.products, p.loaded
	p.mu.Unlock()

	if loaded {
		fn(current)
	}

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Refresh reloads the full product list. On failure the last good snapshot stays in place.
func (p *Projection) Refresh(ctx context.Context) error {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	all, err := p.source.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh products: %w", err)
	}

	products := visibleByTitle(all)

	p.mu.Lock()
	p.products = products
	p.loaded = true
	subscribers := make([]func([]domain.Product), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subscribers = append(subscribers, fn)
	}
	p.mu.Unlock()

	log.Debugf("🔄 Product snapshot refreshed: %d visible of %d", len(products), len(all))
	for _, fn := range subscribers {
		fn(products)
	}

	return nil
}

// Run loads the initial snapshot and then resyncs periodically until ctx is cancelled.
func (p *Projection) Run(ctx context.Context) error {
	if err := p.Refresh(ctx); err != nil {
		log.Errorf("❌ Initial product load failed, serving an empty catalog: %v", err)
	} else {
		log.Infof("✅ Loaded %d products", len(p.Products()))
	}

	if p.resyncEvery <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(p.resyncEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("❌ Periodic product resync failed: %v", err)
			}
		}
	}
}

// HandleProductsChanged reloads the snapshot in response to a ProductsChanged event.
func (p *Projection) HandleProductsChanged(ctx context.Context, data []byte) error {
	e, err := event.UnmarshalEvent[*event.ProductsChanged](data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal products event: %w", err)
	}

	log.Debugf("🔄 Products changed (%s, %d ids), reloading", e.Reason, len(e.ProductIDs))
	return p.Refresh(ctx)
}

func visibleByTitle(all []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(all))
	for _, product := range all {
		if product.IsVisible() {
			out = append(out, product)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}
