package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"storefront/catalog/internal/config"
	"storefront/catalog/internal/domain"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CatalogClient interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// productPage is one page of the product catalog service listing.
type productPage struct {
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Items      []json.RawMessage `json:"items"`
}

type catalogClient struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client

	// Circuit breaker for quota exceeded
	circuitBreakerMutex sync.RWMutex
	quotaExceededUntil  time.Time
	circuitBreakerDelay time.Duration
}

func NewCatalogClient(cfg config.CatalogConfig) CatalogClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &catalogClient{
		rl:                  ratelimit.New(cfg.MaxRequestsPerSecond),
		httpClient:          client,
		circuitBreakerDelay: time.Duration(cfg.BreakerCooldown) * time.Second,
	}
}

// ListProducts walks every page of the catalog listing. Descriptions are reduced to plain text.
// An item that does not decode as a product is logged and skipped.
func (c *catalogClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0)

	for pageNumber := 1; ; pageNumber++ {
		var page productPage
		if err := c.fetchJSON(ctx, "/v1/products", nil, map[string]string{"page": fmt.Sprint(pageNumber)}, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch product page %d: %w", pageNumber, err)
		}

		for i, item := range page.Items {
			var p domain.Product
			if err := json.Unmarshal(item, &p); err != nil {
				log.Warnf("⚠️ Skipping item %d on product page %d: %v", i, pageNumber, err)
				continue
			}
			p.Description = PlainText(p.Description)
			products = append(products, p)
		}

		if pageNumber >= page.TotalPages || len(page.Items) == 0 {
			break
		}
	}

	log.Debugf("Fetched %d products from catalog service", len(products))
	return products, nil
}

func (c *catalogClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.fetchJSON(ctx, "/v1/products/{id}", map[string]string{"id": id}, nil, &p); err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}

	p.Description = PlainText(p.Description)
	return &p, nil
}

func (c *catalogClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.quotaExceededUntil)
	wasTriggered := !c.quotaExceededUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		if !c.quotaExceededUntil.IsZero() && now.After(c.quotaExceededUntil) {
			c.quotaExceededUntil = time.Time{}
			log.Infof("✅ Circuit breaker automatically re-enabled - requests are now allowed")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *catalogClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.quotaExceededUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Catalog requests disabled until %v (%v)",
		c.quotaExceededUntil.Format("15:04:05"), c.circuitBreakerDelay)
}

func (c *catalogClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.quotaExceededUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// fetchJSON GETs path with its {placeholders} filled from pathParams, escaped.
func (c *catalogClient) fetchJSON(ctx context.Context, path string, pathParams, query map[string]string, out any) error {
	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return fmt.Errorf("%w: requests disabled for %v more", ErrCircuitOpen, remaining.Round(time.Second))
	}

	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParams(pathParams).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	body := resp.String()
	if resp.StatusCode() == http.StatusTooManyRequests || strings.Contains(body, "Quota Exceeded") {
		log.Warnf("🚫 Rate limit exceeded for %s", path)
		c.triggerCircuitBreaker()
		return fmt.Errorf("quota exceeded - circuit breaker activated for %v", c.circuitBreakerDelay)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}

	if resp.IsError() {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}
