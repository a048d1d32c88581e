// Package recommend is an HTTP client for the product recommendation service.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"onsalenow.io/analytics/internal/domain"
)

// Client implements application.Recommender against the recommendation service.
type Client struct {
	baseURL    string // e.g. "http://recommender:8000"
	httpClient *http.Client

	// Home recommendations are shared by every visitor, so they are cached briefly.
	mu        sync.RWMutex
	cacheTTL  time.Duration
	cacheData map[string]cacheEntry // key: "home:<topN>"
}

type cacheEntry struct {
	data      []domain.ProductSummary
	expiresAt time.Time
}

// New creates a Client with the given request timeout and home-page cache TTL.
func New(baseURL string, timeout, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cacheTTL:   cacheTTL,
		cacheData:  make(map[string]cacheEntry),
	}
}

// Home returns topN products for the storefront home page.
func (c *Client) Home(ctx context.Context, topN int) ([]domain.ProductSummary, error) {
	cacheKey := "home:" + strconv.Itoa(topN)
	if cached, ok := c.fromCache(cacheKey); ok {
		return cached, nil
	}

	u := c.baseURL + "/recommendations/home?" + url.Values{"top_n": {strconv.Itoa(topN)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	products, err := c.do(req, "recommendations/home")
	if err != nil {
		return nil, err
	}
	c.toCache(cacheKey, products)
	return products, nil
}

// forYouRequest is the body of POST /recommendations/for-you-subscribed.
type forYouRequest struct {
	BrandNames    []string `json:"brand_names"`
	CategoryNames []string `json:"category_names"`
	TopN          int      `json:"top_n"`
}

// ForYou returns products matching the subscribed brands or categories.
func (c *Client) ForYou(ctx context.Context, brands, categories []string, topN int) ([]domain.ProductSummary, error) {
	if brands == nil {
		brands = []string{}
	}
	if categories == nil {
		categories = []string{}
	}
	body, err := json.Marshal(forYouRequest{BrandNames: brands, CategoryNames: categories, TopN: topN})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/recommendations/for-you-subscribed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "recommendations/for-you-subscribed")
}

func (c *Client) do(req *http.Request, name string) ([]domain.ProductSummary, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", name, resp.StatusCode)
	}

	var products []domain.ProductSummary
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}
	for i := range products {
		products[i].Decorate()
	}
	return products, nil
}

// fromCache retrieves a cached value if not expired.
func (c *Client) fromCache(key string) ([]domain.ProductSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cacheData[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// toCache stores a value with the configured TTL.
func (c *Client) toCache(key string, data []domain.ProductSummary) {
	if c.cacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheData[key] = cacheEntry{data: data, expiresAt: time.Now().Add(c.cacheTTL)}
}
