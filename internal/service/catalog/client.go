package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const (
	requestTimeout = 5 * time.Second
	cacheTTL       = 5 * time.Minute
)

// Client ходит в HTTP API каталога товаров (product-service).
// Любая ошибка транспорта или не-200 ответ трактуется как ErrProductNotFound:
// ретраев нет, создание заказа при недоступном каталоге обязано упасть целиком.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	logger  *log.Entry
}

// Option настраивает клиента каталога.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (для тестов и тонкой настройки).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

// WithRedisCache включает read-through кэш снапшотов товаров.
// Ошибки кэша не фатальны: промах или сбой ведут к прямому запросу в каталог.
func WithRedisCache(client *redis.Client) Option {
	return func(c *Client) { c.cache = client }
}

// NewClient создаёт клиента каталога для базового URL вида http://product-service:3002.
func NewClient(baseURL string, logger *log.Entry, opts ...Option) *Client {
	if logger == nil {
		logger = log.WithField("component", "catalog-client")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// productPayload — формат ответа product-service; цена приходит в долларах.
type productPayload struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	SKU    string  `json:"sku"`
	Price  float64 `json:"price"`
	Stock  int32   `json:"stock"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
}

// GetProduct возвращает снапшот товара или domain.ErrProductNotFound.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	if snapshot, ok := c.fromCache(ctx, productID); ok {
		return snapshot, nil
	}

	url := fmt.Sprintf("%s/api/products/%s", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ProductSnapshot{}, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("catalog request failed")
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(log.Fields{
			"product_id": productID,
			"status":     resp.StatusCode,
		}).Warn("catalog returned non-200")
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("catalog payload decode failed")
		return domain.ProductSnapshot{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}

	snapshot := toSnapshot(productID, payload)
	c.toCache(ctx, snapshot)
	return snapshot, nil
}

func toSnapshot(productID string, payload productPayload) domain.ProductSnapshot {
	snapshot := domain.ProductSnapshot{
		ID:             productID,
		Name:           payload.Name,
		SKU:            payload.SKU,
		UnitPriceMinor: dollarsToMinor(payload.Price),
		Stock:          payload.Stock,
		Brand:          payload.Brand,
		Category:       payload.Category,
	}
	// Первая картинка списка используется как thumbnail позиции заказа.
	if len(payload.Images) > 0 {
		snapshot.ImageURL = payload.Images[0].URL
	}
	return snapshot
}

// dollarsToMinor конвертирует цену каталога (float в долларах) в центы.
func dollarsToMinor(price float64) int64 {
	return int64(math.Round(price * 100))
}

func (c *Client) cacheKey(productID string) string {
	return "orders:product:" + productID
}

func (c *Client) fromCache(ctx context.Context, productID string) (domain.ProductSnapshot, bool) {
	if c.cache == nil {
		return domain.ProductSnapshot{}, false
	}

	raw, err := c.cache.Get(ctx, c.cacheKey(productID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("product cache read failed")
		}
		return domain.ProductSnapshot{}, false
	}

	var snapshot domain.ProductSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		c.logger.WithError(err).Debug("product cache entry is corrupted")
		return domain.ProductSnapshot{}, false
	}
	return snapshot, true
}

func (c *Client) toCache(ctx context.Context, snapshot domain.ProductSnapshot) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.cacheKey(snapshot.ID), data, cacheTTL).Err(); err != nil {
		c.logger.WithError(err).Debug("product cache write failed")
	}
}

var _ domain.ProductCatalog = (*Client)(nil)
