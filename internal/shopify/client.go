// Package shopify writes synced products into the Shopify Admin REST API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"prodsync/internal/httpx"
	"prodsync/internal/models"
)

const pageSize = 250

// Client wraps the Admin REST API. All writes go through the rate limiter;
// the standard API plan allows 2 requests per second per store.
type Client struct {
	storeName  string
	token      string
	apiVersion string

	httpClient *http.Client
	limiter    *rate.Limiter
	retry      httpx.RetryPolicy
	logger     *logrus.Logger

	dryRun bool

	mu         sync.Mutex
	locationID int64
	nextFakeID int64
}

type Config struct {
	StoreName   string
	AccessToken string
	APIVersion  string
}

func NewClient(cfg Config, logger *logrus.Logger, dryRun bool) *Client {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-07"
	}
	return &Client{
		storeName:  cfg.StoreName,
		token:      cfg.AccessToken,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
		retry:      httpx.DefaultRetryPolicy(),
		logger:     logger,
		dryRun:     dryRun,
		nextFakeID: -1,
	}
}

func (c *Client) url(resource string) string {
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/%s", c.storeName, c.apiVersion, resource)
}

// do issues one API call. The request body, when present, is re-encoded per
// retry attempt by the build closure.
func (c *Client) do(ctx context.Context, method, resource string, query url.Values, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	endpoint := c.url(resource)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := httpx.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}
		req, err := http.NewRequest(method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Shopify-Access-Token", c.token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// fakeID hands out negative ids so dry-run output is distinguishable from
// anything the real API could return.
func (c *Client) fakeID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextFakeID
	c.nextFakeID--
	return id
}

// FindProductBySKU scans the product list for a variant carrying the SKU.
// The REST API has no SKU filter, so this pages through with since_id.
// Returns (nil, nil) when no product matches.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*Product, error) {
	var sinceID int64
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		if sinceID > 0 {
			query.Set("since_id", strconv.FormatInt(sinceID, 10))
		}

		var page productsResponse
		if err := c.do(ctx, http.MethodGet, "products.json", query, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		if len(page.Products) == 0 {
			return nil, nil
		}

		for i := range page.Products {
			p := &page.Products[i]
			for _, v := range p.Variants {
				if v.SKU == sku {
					return p, nil
				}
			}
			sinceID = p.ID
		}

		if len(page.Products) < pageSize {
			return nil, nil
		}
	}
}

// CreateProduct creates a draft product for the unified product, including
// its single default variant and main image. When the product is available
// the variant's inventory is set to 1 at the store's first location.
func (c *Client) CreateProduct(ctx context.Context, up *models.UnifiedProduct) (*Product, error) {
	draft := Product{
		Title:       up.Title,
		BodyHTML:    up.Description,
		Vendor:      up.BrandName,
		ProductType: firstCategory(up.Categories),
		Status:      "draft",
		Variants:    []Variant{buildVariant(up)},
	}
	if up.ImageURL != "" {
		draft.Images = []Image{{Src: up.ImageURL}}
	}

	if c.dryRun {
		draft.ID = c.fakeID()
		draft.Variants[0].ID = c.fakeID()
		draft.Variants[0].InventoryItemID = c.fakeID()
		c.logger.WithFields(logrus.Fields{
			"sku":   up.SKU,
			"title": up.Title,
		}).Info("dry run: would create draft product")
		return &draft, nil
	}

	var created productResponse
	if err := c.do(ctx, http.MethodPost, "products.json", nil, map[string]Product{"product": draft}, &created); err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", up.SKU, err)
	}

	c.logger.WithFields(logrus.Fields{
		"sku":        up.SKU,
		"product_id": created.Product.ID,
	}).Info("created draft product")

	if up.Availability {
		if err := c.setInitialInventory(ctx, &created.Product); err != nil {
			c.logger.WithError(err).WithField("product_id", created.Product.ID).
				Warn("failed to set initial inventory")
		}
	}

	return &created.Product, nil
}

// UpdateProduct pushes changed fields onto an existing product. The product
// status is left alone so a listing already promoted to active is not pushed
// back to draft. Returns whether an update request was actually sent.
func (c *Client) UpdateProduct(ctx context.Context, existing *Product, up *models.UnifiedProduct) (*Product, bool, error) {
	patch := Product{ID: existing.ID}
	changed := false

	if existing.Title != up.Title {
		patch.Title = up.Title
		changed = true
	}
	if existing.BodyHTML != up.Description {
		patch.BodyHTML = up.Description
		changed = true
	}
	if existing.Vendor != up.BrandName {
		patch.Vendor = up.BrandName
		changed = true
	}
	if up.ImageURL != "" && (len(existing.Images) == 0 || existing.Images[0].Src != up.ImageURL) {
		patch.Images = []Image{{Src: up.ImageURL}}
		changed = true
	}

	if len(existing.Variants) > 0 {
		current := existing.Variants[0]
		want := buildVariant(up)
		if current.Price != want.Price || current.CompareAtPrice != want.CompareAtPrice {
			want.ID = current.ID
			patch.Variants = []Variant{want}
			changed = true
		}
	}

	if !changed {
		return existing, false, nil
	}

	if c.dryRun {
		c.logger.WithFields(logrus.Fields{
			"sku":        up.SKU,
			"product_id": existing.ID,
		}).Info("dry run: would update product")
		return existing, true, nil
	}

	var updated productResponse
	resource := fmt.Sprintf("products/%d.json", existing.ID)
	if err := c.do(ctx, http.MethodPut, resource, nil, map[string]Product{"product": patch}, &updated); err != nil {
		return nil, false, fmt.Errorf("failed to update product %d: %w", existing.ID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"sku":        up.SKU,
		"product_id": existing.ID,
	}).Info("updated product")

	return &updated.Product, true, nil
}

// GetOrCreateCollection finds a custom collection by handle, falling back to
// title, and creates an unpublished one when neither matches. An existing
// collection gets its body updated when it drifted.
func (c *Client) GetOrCreateCollection(ctx context.Context, title, handle, bodyHTML string) (*CustomCollection, error) {
	var listing collectionsResponse
	if err := c.do(ctx, http.MethodGet, "custom_collections.json", nil, nil, &listing); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var existing *CustomCollection
	for i := range listing.CustomCollections {
		if listing.CustomCollections[i].Handle == handle {
			existing = &listing.CustomCollections[i]
			break
		}
	}
	if existing == nil {
		for i := range listing.CustomCollections {
			if listing.CustomCollections[i].Title == title {
				existing = &listing.CustomCollections[i]
				break
			}
		}
	}

	if existing != nil {
		if bodyHTML != "" && existing.BodyHTML != bodyHTML {
			if c.dryRun {
				c.logger.WithField("collection_id", existing.ID).Info("dry run: would update collection body")
				return existing, nil
			}
			patch := CustomCollection{ID: existing.ID, BodyHTML: bodyHTML, Published: existing.Published}
			var updated collectionResponse
			resource := fmt.Sprintf("custom_collections/%d.json", existing.ID)
			if err := c.do(ctx, http.MethodPut, resource, nil, map[string]CustomCollection{"custom_collection": patch}, &updated); err != nil {
				return nil, fmt.Errorf("failed to update collection %d: %w", existing.ID, err)
			}
			return &updated.CustomCollection, nil
		}
		return existing, nil
	}

	fresh := CustomCollection{Title: title, Handle: handle, BodyHTML: bodyHTML, Published: false}

	if c.dryRun {
		fresh.ID = c.fakeID()
		c.logger.WithField("title", title).Info("dry run: would create collection")
		return &fresh, nil
	}

	var created collectionResponse
	if err := c.do(ctx, http.MethodPost, "custom_collections.json", nil, map[string]CustomCollection{"custom_collection": fresh}, &created); err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", title, err)
	}

	c.logger.WithFields(logrus.Fields{
		"title":         title,
		"collection_id": created.CustomCollection.ID,
	}).Info("created collection")

	return &created.CustomCollection, nil
}

// AddProductToCollection links the product into the collection. A 422 from
// the API means the product is already in it, which counts as success.
func (c *Client) AddProductToCollection(ctx context.Context, productID, collectionID int64) error {
	if c.dryRun {
		c.logger.WithFields(logrus.Fields{
			"product_id":    productID,
			"collection_id": collectionID,
		}).Info("dry run: would add product to collection")
		return nil
	}

	payload := map[string]Collect{"collect": {ProductID: productID, CollectionID: collectionID}}
	var created collectResponse
	err := c.do(ctx, http.MethodPost, "collects.json", nil, payload, &created)
	if err == nil {
		return nil
	}

	var serr *httpx.StatusError
	if errors.As(err, &serr) && serr.StatusCode == http.StatusUnprocessableEntity {
		query := url.Values{}
		query.Set("product_id", strconv.FormatInt(productID, 10))
		query.Set("collection_id", strconv.FormatInt(collectionID, 10))

		var existing collectsResponse
		if lookupErr := c.do(ctx, http.MethodGet, "collects.json", query, nil, &existing); lookupErr == nil && len(existing.Collects) > 0 {
			return nil
		}
	}
	return fmt.Errorf("failed to add product %d to collection %d: %w", productID, collectionID, err)
}

// SetProductMetafield writes a metafield, updating in place when one with
// the same namespace and key already exists.
func (c *Client) SetProductMetafield(ctx context.Context, productID int64, namespace, key, value, valueType string) error {
	if c.dryRun {
		c.logger.WithFields(logrus.Fields{
			"product_id": productID,
			"namespace":  namespace,
			"key":        key,
		}).Info("dry run: would set metafield")
		return nil
	}

	resource := fmt.Sprintf("products/%d/metafields.json", productID)

	var listing metafieldsResponse
	if err := c.do(ctx, http.MethodGet, resource, nil, nil, &listing); err != nil {
		return fmt.Errorf("failed to list metafields for product %d: %w", productID, err)
	}

	for _, mf := range listing.Metafields {
		if mf.Namespace == namespace && mf.Key == key {
			if mf.Value == value {
				return nil
			}
			patch := map[string]Metafield{"metafield": {ID: mf.ID, Value: value, Type: valueType}}
			target := fmt.Sprintf("metafields/%d.json", mf.ID)
			var updated metafieldResponse
			if err := c.do(ctx, http.MethodPut, target, nil, patch, &updated); err != nil {
				return fmt.Errorf("failed to update metafield %d: %w", mf.ID, err)
			}
			return nil
		}
	}

	payload := map[string]Metafield{"metafield": {
		Namespace: namespace,
		Key:       key,
		Value:     value,
		Type:      valueType,
	}}
	var created metafieldResponse
	if err := c.do(ctx, http.MethodPost, resource, nil, payload, &created); err != nil {
		return fmt.Errorf("failed to create metafield on product %d: %w", productID, err)
	}
	c.logger.WithFields(logrus.Fields{
		"product_id":   productID,
		"metafield_id": created.Metafield.ID,
	}).Debug("created metafield")
	return nil
}

// setInitialInventory marks one unit available at the store's first
// location so a draft product is orderable the moment it is published.
func (c *Client) setInitialInventory(ctx context.Context, p *Product) error {
	if len(p.Variants) == 0 || p.Variants[0].InventoryItemID == 0 {
		return nil
	}

	locationID, err := c.defaultLocationID(ctx)
	if err != nil {
		return err
	}

	payload := map[string]int64{
		"location_id":       locationID,
		"inventory_item_id": p.Variants[0].InventoryItemID,
		"available":         1,
	}
	if err := c.do(ctx, http.MethodPost, "inventory_levels/set.json", nil, payload, nil); err != nil {
		return fmt.Errorf("failed to set inventory level: %w", err)
	}
	return nil
}

func (c *Client) defaultLocationID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	cached := c.locationID
	c.mu.Unlock()
	if cached != 0 {
		return cached, nil
	}

	var listing locationsResponse
	if err := c.do(ctx, http.MethodGet, "locations.json", nil, nil, &listing); err != nil {
		return 0, fmt.Errorf("failed to list locations: %w", err)
	}
	if len(listing.Locations) == 0 {
		return 0, fmt.Errorf("store has no locations")
	}

	c.mu.Lock()
	c.locationID = listing.Locations[0].ID
	c.mu.Unlock()
	return listing.Locations[0].ID, nil
}

func buildVariant(up *models.UnifiedProduct) Variant {
	v := Variant{
		Option1: "Default Title",
		SKU:     up.SKU,
		Price:   formatPrice(up.Price),
	}
	if sale, ok := up.DiscountedPrice(); ok {
		v.Price = formatPrice(sale)
		v.CompareAtPrice = formatPrice(up.Price)
	}
	return v
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func firstCategory(categories []string) string {
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}
