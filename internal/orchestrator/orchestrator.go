// Package orchestrator runs the brand-by-brand sync: fetch, filter, and
// upsert into the storefront catalog.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"prodsync/internal/config"
	"prodsync/internal/models"
	"prodsync/internal/retriever"
	"prodsync/internal/shopify"
)

// productsPerBrandTarget is how many products each brand should end up
// with per run. Fetching half again as many absorbs availability rejects.
const (
	productsPerBrandTarget = 50
	fetchOverhead          = 3 // numerator of the 3/2 over-fetch ratio
)

// ProductFetcher yields validated products for one brand.
type ProductFetcher interface {
	Fetch(ctx context.Context, req retriever.Request) []*models.UnifiedProduct
}

// CatalogSink is the storefront write surface the sync drives.
type CatalogSink interface {
	FindProductBySKU(ctx context.Context, sku string) (*shopify.Product, error)
	CreateProduct(ctx context.Context, up *models.UnifiedProduct) (*shopify.Product, error)
	UpdateProduct(ctx context.Context, existing *shopify.Product, up *models.UnifiedProduct) (*shopify.Product, bool, error)
	GetOrCreateCollection(ctx context.Context, title, handle, bodyHTML string) (*shopify.CustomCollection, error)
	AddProductToCollection(ctx context.Context, productID, collectionID int64) error
	SetProductMetafield(ctx context.Context, productID int64, namespace, key, value, valueType string) error
}

const (
	metafieldNamespace = "custom"
	metafieldKey       = "affiliate_link"
	metafieldType      = "url"
)

// Orchestrator coordinates fetchers and the catalog sink across brands.
type Orchestrator struct {
	brands   config.BrandTable
	fetchers map[models.SourceAPI]ProductFetcher
	sink     CatalogSink
	logger   *logrus.Logger
	target   int
}

func New(brands config.BrandTable, fetchers map[models.SourceAPI]ProductFetcher, sink CatalogSink, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		brands:   brands,
		fetchers: fetchers,
		sink:     sink,
		logger:   logger,
		target:   productsPerBrandTarget,
	}
}

// SetTarget overrides the per-brand product target. Used by test mode to
// shrink a run to a single product per brand.
func (o *Orchestrator) SetTarget(n int) {
	if n > 0 {
		o.target = n
	}
}

// SyncBrand runs the pipeline for one brand. The outcome is failed only when
// nothing could be fetched or every single catalog write failed; partial
// failures leave the brand synced with errors recorded.
func (o *Orchestrator) SyncBrand(ctx context.Context, brandName string, keywords []string) BrandOutcome {
	outcome := BrandOutcome{Brand: brandName, Status: StatusSynced}

	brand, ok := o.brands[brandName]
	if !ok {
		outcome.Status = StatusFailed
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("brand %q is not configured", brandName))
		return outcome
	}
	outcome.Source = brand.Source

	fetcher, ok := o.fetchers[brand.Source]
	if !ok {
		outcome.Status = StatusFailed
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("no fetcher for source %q", brand.Source))
		return outcome
	}

	log := o.logger.WithFields(logrus.Fields{
		"brand":  brandName,
		"source": brand.Source,
	})
	log.WithField("keywords", keywords).Info("starting brand sync")

	fetched := fetcher.Fetch(ctx, retriever.Request{
		AdvertiserID: brand.AdvertiserID,
		BrandName:    brandName,
		Keywords:     keywords,
		Limit:        o.target * fetchOverhead / 2,
	})
	outcome.Fetched = len(fetched)

	available := make([]*models.UnifiedProduct, 0, len(fetched))
	for _, p := range fetched {
		if p.Availability {
			available = append(available, p)
		}
	}
	if len(available) > o.target {
		available = available[:o.target]
	}

	if len(available) == 0 {
		outcome.Status = StatusFailed
		outcome.Errors = append(outcome.Errors, "no valid products retrieved")
		log.Warn("brand sync produced no products")
		return outcome
	}

	collection, err := o.ensureBrandCollection(ctx, brand)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Errors = append(outcome.Errors, err.Error())
		log.WithError(err).Error("failed to ensure review collection")
		return outcome
	}

	for _, p := range available {
		if err := o.upsertProduct(ctx, p, collection.ID); err != nil {
			outcome.Failed++
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %v", p.SKU, err))
			log.WithError(err).WithField("sku", p.SKU).Error("product upsert failed")
			continue
		}
		outcome.Synced++
		outcome.Products = append(outcome.Products, p)
	}

	if outcome.Synced == 0 {
		outcome.Status = StatusFailed
	}

	log.WithFields(logrus.Fields{
		"fetched": outcome.Fetched,
		"synced":  outcome.Synced,
		"failed":  outcome.Failed,
	}).Info("brand sync finished")

	return outcome
}

// upsertProduct writes one product into the catalog, keyed by SKU. New
// products land as drafts in the review collection; existing ones are only
// patched.
func (o *Orchestrator) upsertProduct(ctx context.Context, p *models.UnifiedProduct, collectionID int64) error {
	p.EnsureSKU()

	existing, err := o.sink.FindProductBySKU(ctx, p.SKU)
	if err != nil {
		return fmt.Errorf("sku lookup failed: %w", err)
	}

	var target *shopify.Product
	if existing != nil {
		updated, _, err := o.sink.UpdateProduct(ctx, existing, p)
		if err != nil {
			return err
		}
		target = updated
	} else {
		created, err := o.sink.CreateProduct(ctx, p)
		if err != nil {
			return err
		}
		if err := o.sink.AddProductToCollection(ctx, created.ID, collectionID); err != nil {
			return err
		}
		target = created
	}

	p.ShopifyProductID = target.ID
	if len(target.Variants) > 0 {
		p.ShopifyVariantID = target.Variants[0].ID
		p.ShopifyInventoryItemID = target.Variants[0].InventoryItemID
	}

	if p.ProductURL != "" {
		if err := o.sink.SetProductMetafield(ctx, target.ID, metafieldNamespace, metafieldKey, p.ProductURL, metafieldType); err != nil {
			return fmt.Errorf("failed to store affiliate link: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) ensureBrandCollection(ctx context.Context, brand config.Brand) (*shopify.CustomCollection, error) {
	title := CollectionTitle(brand.Name)
	body := fmt.Sprintf("<p>Automatically synced products for %s from the %s affiliate API, pending review.</p>",
		brand.Name, brand.Source)
	return o.sink.GetOrCreateCollection(ctx, title, SlugifyHandle(title), body)
}

// CollectionTitle names the per-brand review collection.
func CollectionTitle(brandName string) string {
	return fmt.Sprintf("%s - API Products - Draft", brandName)
}

// SlugifyHandle turns a collection title into a storefront handle: lower
// case, with runs of anything non-alphanumeric collapsed to a single dash.
func SlugifyHandle(title string) string {
	parts := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(parts, "-")
}
