package models

import (
	"encoding/json"
	"strings"
)

// SourceAPI identifies which affiliate network a product came from.
type SourceAPI string

const (
	SourceCJ        SourceAPI = "cj"
	SourcePepperjam SourceAPI = "pepperjam"
)

// Valid reports whether s is one of the known affiliate networks.
func (s SourceAPI) Valid() bool {
	return s == SourceCJ || s == SourcePepperjam
}

// UnifiedProduct is the canonical product representation every source is
// normalized into before it reaches the catalog sink.
type UnifiedProduct struct {
	SourceAPI          SourceAPI `json:"source_api"`
	SourceProductID    string    `json:"source_product_id"`
	SourceAdvertiserID string    `json:"source_advertiser_id"`

	// SKU is the idempotency key for catalog upserts. Derived from
	// (brand, source, source product ID) when not supplied.
	SKU string `json:"sku"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	BrandName   string   `json:"brand_name"`
	Categories  []string `json:"categories,omitempty"`

	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	SalePrice    *float64 `json:"sale_price,omitempty"`
	Availability bool     `json:"availability"`

	ProductURL string `json:"product_url"`
	ImageURL   string `json:"image_url"`

	KeywordsMatched []string `json:"keywords_matched,omitempty"`

	// Catalog IDs are populated only after a successful sink write.
	ShopifyProductID       int64 `json:"shopify_product_id,omitempty"`
	ShopifyVariantID       int64 `json:"shopify_variant_id,omitempty"`
	ShopifyInventoryItemID int64 `json:"shopify_inventory_item_id,omitempty"`

	// RawData retains the original upstream record for debugging. It is
	// never interpreted past the source adapter.
	RawData json.RawMessage `json:"raw_data,omitempty"`
}

// GenerateSKU derives the catalog idempotency key for a product. It is a pure
// function of its inputs: the same (brand, source, product ID) triple always
// yields the same SKU across runs.
func GenerateSKU(brandName string, source SourceAPI, sourceProductID string) string {
	brandSlug := strings.NewReplacer(" ", "_", ".", "").Replace(strings.ToUpper(brandName))
	productSlug := strings.ReplaceAll(sourceProductID, " ", "-")
	return brandSlug + "-" + strings.ToUpper(string(source)) + "-" + productSlug
}

// EnsureSKU fills in the derived SKU when the product does not carry one.
func (p *UnifiedProduct) EnsureSKU() {
	if p.SKU == "" {
		p.SKU = GenerateSKU(p.BrandName, p.SourceAPI, p.SourceProductID)
	}
}

// DiscountedPrice returns the active sale price, if any. A sale price only
// counts as a discount when it is positive and no higher than the list price.
func (p *UnifiedProduct) DiscountedPrice() (float64, bool) {
	if p.SalePrice == nil {
		return 0, false
	}
	if *p.SalePrice <= 0 || *p.SalePrice > p.Price {
		return 0, false
	}
	return *p.SalePrice, true
}
