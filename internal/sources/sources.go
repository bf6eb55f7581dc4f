// Package sources defines the affiliate-network adapter contract and the
// intermediate record both networks are normalized into.
package sources

import (
	"context"
	"encoding/json"

	"prodsync/internal/models"
)

// Record is the network-neutral shape of a fetched product. Adapters map
// their wire payloads into it; the retriever converts it into a
// models.UnifiedProduct. String fields keep whatever the network sent,
// including empties, so validation happens in one place downstream.
type Record struct {
	ID           string
	Title        string
	Description  string
	ProductURL   string
	ImageURL     string
	Price        string
	SalePrice    string
	Currency     string
	Availability string
	AdvertiserID string
	Categories   []string

	// Raw is the untouched payload for this product as received from the
	// network, kept for auditing.
	Raw json.RawMessage
}

// Query selects which products an adapter should fetch.
type Query struct {
	AdvertiserID string
	Keywords     []string
	Limit        int
}

// Source is a product catalog adapter for one affiliate network.
type Source interface {
	Name() models.SourceAPI
	Fetch(ctx context.Context, q Query) ([]Record, error)
}
