package cj

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"prodsync/internal/models"
	"prodsync/internal/sources"
)

// The catalog is over-fetched so downstream filtering still has enough
// candidates after rejects.
const (
	fetchMultiplier = 5
	minFetch        = 110
)

// Source adapts the CJ client to the sources.Source contract.
type Source struct {
	client *Client
	logger *logrus.Logger
}

func NewSource(client *Client, logger *logrus.Logger) *Source {
	return &Source{client: client, logger: logger}
}

func (s *Source) Name() models.SourceAPI {
	return models.SourceCJ
}

// Fetch pulls the advertiser catalog. Keyword matching is not pushed down to
// the network; the full listing comes back and is filtered downstream.
func (s *Source) Fetch(ctx context.Context, q sources.Query) ([]sources.Record, error) {
	limit := q.Limit * fetchMultiplier
	if limit < minFetch {
		limit = minFetch
	}

	payload, err := s.client.ProductsByAdvertiser(ctx, q.AdvertiserID, limit)
	if err != nil {
		return nil, err
	}

	records := make([]sources.Record, 0, len(payload.ResultList))
	for _, raw := range payload.ResultList {
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			s.logger.WithError(err).Warn("skipping undecodable cj product")
			continue
		}
		rec := toRecord(p, raw)
		if rec.AdvertiserID == "" {
			rec.AdvertiserID = q.AdvertiserID
		}
		records = append(records, rec)
	}
	return records, nil
}

func toRecord(p Product, raw json.RawMessage) sources.Record {
	rec := sources.Record{
		ID:           p.ID.String(),
		Title:        p.Title,
		Description:  p.Description,
		ProductURL:   p.Link,
		ImageURL:     p.ImageLink,
		Availability: p.Availability,
		AdvertiserID: p.AdvertiserID.String(),
		Raw:          raw,
	}

	// Tracked click URLs are preferred over plain product links when the
	// publisher id was configured.
	if p.LinkCode != nil && p.LinkCode.ClickURL != "" {
		rec.ProductURL = p.LinkCode.ClickURL
	}

	if p.Price != nil {
		rec.Price = p.Price.Amount.String()
		rec.Currency = p.Price.Currency
	}
	if p.SalePrice != nil {
		rec.SalePrice = p.SalePrice.Amount.String()
	}

	for _, pt := range p.ProductType {
		if pt = strings.TrimSpace(pt); pt != "" {
			rec.Categories = append(rec.Categories, pt)
		}
	}
	if p.GoogleProductCategory != nil && p.GoogleProductCategory.Name != "" {
		rec.Categories = append(rec.Categories, p.GoogleProductCategory.Name)
	}

	return rec
}
