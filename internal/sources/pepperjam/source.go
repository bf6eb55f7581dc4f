package pepperjam

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"prodsync/internal/models"
	"prodsync/internal/sources"
)

const (
	fetchMultiplier = 5
	maxFetch        = 50
	minFetch        = 10
	defaultFetch    = 50
)

// Source adapts the Pepperjam client to the sources.Source contract.
type Source struct {
	client *Client
	logger *logrus.Logger
}

func NewSource(client *Client, logger *logrus.Logger) *Source {
	return &Source{client: client, logger: logger}
}

func (s *Source) Name() models.SourceAPI {
	return models.SourcePepperjam
}

// Fetch pulls product creatives for one program. Keywords ARE pushed down
// here because the publisher API searches server side; the space-joined form
// is what the API expects.
func (s *Source) Fetch(ctx context.Context, q sources.Query) ([]sources.Record, error) {
	envelope, err := s.client.ProductCreatives(ctx, ProductCreativesQuery{
		ProgramIDs: q.AdvertiserID,
		Keywords:   strings.Join(q.Keywords, " "),
		Page:       1,
		Limit:      fetchLimit(q.Limit),
	})
	if err != nil {
		return nil, err
	}

	records := make([]sources.Record, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			s.logger.WithError(err).Warn("skipping undecodable pepperjam product")
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

func fetchLimit(requested int) int {
	if requested <= 0 {
		return defaultFetch
	}
	limit := requested * fetchMultiplier
	if limit > maxFetch {
		limit = maxFetch
	}
	if limit < minFetch {
		limit = minFetch
	}
	return limit
}

func toRecord(p Product, raw json.RawMessage) sources.Record {
	description := p.DescriptionLong
	if description == "" {
		description = p.DescriptionShort
	}

	// Some feeds omit the id; the name still identifies the product well
	// enough for dedup and SKU generation.
	id := p.ID.String()
	if id == "" {
		id = p.Name
	}

	availability := p.StockAvailability
	if availability == "" {
		availability = p.InStock
	}

	rec := sources.Record{
		ID:           id,
		Title:        p.Name,
		Description:  description,
		ProductURL:   p.BuyURL,
		ImageURL:     p.ImageURL,
		Price:        p.Price.String(),
		SalePrice:    p.PriceSale.String(),
		Currency:     currencyFromSymbol(p.CurrencySymbol),
		Availability: availability,
		AdvertiserID: p.ProgramID.String(),
		Raw:          raw,
	}

	for _, c := range p.Categories {
		if name := strings.TrimSpace(c.Name); name != "" {
			rec.Categories = append(rec.Categories, name)
		}
	}
	return rec
}

func currencyFromSymbol(symbol string) string {
	switch strings.TrimSpace(symbol) {
	case "", "$", "USD":
		return "USD"
	case "£":
		return "GBP"
	case "€":
		return "EUR"
	case "C$", "CAD":
		return "CAD"
	default:
		return "USD"
	}
}
