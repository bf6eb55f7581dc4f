package retriever

import (
	"context"
	"errors"
	"strings"

	"prodsync/internal/models"
	"prodsync/internal/sources"
)

var (
	errMissingFields   = errors.New("missing required fields")
	errBadPrice        = errors.New("invalid or zero price")
	errBadImage        = errors.New("image failed validation")
	errMissingIdentity = errors.New("missing product identity")
)

// convert turns a raw network record into a unified product. Checks run in
// a fixed order so rejection stats stay comparable across runs: required
// fields, then price, then image, then identity.
func (r *Retriever) convert(ctx context.Context, rec sources.Record, brandName string) (*models.UnifiedProduct, error) {
	if rec.Title == "" || rec.ProductURL == "" || rec.ImageURL == "" {
		return nil, errMissingFields
	}

	price, ok := sources.FlexString(rec.Price).Float()
	if !ok || price <= 0 {
		return nil, errBadPrice
	}

	if !r.images.Valid(ctx, rec.ImageURL) {
		return nil, errBadImage
	}

	// The SKU needs an upstream identity, and every record must trace back
	// to an advertiser; adapters fall back to the queried advertiser id when
	// the payload omits it, so an empty one here means a broken feed.
	if rec.ID == "" || rec.AdvertiserID == "" {
		return nil, errMissingIdentity
	}

	if strings.TrimSpace(rec.Availability) == "" {
		r.logger.WithField("product_id", rec.ID).Debug("no stock field, assuming available")
	}

	p := &models.UnifiedProduct{
		SourceAPI:          r.source.Name(),
		SourceProductID:    rec.ID,
		SourceAdvertiserID: rec.AdvertiserID,
		Title:              rec.Title,
		Description:        rec.Description,
		BrandName:          brandName,
		Categories:         rec.Categories,
		Price:              price,
		Currency:           currencyOrDefault(rec.Currency),
		Availability:       parseAvailability(rec.Availability),
		ProductURL:         rec.ProductURL,
		ImageURL:           rec.ImageURL,
		RawData:            rec.Raw,
	}

	if sale, ok := sources.FlexString(rec.SalePrice).Float(); ok && sale > 0 && sale < price {
		p.SalePrice = &sale
	}

	p.EnsureSKU()
	return p, nil
}

// parseAvailability maps the free-text stock field onto a boolean. Absent
// means available: both networks omit the field for in-stock items more
// often than for sold-out ones.
func parseAvailability(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	if strings.Contains(s, "out of stock") || strings.Contains(s, "unavailable") {
		return false
	}
	if strings.Contains(s, "in stock") || strings.Contains(s, "in_stock") || strings.Contains(s, "available") {
		return true
	}
	switch s {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func currencyOrDefault(c string) string {
	if c = strings.TrimSpace(c); c != "" {
		return strings.ToUpper(c)
	}
	return "USD"
}

// MatchKeywords returns the phrases found in the title or description,
// matched case-insensitively as whole substrings. Any single match is
// enough for the product to pass the filter.
func MatchKeywords(title, description string, phrases []string) []string {
	if len(phrases) == 0 {
		return nil
	}
	haystack := strings.ToLower(title + " " + description)

	var matched []string
	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		if strings.Contains(haystack, p) {
			matched = append(matched, phrase)
		}
	}
	return matched
}
