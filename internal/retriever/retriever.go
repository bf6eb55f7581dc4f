// Package retriever converts raw affiliate records into validated unified
// products, applying keyword filtering and dedup on the way.
package retriever

import (
	"context"

	"github.com/sirupsen/logrus"

	"prodsync/internal/imagecheck"
	"prodsync/internal/models"
	"prodsync/internal/sources"
)

// Scanning stops after this many raw records; image probes make each record
// cost a network round trip.
const maxRawProductsToScan = 100

// Retriever drives one source adapter and normalizes its output.
type Retriever struct {
	source  sources.Source
	images  imagecheck.Checker
	logger  *logrus.Logger
	maxScan int
}

func New(source sources.Source, images imagecheck.Checker, logger *logrus.Logger) *Retriever {
	return &Retriever{
		source:  source,
		images:  images,
		logger:  logger,
		maxScan: maxRawProductsToScan,
	}
}

// Request selects products for one brand.
type Request struct {
	AdvertiserID string
	BrandName    string
	Keywords     []string
	Limit        int
}

// Fetch returns up to req.Limit validated products. A network failure or an
// empty catalog both come back as an empty slice; the brand-level decision
// about what that means belongs to the caller.
func (r *Retriever) Fetch(ctx context.Context, req Request) []*models.UnifiedProduct {
	log := r.logger.WithFields(logrus.Fields{
		"source":        r.source.Name(),
		"brand":         req.BrandName,
		"advertiser_id": req.AdvertiserID,
	})

	records, err := r.source.Fetch(ctx, sources.Query{
		AdvertiserID: req.AdvertiserID,
		Keywords:     req.Keywords,
		Limit:        req.Limit,
	})
	if err != nil {
		log.WithError(err).Error("product fetch failed")
		return nil
	}
	if len(records) == 0 {
		log.Warn("source returned no products")
		return nil
	}

	var (
		products []*models.UnifiedProduct
		seen     = map[string]bool{}
		stats    = map[string]int{}
	)

	for i, rec := range records {
		if i >= r.maxScan {
			log.WithField("scanned", i).Warn("raw product scan ceiling reached")
			break
		}
		if req.Limit > 0 && len(products) >= req.Limit {
			break
		}

		p, err := r.convert(ctx, rec, req.BrandName)
		if err != nil {
			log.WithField("product_id", rec.ID).WithError(err).Warn("rejecting product")
			stats[err.Error()]++
			continue
		}

		if len(req.Keywords) > 0 {
			matched := MatchKeywords(p.Title, p.Description, req.Keywords)
			if len(matched) == 0 {
				log.WithField("product_id", p.SourceProductID).Debug("no keyword match")
				stats["no keyword match"]++
				continue
			}
			p.KeywordsMatched = matched
		}

		if seen[p.SourceProductID] {
			log.WithField("product_id", p.SourceProductID).Debug("duplicate product id")
			stats["duplicate"]++
			continue
		}
		seen[p.SourceProductID] = true

		products = append(products, p)
	}

	log.WithFields(logrus.Fields{
		"raw":      len(records),
		"accepted": len(products),
		"rejected": stats,
	}).Info("product retrieval finished")

	return products
}
