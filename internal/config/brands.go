package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"prodsync/internal/models"
)

// Brand maps a storefront brand onto its affiliate-network identity.
type Brand struct {
	Name         string           `koanf:"name"`
	Source       models.SourceAPI `koanf:"source"`
	AdvertiserID string           `koanf:"advertiser_id"`
}

// BrandTable is the brand configuration injected into the orchestrator,
// keyed by brand name.
type BrandTable map[string]Brand

// Names returns the configured brand names in stable order.
func (t BrandTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FilterBySource returns the subset of brands served by the given network.
// An empty source returns the table unchanged.
func (t BrandTable) FilterBySource(source models.SourceAPI) BrandTable {
	if source == "" {
		return t
	}
	filtered := make(BrandTable)
	for name, brand := range t {
		if brand.Source == source {
			filtered[name] = brand
		}
	}
	return filtered
}

// DefaultBrands returns the built-in brand table used when no brands file
// is supplied.
func DefaultBrands() BrandTable {
	brands := []Brand{
		{Name: "Canada Pet Care", Source: models.SourceCJ, AdvertiserID: "4247933"},
		{Name: "Dreo", Source: models.SourceCJ, AdvertiserID: "6088764"},
		{Name: "GeorgiaBoot.com", Source: models.SourceCJ, AdvertiserID: "6284907"},
		{Name: "Power Systems", Source: models.SourceCJ, AdvertiserID: "3056145"},
		{Name: "RockyBoots.com", Source: models.SourceCJ, AdvertiserID: "6284903"},
		{Name: "Trina Turk", Source: models.SourceCJ, AdvertiserID: "5923714"},
		{Name: "Xtratuf", Source: models.SourceCJ, AdvertiserID: "5535819"},
		{Name: "PepperjamBrand6200", Source: models.SourcePepperjam, AdvertiserID: "6200"},
	}

	table := make(BrandTable, len(brands))
	for _, b := range brands {
		table[b.Name] = b
	}
	return table
}

// LoadBrands reads a brand table from a JSON file of the form:
//
//	{"Dreo": {"source": "cj", "advertiser_id": "6088764"}, ...}
func LoadBrands(path string) (BrandTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read brands file %s: %w", path, err)
	}

	var raw map[string]Brand
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("failed to parse brands file %s: %w", path, err)
	}

	table := make(BrandTable, len(raw))
	for name, brand := range raw {
		brand.Name = name
		if !brand.Source.Valid() {
			return nil, fmt.Errorf("brand %q has unknown source %q", name, brand.Source)
		}
		if brand.AdvertiserID == "" {
			return nil, fmt.Errorf("brand %q has no advertiser_id", name)
		}
		table[name] = brand
	}
	return table, nil
}

// LoadKeywords reads a per-brand keyword map from a JSON file of the form:
//
//	{"Dreo": "air fryer, smart fan", "Xtratuf": "deck boot"}
func LoadKeywords(path string) (map[string][]string, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read keywords file %s: %w", path, err)
	}

	var raw map[string]string
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("failed to parse keywords file %s: %w", path, err)
	}

	keywords := make(map[string][]string, len(raw))
	for brand, phrases := range raw {
		if parsed := SplitKeywords(phrases); len(parsed) > 0 {
			keywords[brand] = parsed
		}
	}
	return keywords, nil
}

// SplitKeywords turns a comma-separated keyword string into trimmed phrases,
// dropping empties.
func SplitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	phrases := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}
