// Command sync pulls product listings from the configured affiliate
// networks and upserts them into the Shopify catalog as draft products.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"prodsync/internal/config"
	"prodsync/internal/export"
	"prodsync/internal/imagecheck"
	"prodsync/internal/logger"
	"prodsync/internal/models"
	"prodsync/internal/orchestrator"
	"prodsync/internal/retriever"
	"prodsync/internal/shopify"
	"prodsync/internal/sources/cj"
	"prodsync/internal/sources/pepperjam"
)

func main() {
	var (
		brand        = flag.String("brand", "", "sync a single brand by name")
		allBrands    = flag.Bool("all-brands", false, "sync every configured brand")
		apiSource    = flag.String("api-source", "all", "restrict brands to one network: cj, pepperjam or all")
		keywords     = flag.String("keywords", "", "comma separated keyword phrases applied to the selected brands")
		keywordsJSON = flag.String("keywords-json", "", "path to a JSON file mapping brand names to keyword strings")
		brandsConfig = flag.String("brands-config", "", "path to a JSON brand table; defaults to the built-in table")
		dryRun       = flag.Bool("dry-run", false, "log and export what would change without writing to Shopify")
		verbose      = flag.Bool("verbose", false, "enable debug logging")
		testMode     = flag.Bool("test", false, "test mode: sync a single brand with a reduced footprint")
	)
	flag.BoolVar(verbose, "v", false, "enable debug logging (shorthand)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logName := "sync"
	if *dryRun {
		logName = "dry_run"
	}
	log, err := logger.NewWithFile(level, cfg.LogDir, logName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("configuration is incomplete")
	}

	brands := config.DefaultBrands()
	if *brandsConfig != "" {
		if brands, err = config.LoadBrands(*brandsConfig); err != nil {
			log.WithError(err).Fatal("failed to load brand table")
		}
	}

	brandsToSync, keywordTable, err := resolveBrands(brands, *brand, *allBrands, *apiSource, *keywords, *keywordsJSON)
	if err != nil {
		log.WithError(err).Fatal("brand selection failed")
	}
	if len(brandsToSync) == 0 {
		log.WithField("api_source", *apiSource).Warn("no brands match the selection, nothing to do")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := buildOrchestrator(cfg, brands, log, *dryRun)
	if *testMode {
		orch.SetTarget(1)
		log.Info("test mode: one product per brand")
	}
	summary := orch.Run(ctx, brandsToSync, keywordTable, *dryRun)

	exporter := export.New(cfg.ExportDir, log)
	if _, err := exporter.WriteJSON(summary); err != nil {
		log.WithError(err).Error("failed to export run summary")
	}
	if _, err := exporter.WriteMarkdown(summary); err != nil {
		log.WithError(err).Error("failed to export run report")
	}

	if failed := summary.FailedBrands(); len(failed) > 0 {
		log.WithField("brands", failed).Warn("some brands did not sync")
	}
	log.WithFields(logrus.Fields{
		"total_synced": summary.TotalSynced(),
		"brands":       len(summary.Outcomes),
	}).Info("done")
}

// resolveBrands mirrors the precedence of the CLI: an explicit -brand beats
// -all-brands, which beats the default of every brand matching -api-source.
// Per-brand keywords from the JSON file override the shared -keywords list.
func resolveBrands(brands config.BrandTable, brand string, allBrands bool, apiSource, keywords, keywordsJSON string) ([]string, map[string][]string, error) {
	source, err := parseSourceFilter(apiSource)
	if err != nil {
		return nil, nil, err
	}
	available := brands.FilterBySource(source)

	var selected []string
	switch {
	case brand != "":
		if _, ok := brands[brand]; !ok {
			return nil, nil, fmt.Errorf("brand %q is not configured; known brands: %s",
				brand, strings.Join(brands.Names(), ", "))
		}
		if _, ok := available[brand]; !ok {
			return nil, nil, fmt.Errorf("brand %q does not belong to api source %q", brand, apiSource)
		}
		selected = []string{brand}
	case allBrands:
		selected = available.Names()
	default:
		// No selection syncs everything available, same as -all-brands.
		selected = available.Names()
	}

	keywordTable := make(map[string][]string)
	if shared := config.SplitKeywords(keywords); len(shared) > 0 {
		for _, name := range selected {
			keywordTable[name] = shared
		}
	}
	if keywordsJSON != "" {
		fromFile, err := config.LoadKeywords(keywordsJSON)
		if err != nil {
			return nil, nil, err
		}
		for name, phrases := range fromFile {
			keywordTable[name] = phrases
		}
	}

	return selected, keywordTable, nil
}

func parseSourceFilter(apiSource string) (models.SourceAPI, error) {
	switch strings.ToLower(strings.TrimSpace(apiSource)) {
	case "", "all":
		return "", nil
	case string(models.SourceCJ):
		return models.SourceCJ, nil
	case string(models.SourcePepperjam):
		return models.SourcePepperjam, nil
	default:
		return "", fmt.Errorf("unknown api source %q (expected cj, pepperjam or all)", apiSource)
	}
}

func buildOrchestrator(cfg *config.Config, brands config.BrandTable, log *logrus.Logger, dryRun bool) *orchestrator.Orchestrator {
	images := imagecheck.NewHTTPChecker(log)

	cjSource := cj.NewSource(cj.NewClient(cj.Config{
		Endpoint:  cfg.CJAPIEndpoint,
		Token:     cfg.CJAPIToken,
		CompanyID: cfg.CJCompanyID,
		PID:       cfg.CJPID,
	}, log), log)

	pjSource := pepperjam.NewSource(pepperjam.NewClient(pepperjam.Config{
		BaseURL: cfg.PepperjamBaseURL,
		Version: cfg.PepperjamAPIVersion,
		APIKey:  cfg.PepperjamAPIKey,
	}, log), log)

	fetchers := map[models.SourceAPI]orchestrator.ProductFetcher{
		models.SourceCJ:        retriever.New(cjSource, images, log),
		models.SourcePepperjam: retriever.New(pjSource, images, log),
	}

	sink := shopify.NewClient(shopify.Config{
		StoreName:   cfg.ShopifyStoreName,
		AccessToken: cfg.ShopifyToken(),
		APIVersion:  cfg.ShopifyAPIVersion,
	}, log, dryRun)

	return orchestrator.New(brands, fetchers, sink, log)
}
