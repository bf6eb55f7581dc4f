package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config carries everything read from the environment. Credentials for all
// three external systems are required before any brand processing starts;
// a missing credential is the only error that aborts the whole run.
type Config struct {
	// CJ (Commission Junction) GraphQL catalog.
	CJAPIEndpoint string
	CJAPIToken    string `validate:"required"`
	CJCompanyID   string `validate:"required"`
	CJPID         string

	// Pepperjam (Ascend) publisher REST catalog.
	PepperjamBaseURL    string
	PepperjamAPIKey     string `validate:"required"`
	PepperjamAPIVersion string

	// Shopify catalog sink. Either an access token or a legacy API password
	// must be present.
	ShopifyStoreName   string `validate:"required"`
	ShopifyAccessToken string `validate:"required_without=ShopifyAPIPassword"`
	ShopifyAPIPassword string
	ShopifyAPIVersion  string

	// Environment
	Env       string
	LogLevel  string
	LogDir    string
	ExportDir string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		CJAPIEndpoint:       getEnv("CJ_API_ENDPOINT", "https://ads.api.cj.com/query"),
		CJAPIToken:          getEnv("CJ_API_TOKEN", ""),
		CJCompanyID:         getEnv("CJ_COMPANY_ID", ""),
		CJPID:               getEnv("CJ_PID", ""),
		PepperjamBaseURL:    getEnv("PEPPERJAM_API_BASE_URL", "https://api.pepperjamnetwork.com"),
		PepperjamAPIKey:     getEnv("PEPPERJAM_API_KEY", os.Getenv("ASCEND_API_KEY")),
		PepperjamAPIVersion: getEnv("PEPPERJAM_API_VERSION", "20120402"),
		ShopifyStoreName:    sanitizeStoreName(getEnv("SHOPIFY_STORE_NAME", "")),
		ShopifyAccessToken:  getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyAPIPassword:  getEnv("SHOPIFY_API_PASSWORD", ""),
		ShopifyAPIVersion:   getEnv("SHOPIFY_API_VERSION", "2024-07"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogDir:              getEnv("LOG_DIR", "logs"),
		ExportDir:           getEnv("EXPORT_DIR", "output"),
	}, nil
}

// Validate checks that all required credentials are present. The returned
// error names every missing variable so a misconfigured deployment can be
// fixed in one pass.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, envVarFor(fe.Field()))
	}
	return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
}

// ShopifyToken returns whichever Shopify credential is configured.
func (c *Config) ShopifyToken() string {
	if c.ShopifyAccessToken != "" {
		return c.ShopifyAccessToken
	}
	return c.ShopifyAPIPassword
}

func envVarFor(field string) string {
	switch field {
	case "CJAPIToken":
		return "CJ_API_TOKEN"
	case "CJCompanyID":
		return "CJ_COMPANY_ID"
	case "PepperjamAPIKey":
		return "PEPPERJAM_API_KEY"
	case "ShopifyStoreName":
		return "SHOPIFY_STORE_NAME"
	case "ShopifyAccessToken":
		return "SHOPIFY_ACCESS_TOKEN or SHOPIFY_API_PASSWORD"
	default:
		return field
	}
}

// sanitizeStoreName strips quotes, inline comments and the .myshopify.com
// suffix that operators tend to leave in .env files.
func sanitizeStoreName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "#"); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.Trim(name, `"'`)
	name = strings.TrimSuffix(name, ".myshopify.com")
	return name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
