package retriever

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodsync/internal/models"
	"prodsync/internal/sources"
	"prodsync/internal/sources/cj"
)

type fakeSource struct {
	name    models.SourceAPI
	records []sources.Record
	err     error
}

func (f *fakeSource) Name() models.SourceAPI { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, q sources.Query) ([]sources.Record, error) {
	return f.records, f.err
}

type fakeImages struct {
	invalid map[string]bool
}

func (f *fakeImages) Valid(ctx context.Context, url string) bool {
	return !f.invalid[url]
}

func record(id, title string) sources.Record {
	return sources.Record{
		ID:           id,
		Title:        title,
		ProductURL:   "https://shop.example.com/" + id,
		ImageURL:     "https://img.example.com/" + id + ".jpg",
		Price:        "49.99",
		Currency:     "USD",
		AdvertiserID: "6284903",
	}
}

func newRetriever(src *fakeSource, images *fakeImages) *Retriever {
	if images == nil {
		images = &fakeImages{}
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(src, images, logger)
}

func TestFetch_ValidProductsPass(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: models.SourceCJ, records: []sources.Record{
		record("p1", "Rocky Work Boot"),
		record("p2", "Rocky Hiking Boot"),
	}}

	products := newRetriever(src, nil).Fetch(context.Background(), Request{
		AdvertiserID: "6284903",
		BrandName:    "RockyBoots.com",
		Limit:        10,
	})

	require.Len(t, products, 2)
	p := products[0]
	assert.Equal(t, models.SourceCJ, p.SourceAPI)
	assert.Equal(t, "ROCKYBOOTSCOM-CJ-p1", p.SKU)
	assert.Equal(t, 49.99, p.Price)
	assert.True(t, p.Availability)
}

func TestFetch_SourceErrorReturnsNil(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: models.SourceCJ, err: errors.New("network down")}
	assert.Nil(t, newRetriever(src, nil).Fetch(context.Background(), Request{BrandName: "X", Limit: 5}))
}

func TestFetch_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	noTitle := record("no-title", "")
	noURL := record("no-url", "Boot")
	noURL.ProductURL = ""
	noImage := record("no-image", "Boot")
	noImage.ImageURL = ""
	zeroPrice := record("zero-price", "Free Boot")
	zeroPrice.Price = "0.00"
	badPrice := record("bad-price", "Odd Boot")
	badPrice.Price = "N/A"
	deadImage := record("dead-image", "Ghost Boot")

	src := &fakeSource{name: models.SourceCJ, records: []sources.Record{
		noTitle, noURL, noImage, zeroPrice, badPrice, deadImage, record("good", "Real Boot"),
	}}
	images := &fakeImages{invalid: map[string]bool{deadImage.ImageURL: true}}

	products := newRetriever(src, images).Fetch(context.Background(), Request{BrandName: "Brand", Limit: 10})

	require.Len(t, products, 1)
	assert.Equal(t, "good", products[0].SourceProductID)
}

func TestFetch_KeywordsMatchAsOR(t *testing.T) {
	t.Parallel()

	workBoot := record("p1", "Steel Toe Work Boot")
	rainBoot := record("p2", "Waterproof Rain Boot")
	rainBoot.Description = "Fully waterproof rubber boot"
	sandal := record("p3", "Summer Sandal")

	src := &fakeSource{name: models.SourceCJ, records: []sources.Record{workBoot, rainBoot, sandal}}

	products := newRetriever(src, nil).Fetch(context.Background(), Request{
		BrandName: "Brand",
		Keywords:  []string{"Work Boot", "Waterproof"},
		Limit:     10,
	})

	require.Len(t, products, 2)
	assert.Equal(t, []string{"Work Boot"}, products[0].KeywordsMatched)
	assert.Equal(t, []string{"Waterproof"}, products[1].KeywordsMatched)
}

func TestFetch_DeduplicatesFirstWins(t *testing.T) {
	t.Parallel()

	first := record("dup", "First Listing")
	second := record("dup", "Second Listing")

	src := &fakeSource{name: models.SourceCJ, records: []sources.Record{first, second}}

	products := newRetriever(src, nil).Fetch(context.Background(), Request{BrandName: "Brand", Limit: 10})

	require.Len(t, products, 1)
	assert.Equal(t, "First Listing", products[0].Title)
}

func TestFetch_RejectsRecordsWithoutIdentity(t *testing.T) {
	t.Parallel()

	anonymous := record("", "Nameless Boot")
	orphaned := record("p0", "Orphaned Boot")
	orphaned.AdvertiserID = ""
	src := &fakeSource{name: models.SourceCJ, records: []sources.Record{anonymous, orphaned, record("p1", "Named Boot")}}

	products := newRetriever(src, nil).Fetch(context.Background(), Request{BrandName: "Brand", Limit: 10})

	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].SourceProductID)
}

func TestFetch_WarnsPerRejectedRecord(t *testing.T) {
	t.Parallel()

	zeroPrice := record("bad-id-777", "Free Boot")
	zeroPrice.Price = "0.00"
	src := &fakeSource{name: models.SourceCJ, records: []sources.Record{zeroPrice, record("good", "Real Boot")}}

	logger, hook := logrustest.NewNullLogger()
	products := New(src, &fakeImages{}, logger).Fetch(context.Background(), Request{BrandName: "Brand", Limit: 10})
	require.Len(t, products, 1)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Level != logrus.WarnLevel || entry.Data["product_id"] != "bad-id-777" {
			continue
		}
		found = true
		err, ok := entry.Data[logrus.ErrorKey].(error)
		require.True(t, ok)
		assert.EqualError(t, err, "invalid or zero price")
	}
	assert.True(t, found, "dropped record should be logged with its upstream id")
}

func TestFetch_RespectsLimit(t *testing.T) {
	t.Parallel()

	var records []sources.Record
	for i := 0; i < 20; i++ {
		records = append(records, record(fmt.Sprintf("p%d", i), fmt.Sprintf("Boot %d", i)))
	}
	src := &fakeSource{name: models.SourceCJ, records: records}

	products := newRetriever(src, nil).Fetch(context.Background(), Request{BrandName: "Brand", Limit: 5})
	assert.Len(t, products, 5)
}

func TestFetch_ScanCeiling(t *testing.T) {
	t.Parallel()

	var records []sources.Record
	for i := 0; i < 150; i++ {
		records = append(records, record(fmt.Sprintf("p%d", i), fmt.Sprintf("Boot %d", i)))
	}
	src := &fakeSource{name: models.SourceCJ, records: records}

	products := newRetriever(src, nil).Fetch(context.Background(), Request{BrandName: "Brand", Limit: 0})
	assert.Len(t, products, maxRawProductsToScan)
}

func TestParseAvailability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"in stock", true},
		{"IN STOCK", true},
		{"in_stock", true},
		{"available", true},
		{"yes", true},
		{"out of stock", false},
		{"Out Of Stock", false},
		{"unavailable", false},
		{"preorder", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseAvailability(tt.in), "input %q", tt.in)
	}
}

func TestMatchKeywords(t *testing.T) {
	t.Parallel()

	matched := MatchKeywords("Dreo Smart Air Fryer", "6 quart countertop fryer", []string{"air fryer", "toaster"})
	assert.Equal(t, []string{"air fryer"}, matched)

	matched = MatchKeywords("Tower Fan", "Quiet fan for bedrooms", []string{"AIR FRYER", "FAN"})
	assert.Equal(t, []string{"FAN"}, matched)

	assert.Nil(t, MatchKeywords("Tower Fan", "", []string{"fryer"}))
	assert.Nil(t, MatchKeywords("Tower Fan", "", nil))
}

func TestConvert_SalePriceMapping(t *testing.T) {
	t.Parallel()

	discounted := record("d1", "Discounted Boot")
	discounted.SalePrice = "39.99"
	higher := record("d2", "Mispriced Boot")
	higher.SalePrice = "99.99"

	src := &fakeSource{name: models.SourceCJ, records: []sources.Record{discounted, higher}}
	products := newRetriever(src, nil).Fetch(context.Background(), Request{BrandName: "Brand", Limit: 10})

	require.Len(t, products, 2)
	require.NotNil(t, products[0].SalePrice)
	assert.Equal(t, 39.99, *products[0].SalePrice)
	assert.Nil(t, products[1].SalePrice, "sale above list price is ignored")
}

func TestFetch_CJCatalogEndToEnd(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"products": {"totalCount": 2, "count": 2, "resultList": [
			{"advertiserId": "6088764", "id": "DR-HAF001", "title": "Dreo Smart Tower Fan",
			 "description": "Quiet oscillating fan with app control",
			 "price": {"amount": "89.99", "currency": "USD"},
			 "imageLink": "https://img.example.com/fan.jpg", "link": "https://www.dreo.com/fan",
			 "availability": "in stock"},
			{"advertiserId": "6088764", "id": "DR-AF500", "title": "Dreo Air Fryer Pro",
			 "description": "6 quart smart air fryer",
			 "price": {"amount": "129.99", "currency": "USD"},
			 "imageLink": "https://img.example.com/fryer.jpg", "link": "https://www.dreo.com/fryer",
			 "availability": "in stock"}
		]}}}`))
	}))
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	src := cj.NewSource(cj.NewClient(cj.Config{
		Endpoint:  srv.URL,
		Token:     "test-token",
		CompanyID: "7520009",
	}, logger), logger)

	products := New(src, &fakeImages{}, logger).Fetch(context.Background(), Request{
		AdvertiserID: "6088764",
		BrandName:    "Dreo",
		Keywords:     []string{"fryer"},
		Limit:        10,
	})

	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "DR-AF500", p.SourceProductID)
	assert.Equal(t, []string{"fryer"}, p.KeywordsMatched)
	assert.Equal(t, "DREO-CJ-DR-AF500", p.SKU)
	assert.Equal(t, 129.99, p.Price)
	assert.Equal(t, "6088764", p.SourceAdvertiserID)
}
