package cj

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodsync/internal/models"
	"prodsync/internal/sources"
)

const productsFixture = `{
  "data": {
    "products": {
      "totalCount": 2,
      "count": 2,
      "resultList": [
        {
          "advertiserId": "6088764",
          "advertiserName": "Dreo",
          "id": "DR-HAF001",
          "title": "Dreo Smart Tower Fan",
          "description": "Quiet oscillating fan with app control",
          "price": {"amount": "89.99", "currency": "USD"},
          "salePrice": {"amount": "69.99", "currency": "USD"},
          "imageLink": "https://img.example.com/fan.jpg",
          "link": "https://www.dreo.com/fan",
          "brand": "Dreo",
          "availability": "in stock",
          "googleProductCategory": {"id": "606", "name": "Home > Fans"},
          "productType": ["Tower Fans"]
        },
        {
          "advertiserId": "6088764",
          "advertiserName": "Dreo",
          "id": "DR-AF500",
          "title": "Dreo Air Fryer Pro",
          "description": "6 quart smart air fryer",
          "price": {"amount": "129.99", "currency": "USD"},
          "imageLink": "https://img.example.com/fryer.jpg",
          "link": "https://www.dreo.com/fryer",
          "brand": "Dreo",
          "availability": "out of stock"
        }
      ]
    }
  }
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		Endpoint:  srv.URL,
		Token:     "test-token",
		CompanyID: "7520009",
	}, logrus.New())
	client.httpClient = srv.Client()

	return NewSource(client, logrus.New()), srv
}

func TestFetch_DecodesProducts(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery string
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		gotQuery = payload["query"]
		w.Write([]byte(productsFixture))
	})

	records, err := src.Fetch(context.Background(), sources.Query{AdvertiserID: "6088764", Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, gotQuery, `companyId: "7520009"`)
	assert.Contains(t, gotQuery, `partnerIds: ["6088764"]`)
	assert.Contains(t, gotQuery, "limit: 110")
	assert.NotContains(t, gotQuery, "linkCode", "no pid configured")

	fan := records[0]
	assert.Equal(t, "DR-HAF001", fan.ID)
	assert.Equal(t, "Dreo Smart Tower Fan", fan.Title)
	assert.Equal(t, "https://www.dreo.com/fan", fan.ProductURL)
	assert.Equal(t, "89.99", fan.Price)
	assert.Equal(t, "69.99", fan.SalePrice)
	assert.Equal(t, "USD", fan.Currency)
	assert.Equal(t, "in stock", fan.Availability)
	assert.Equal(t, []string{"Tower Fans", "Home > Fans"}, fan.Categories)
	assert.JSONEq(t, string(fan.Raw), extractRawFixture(t, 0))

	fryer := records[1]
	assert.Equal(t, "out of stock", fryer.Availability)
	assert.Empty(t, fryer.SalePrice)
}

func TestFetch_UsesClickURLWhenPIDConfigured(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "linkCode(pid: \\\"pid-1\\\")")
		w.Write([]byte(`{"data": {"products": {"totalCount": 1, "count": 1, "resultList": [
			{"id": "p1", "title": "Boot", "link": "https://shop.example.com/boot",
			 "linkCode": {"clickUrl": "https://www.anrdoezrs.net/click-123"}}
		]}}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Token: "t", CompanyID: "c", PID: "pid-1"}, logrus.New())
	client.httpClient = srv.Client()
	src := NewSource(client, logrus.New())

	records, err := src.Fetch(context.Background(), sources.Query{AdvertiserID: "1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://www.anrdoezrs.net/click-123", records[0].ProductURL)
}

func TestFetch_GraphQLErrors(t *testing.T) {
	t.Parallel()

	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "Company 7520009 is not authorized"}]}`))
	})

	_, err := src.Fetch(context.Background(), sources.Query{AdvertiserID: "1", Limit: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}

func TestFetch_MissingPayload(t *testing.T) {
	t.Parallel()

	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	})

	_, err := src.Fetch(context.Background(), sources.Query{AdvertiserID: "1", Limit: 5})
	assert.Error(t, err)
}

func TestFetch_ToleratesNumericFields(t *testing.T) {
	t.Parallel()

	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"products": {"totalCount": 2, "count": 2, "resultList": [
			{"id": 42, "advertiserId": 6088764, "title": "Numeric feed",
			 "price": {"amount": 19.99, "currency": "USD"}},
			{"id": "ok-1", "title": "Good product"}
		]}}}`))
	})

	records, err := src.Fetch(context.Background(), sources.Query{AdvertiserID: "1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, records, 2)

	numeric := records[0]
	assert.Equal(t, "42", numeric.ID)
	assert.Equal(t, "6088764", numeric.AdvertiserID)
	assert.Equal(t, "19.99", numeric.Price)
}

func TestFetch_SkipsUndecodableEntries(t *testing.T) {
	t.Parallel()

	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"products": {"totalCount": 2, "count": 2, "resultList": [
			{"id": "broken", "price": "not an object"},
			{"id": "ok-1", "title": "Good product"}
		]}}}`))
	})

	records, err := src.Fetch(context.Background(), sources.Query{AdvertiserID: "1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ok-1", records[0].ID)
}

func TestName(t *testing.T) {
	t.Parallel()
	src := NewSource(NewClient(Config{}, logrus.New()), logrus.New())
	assert.Equal(t, models.SourceCJ, src.Name())
}

func extractRawFixture(t *testing.T, idx int) string {
	t.Helper()
	var envelope struct {
		Data struct {
			Products struct {
				ResultList []json.RawMessage `json:"resultList"`
			} `json:"products"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(productsFixture), &envelope))
	return string(envelope.Data.Products.ResultList[idx])
}
