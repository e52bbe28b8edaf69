package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solpolar1990-debug/ozon-price-tracker/scraper"
	"github.com/solpolar1990-debug/ozon-price-tracker/search"
)

type emptySearch struct{}

func (emptySearch) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return nil, nil
}

func newTestHandlers(cronSecret string) *Handlers {
	return NewHandlers(nil, nil, nil, nil, scraper.NewFetcher(emptySearch{}), nil, cronSecret)
}

func TestValidateURL(t *testing.T) {
	h := newTestHandlers("")

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"valid product url", "https://www.ozon.ru/product/smartfon-1234567/", true},
		{"short link", "https://ozon.ru/t/AbC123", true},
		{"wrong host", "https://wildberries.ru/product/1234567/", false},
		{"no product reference", "https://www.ozon.ru/category/telefony/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/validate?url="+tt.url, nil)
			rec := httptest.NewRecorder()

			h.ValidateURL(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["valid"])
		})
	}
}

func TestValidateURLMissingParameter(t *testing.T) {
	h := newTestHandlers("")

	req := httptest.NewRequest("GET", "/api/v1/validate", nil)
	rec := httptest.NewRecorder()

	h.ValidateURL(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupProductRejectsInvalidURL(t *testing.T) {
	h := newTestHandlers("")

	req := httptest.NewRequest("GET", "/api/v1/lookup?url=https://wildberries.ru/product/1234567/", nil)
	rec := httptest.NewRecorder()

	h.LookupProduct(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupProductDegradedPrice(t *testing.T) {
	h := newTestHandlers("")

	req := httptest.NewRequest("GET", "/api/v1/lookup?url=https://www.ozon.ru/product/smartfon-1234567/", nil)
	rec := httptest.NewRecorder()

	h.LookupProduct(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1234567", body["product_id"])
	assert.Equal(t, float64(0), body["price"])
	assert.Equal(t, true, body["in_stock"])
}

func TestAddProductRejectsBadInput(t *testing.T) {
	h := newTestHandlers("")

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"missing telegram id", `{"url": "https://www.ozon.ru/product/smartfon-1234567/"}`},
		{"missing url", `{"telegram_id": "12345"}`},
		{"invalid url", `{"telegram_id": "12345", "url": "https://wildberries.ru/product/1234567/"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.AddProduct(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRunPriceCheckUnauthorized(t *testing.T) {
	h := newTestHandlers("s3cret")

	req := httptest.NewRequest("POST", "/api/cron/check-prices", nil)
	rec := httptest.NewRecorder()
	h.RunPriceCheck(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("POST", "/api/cron/check-prices", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.RunPriceCheck(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
