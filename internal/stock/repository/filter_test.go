package repository_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductFilter_AllParams(t *testing.T) {
	values := url.Values{
		"category":             {"rice"},
		"brand":                {"camil"},
		"supplier":             {"atacadao"},
		"search":               {"organic"},
		"purchase_date_from":   {"2026-01-01"},
		"purchase_date_to":     {"2026-06-30"},
		"expiration_date_from": {"2026-07-01"},
		"expiration_date_to":   {"2026-12-31"},
		"min_price_cents":      {"100"},
		"max_price_cents":      {"5000"},
		"min_quantity":         {"1"},
		"max_quantity":         {"100"},
		"min_weight_kg":        {"0.5"},
		"max_weight_kg":        {"25"},
		"validity_tier":        {"ATTENTION"},
	}

	filter, err := repository.ParseProductFilter(values)
	require.NoError(t, err)

	assert.Equal(t, "rice", filter.Category)
	assert.Equal(t, "camil", filter.Brand)
	assert.Equal(t, "atacadao", filter.Supplier)
	assert.Equal(t, "organic", filter.Search)
	require.NotNil(t, filter.PurchaseFrom)
	assert.Equal(t, 2026, filter.PurchaseFrom.Year())
	require.NotNil(t, filter.MinPriceCents)
	assert.Equal(t, 100, *filter.MinPriceCents)
	require.NotNil(t, filter.MaxWeightKg)
	assert.Equal(t, 25.0, *filter.MaxWeightKg)
	assert.Equal(t, "ATTENTION", filter.ValidityTier)
}

func TestParseProductFilter_Empty(t *testing.T) {
	filter, err := repository.ParseProductFilter(url.Values{})
	require.NoError(t, err)

	clauses, args := filter.Clauses(time.Now(), 1)
	assert.Empty(t, clauses)
	assert.Empty(t, args)
}

func TestParseProductFilter_MalformedValues(t *testing.T) {
	cases := []url.Values{
		{"purchase_date_from": {"01/02/2026"}},
		{"expiration_date_to": {"soon"}},
		{"min_price_cents": {"ten"}},
		{"max_quantity": {"1.5"}},
		{"min_weight_kg": {"heavy"}},
		{"validity_tier": {"FRESH"}},
	}

	for _, values := range cases {
		_, err := repository.ParseProductFilter(values)
		assert.Error(t, err, values.Encode())
	}
}

func TestProductFilter_Clauses_PlaceholderNumbering(t *testing.T) {
	minQty := 1
	maxQty := 50
	filter := &repository.ProductFilter{
		Category:    "rice",
		Brand:       "camil",
		MinQuantity: &minQty,
		MaxQuantity: &maxQty,
	}

	clauses, args := filter.Clauses(time.Now(), 3)
	require.Len(t, clauses, 4)
	require.Len(t, args, 4)

	joined := strings.Join(clauses, " AND ")
	assert.Contains(t, joined, "$3")
	assert.Contains(t, joined, "$4")
	assert.Contains(t, joined, "$5")
	assert.Contains(t, joined, "$6")
	assert.NotContains(t, joined, "$7")
	assert.Equal(t, "%rice%", args[0])
}

func TestProductFilter_Clauses_ValidityWindows(t *testing.T) {
	today := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		tier       string
		wantClause string
		wantArgs   int
	}{
		{"NO_EXPIRY", "expiration_date IS NULL", 0},
		{"EXPIRED", "expiration_date < $1", 1},
		{"NEAR_EXPIRY", "expiration_date >= $1 AND expiration_date <= $2", 2},
		{"ATTENTION", "expiration_date >= $1 AND expiration_date <= $2", 2},
		{"VALID", "expiration_date > $1", 1},
	}

	for _, tc := range cases {
		filter := &repository.ProductFilter{ValidityTier: tc.tier}
		clauses, args := filter.Clauses(today, 1)
		require.Len(t, clauses, 1, tc.tier)
		assert.Equal(t, tc.wantClause, clauses[0], tc.tier)
		assert.Len(t, args, tc.wantArgs, tc.tier)
	}
}

func TestProductFilter_Clauses_SearchSharesPlaceholder(t *testing.T) {
	filter := &repository.ProductFilter{Search: "organic"}

	clauses, args := filter.Clauses(time.Now(), 1)
	require.Len(t, clauses, 1)
	require.Len(t, args, 1)
	assert.Equal(t, "%organic%", args[0])
	assert.Equal(t, 4, strings.Count(clauses[0], "$1"))
}
