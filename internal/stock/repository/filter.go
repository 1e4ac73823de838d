package repository

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/stocktrack/stocktrack-backend/internal/stock/status"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
)

// ProductFilter holds the supported product list filters.
// String matches are case-insensitive substring matches, numeric and
// date fields are inclusive ranges.
type ProductFilter struct {
	Category string
	Brand    string
	Supplier string
	// Search matches category, brand, supplier or notes
	Search string

	PurchaseFrom *time.Time
	PurchaseTo   *time.Time
	ExpiryFrom   *time.Time
	ExpiryTo     *time.Time

	MinPriceCents *int
	MaxPriceCents *int
	MinQuantity   *int
	MaxQuantity   *int
	MinWeightKg   *float64
	MaxWeightKg   *float64

	ValidityTier string
}

// ParseProductFilter binds query parameters into a ProductFilter.
// Malformed values are rejected, not silently ignored.
func ParseProductFilter(values url.Values) (*ProductFilter, error) {
	f := &ProductFilter{
		Category: values.Get("category"),
		Brand:    values.Get("brand"),
		Supplier: values.Get("supplier"),
		Search:   values.Get("search"),
	}

	var err error
	if f.PurchaseFrom, err = parseDateParam(values, "purchase_date_from"); err != nil {
		return nil, err
	}
	if f.PurchaseTo, err = parseDateParam(values, "purchase_date_to"); err != nil {
		return nil, err
	}
	if f.ExpiryFrom, err = parseDateParam(values, "expiration_date_from"); err != nil {
		return nil, err
	}
	if f.ExpiryTo, err = parseDateParam(values, "expiration_date_to"); err != nil {
		return nil, err
	}

	if f.MinPriceCents, err = parseIntParam(values, "min_price_cents"); err != nil {
		return nil, err
	}
	if f.MaxPriceCents, err = parseIntParam(values, "max_price_cents"); err != nil {
		return nil, err
	}
	if f.MinQuantity, err = parseIntParam(values, "min_quantity"); err != nil {
		return nil, err
	}
	if f.MaxQuantity, err = parseIntParam(values, "max_quantity"); err != nil {
		return nil, err
	}
	if f.MinWeightKg, err = parseFloatParam(values, "min_weight_kg"); err != nil {
		return nil, err
	}
	if f.MaxWeightKg, err = parseFloatParam(values, "max_weight_kg"); err != nil {
		return nil, err
	}

	if tier := values.Get("validity_tier"); tier != "" {
		switch status.Tier(tier) {
		case status.TierNoExpiry, status.TierExpired, status.TierNearExpiry,
			status.TierAttention, status.TierValid:
			f.ValidityTier = tier
		default:
			return nil, errors.BadRequest("invalid validity_tier: " + tier)
		}
	}

	return f, nil
}

// Clauses renders the filter into SQL conditions and bind arguments.
// Placeholders start at firstArg so callers can prepend their own.
func (f *ProductFilter) Clauses(today time.Time, firstArg int) ([]string, []interface{}) {
	var clauses []string
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", firstArg+len(args)-1)
	}

	if f.Category != "" {
		clauses = append(clauses, "category ILIKE "+next("%"+f.Category+"%"))
	}
	if f.Brand != "" {
		clauses = append(clauses, "brand ILIKE "+next("%"+f.Brand+"%"))
	}
	if f.Supplier != "" {
		clauses = append(clauses, "supplier ILIKE "+next("%"+f.Supplier+"%"))
	}
	if f.Search != "" {
		p := next("%" + f.Search + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(category ILIKE %s OR brand ILIKE %s OR supplier ILIKE %s OR notes ILIKE %s)", p, p, p, p))
	}

	if f.PurchaseFrom != nil {
		clauses = append(clauses, "purchase_date >= "+next(*f.PurchaseFrom))
	}
	if f.PurchaseTo != nil {
		clauses = append(clauses, "purchase_date <= "+next(*f.PurchaseTo))
	}
	if f.ExpiryFrom != nil {
		clauses = append(clauses, "expiration_date >= "+next(*f.ExpiryFrom))
	}
	if f.ExpiryTo != nil {
		clauses = append(clauses, "expiration_date <= "+next(*f.ExpiryTo))
	}

	if f.MinPriceCents != nil {
		clauses = append(clauses, "unit_price_cents >= "+next(*f.MinPriceCents))
	}
	if f.MaxPriceCents != nil {
		clauses = append(clauses, "unit_price_cents <= "+next(*f.MaxPriceCents))
	}
	if f.MinQuantity != nil {
		clauses = append(clauses, "quantity >= "+next(*f.MinQuantity))
	}
	if f.MaxQuantity != nil {
		clauses = append(clauses, "quantity <= "+next(*f.MaxQuantity))
	}
	if f.MinWeightKg != nil {
		clauses = append(clauses, "unit_weight_kg >= "+next(*f.MinWeightKg))
	}
	if f.MaxWeightKg != nil {
		clauses = append(clauses, "unit_weight_kg <= "+next(*f.MaxWeightKg))
	}

	if f.ValidityTier != "" {
		day := today.Truncate(24 * time.Hour)
		switch status.Tier(f.ValidityTier) {
		case status.TierNoExpiry:
			clauses = append(clauses, "expiration_date IS NULL")
		case status.TierExpired:
			clauses = append(clauses, "expiration_date < "+next(day))
		case status.TierNearExpiry:
			from := next(day)
			to := next(day.AddDate(0, 0, 7))
			clauses = append(clauses, fmt.Sprintf("expiration_date >= %s AND expiration_date <= %s", from, to))
		case status.TierAttention:
			from := next(day.AddDate(0, 0, 8))
			to := next(day.AddDate(0, 0, 30))
			clauses = append(clauses, fmt.Sprintf("expiration_date >= %s AND expiration_date <= %s", from, to))
		case status.TierValid:
			clauses = append(clauses, "expiration_date > "+next(day.AddDate(0, 0, 30)))
		}
	}

	return clauses, args
}

func parseDateParam(values url.Values, key string) (*time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.BadRequest(key + " must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

func parseIntParam(values url.Values, key string) (*int, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.BadRequest(key + " must be an integer")
	}
	return &n, nil
}

func parseFloatParam(values url.Values, key string) (*float64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.BadRequest(key + " must be a number")
	}
	return &n, nil
}
