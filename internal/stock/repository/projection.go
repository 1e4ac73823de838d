package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/stocktrack/stocktrack-backend/pkg/errors"
)

// exportFields lists the exportable product fields in their default order.
// Derived fields are included; anything not on this list is rejected.
var exportFields = []string{
	"id",
	"category",
	"brand",
	"quantity",
	"unit_weight_kg",
	"supplier",
	"unit_price_cents",
	"total_value_cents",
	"purchase_date",
	"expiration_date",
	"days_to_expiry",
	"validity_tier",
	"notes",
	"created_by",
	"created_at",
}

// DefaultExportFields returns the full exportable field list
func DefaultExportFields() []string {
	fields := make([]string, len(exportFields))
	copy(fields, exportFields)
	return fields
}

// ValidateExportFields checks the requested projection against the
// allow-list. An empty request means all fields.
func ValidateExportFields(fields []string) ([]string, error) {
	if len(fields) == 0 {
		return DefaultExportFields(), nil
	}

	allowed := make(map[string]bool, len(exportFields))
	for _, f := range exportFields {
		allowed[f] = true
	}

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !allowed[f] {
			return nil, errors.BadRequest("unknown export field: " + f)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return DefaultExportFields(), nil
	}

	return out, nil
}

// ExportValue renders one product field as a string for export.
// The product must already have its derived fields populated.
func ExportValue(p *Product, field string) string {
	switch field {
	case "id":
		return p.ID
	case "category":
		return p.Category
	case "brand":
		return p.Brand
	case "quantity":
		return strconv.Itoa(p.Quantity)
	case "unit_weight_kg":
		if p.UnitWeightKg == nil {
			return ""
		}
		return strconv.FormatFloat(*p.UnitWeightKg, 'f', -1, 64)
	case "supplier":
		return p.Supplier
	case "unit_price_cents":
		if p.UnitPriceCents == nil {
			return ""
		}
		return strconv.Itoa(*p.UnitPriceCents)
	case "total_value_cents":
		return strconv.FormatInt(p.TotalValueCents, 10)
	case "purchase_date":
		return p.PurchaseDate.Format("2006-01-02")
	case "expiration_date":
		if p.ExpirationDate == nil {
			return ""
		}
		return p.ExpirationDate.Format("2006-01-02")
	case "days_to_expiry":
		if p.DaysToExpiry == nil {
			return ""
		}
		return strconv.Itoa(*p.DaysToExpiry)
	case "validity_tier":
		return string(p.ValidityTier)
	case "notes":
		if p.Notes == nil {
			return ""
		}
		return *p.Notes
	case "created_by":
		if p.CreatedBy == nil {
			return ""
		}
		return *p.CreatedBy
	case "created_at":
		return p.CreatedAt.Format(time.RFC3339)
	default:
		return ""
	}
}
