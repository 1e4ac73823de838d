package database

import (
	stderrors "errors"
	"strings"

	"github.com/lib/pq"
	"github.com/stocktrack/stocktrack-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Invalid text representation (22P02), e.g. a non-UUID id in the path
	case "22P02":
		return errors.BadRequest("invalid identifier or value format")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_non_negative"):
		return errors.Validation(map[string]string{
			"quantity": "must not be negative",
		})

	case strings.Contains(constraint, "unit_price_positive"):
		return errors.Validation(map[string]string{
			"unit_price_cents": "must be greater than zero",
		})

	case strings.Contains(constraint, "unit_weight_positive"):
		return errors.Validation(map[string]string{
			"unit_weight_kg": "must be greater than zero",
		})

	case strings.Contains(constraint, "direction_valid"):
		return errors.Validation(map[string]string{
			"direction": "must be one of: ENTRY, EXIT",
		})

	case strings.Contains(constraint, "reason_valid"):
		return errors.Validation(map[string]string{
			"reason": "must be one of: PURCHASE, SALE, ADJUSTMENT, LOSS, RETURN, OTHER",
		})

	case strings.Contains(constraint, "kind_valid"):
		return errors.Validation(map[string]string{
			"kind": "must be one of: LOW_STOCK, NEAR_EXPIRY, NO_MOVEMENT",
		})

	case strings.Contains(constraint, "severity_valid"):
		return errors.Validation(map[string]string{
			"severity": "must be one of: LOW, MEDIUM, HIGH",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "alerts_open_product_kind"):
		return "an open alert of this kind already exists for this product"
	default:
		return "a record with these values already exists"
	}
}
