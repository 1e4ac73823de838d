// Package status derives validity state from product data.
// It is pure: callers pass the reference date, nothing here reads the clock.
package status

import "time"

// Tier classifies a product by its days to expiry
type Tier string

const (
	// TierNoExpiry applies to products without an expiration date
	TierNoExpiry Tier = "NO_EXPIRY"
	// TierExpired applies when the expiration date has passed
	TierExpired Tier = "EXPIRED"
	// TierNearExpiry applies within 7 days of expiry (today counts)
	TierNearExpiry Tier = "NEAR_EXPIRY"
	// TierAttention applies between 8 and 30 days before expiry
	TierAttention Tier = "ATTENTION"
	// TierValid applies more than 30 days before expiry
	TierValid Tier = "VALID"
)

const (
	nearExpiryDays = 7
	attentionDays  = 30
)

// Evaluation holds the derived validity state of a product
type Evaluation struct {
	DaysToExpiry *int
	Tier         Tier
}

// Evaluate computes days to expiry and the validity tier for the given
// reference date. Days are counted in whole calendar days: a product
// expiring today has 0 days left and is NEAR_EXPIRY, not EXPIRED.
func Evaluate(expiry *time.Time, today time.Time) Evaluation {
	if expiry == nil {
		return Evaluation{Tier: TierNoExpiry}
	}

	days := DaysBetween(today, *expiry)

	var tier Tier
	switch {
	case days < 0:
		tier = TierExpired
	case days <= nearExpiryDays:
		tier = TierNearExpiry
	case days <= attentionDays:
		tier = TierAttention
	default:
		tier = TierValid
	}

	return Evaluation{DaysToExpiry: &days, Tier: tier}
}

// DaysBetween returns the signed number of calendar days from a to b,
// ignoring the time-of-day component of both.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	at := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bt := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}

// TotalValueCents returns the inventory value of a product in cents.
// A missing unit price counts as zero, not as an error.
func TotalValueCents(unitPriceCents *int, quantity int) int64 {
	if unitPriceCents == nil {
		return 0
	}
	return int64(*unitPriceCents) * int64(quantity)
}
