package m_listing

import (
	"time"

	"cloud.google.com/go/spanner"
)

// Data represents the database model for the listings table. The sync
// engine reads this table but does not own it; writes happen only through
// the staged-payload mapper.
type Data struct {
	ListingID        int64
	SKU              spanner.NullString
	RemoteID         spanner.NullString
	Title            string
	PriceCents       int64
	Currency         string
	Quantity         int64
	Condition        spanner.NullString
	Description      spanner.NullString
	CategoryID       spanner.NullString
	ShippingPolicyID spanner.NullString
	ReturnPolicyID   spanner.NullString
	PaymentPolicyID  spanner.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
