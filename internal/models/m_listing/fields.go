package m_listing

// Field name constants for the listings table.
const (
	TableName = "listings"

	ListingID        = "listing_id"
	SKU              = "sku"
	RemoteID         = "remote_id"
	Title            = "title"
	PriceCents       = "price_cents"
	Currency         = "currency"
	Quantity         = "quantity"
	Condition        = "condition"
	Description      = "description"
	CategoryID       = "category_id"
	ShippingPolicyID = "shipping_policy_id"
	ReturnPolicyID   = "return_policy_id"
	PaymentPolicyID  = "payment_policy_id"
	CreatedAt        = "created_at"
	UpdatedAt        = "updated_at"
)

var AllColumns = []string{
	ListingID,
	SKU,
	RemoteID,
	Title,
	PriceCents,
	Currency,
	Quantity,
	Condition,
	Description,
	CategoryID,
	ShippingPolicyID,
	ReturnPolicyID,
	PaymentPolicyID,
	CreatedAt,
	UpdatedAt,
}
