package domain

import (
	"encoding/json"
	"fmt"
)

// remoteDocument is the marketplace's listing shape as returned by its JSON
// API. Unknown fields are ignored; only the synchronizable fragment is
// mapped.
type remoteDocument struct {
	ItemID      string            `json:"item_id"`
	ListingID   int64             `json:"listing_id"`
	SKU         string            `json:"sku"`
	Title       string            `json:"title"`
	PriceCents  int64             `json:"price_cents"`
	Currency    string            `json:"currency"`
	Quantity    int64             `json:"quantity"`
	Condition   string            `json:"condition"`
	Description string            `json:"description"`
	CategoryID  string            `json:"category_id"`
	PolicyRefs  PolicyRefs        `json:"policy_refs"`
	Attributes  map[string]string `json:"attributes"`
}

// PayloadFromRemoteDocument maps a raw marketplace document onto the
// synchronizable fragment. The caller owns identity: ListingID is taken from
// the document when echoed back but is usually overwritten with the local ID
// before hashing.
func PayloadFromRemoteDocument(doc []byte) (*ListingPayload, string, error) {
	var rd remoteDocument
	if err := json.Unmarshal(doc, &rd); err != nil {
		return nil, "", fmt.Errorf("failed to parse remote document: %w", err)
	}
	if rd.ItemID == "" {
		return nil, "", ErrMissingRemoteID
	}
	return &ListingPayload{
		ListingID:   rd.ListingID,
		SKU:         rd.SKU,
		Title:       rd.Title,
		PriceCents:  rd.PriceCents,
		Currency:    rd.Currency,
		Quantity:    rd.Quantity,
		Condition:   rd.Condition,
		Description: rd.Description,
		CategoryID:  rd.CategoryID,
		PolicyRefs:  rd.PolicyRefs,
		Attributes:  rd.Attributes,
	}, rd.ItemID, nil
}
