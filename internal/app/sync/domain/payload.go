package domain

import (
	"github.com/light-bringer/listsync-service/internal/pkg/canonical"
)

// Intent is the kind of synchronization a queue item performs against the
// remote marketplace.
type Intent string

const (
	IntentCreate Intent = "create"
	IntentUpdate Intent = "update"
	IntentDelete Intent = "delete"
	IntentRelist Intent = "relist"
)

// ValidIntent reports whether s names a known intent.
func ValidIntent(s string) bool {
	switch Intent(s) {
	case IntentCreate, IntentUpdate, IntentDelete, IntentRelist:
		return true
	}
	return false
}

// PolicyRefs are the remote account-level policy templates a listing
// references.
type PolicyRefs struct {
	Shipping string `json:"shipping,omitempty"`
	Return   string `json:"return,omitempty"`
	Payment  string `json:"payment,omitempty"`
}

// ListingPayload is the tagged, schema-validated fragment of a listing that
// is pushed to the remote side. Canonicalization and hashing are total over
// a validated payload; an invalid payload never reaches the queue.
type ListingPayload struct {
	ListingID   int64             `json:"listing_id"`
	Intent      Intent            `json:"intent"`
	SKU         string            `json:"sku,omitempty"`
	Title       string            `json:"title,omitempty"`
	PriceCents  int64             `json:"price_cents,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Quantity    int64             `json:"quantity"`
	Condition   string            `json:"condition,omitempty"`
	Description string            `json:"description,omitempty"`
	CategoryID  string            `json:"category_id,omitempty"`
	PolicyRefs  PolicyRefs        `json:"policy_refs"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Validate checks the payload against the schema for its intent. Delete only
// needs the listing identity; every other intent carries the full
// synchronizable fragment.
func (p *ListingPayload) Validate() error {
	if p.ListingID <= 0 {
		return &ValidationError{Cause: ErrMissingListingID}
	}
	if !ValidIntent(string(p.Intent)) {
		return &ValidationError{Cause: ErrInvalidIntent}
	}
	if p.Intent == IntentDelete {
		return nil
	}
	if p.Title == "" {
		return &ValidationError{Cause: ErrMissingTitle}
	}
	if p.PriceCents <= 0 {
		return &ValidationError{Cause: ErrInvalidPrice}
	}
	if p.Currency == "" {
		return &ValidationError{Cause: ErrMissingCurrency}
	}
	if p.Quantity < 0 {
		return &ValidationError{Cause: ErrInvalidQuantity}
	}
	if p.CategoryID == "" {
		return &ValidationError{Cause: ErrMissingCategory}
	}
	return nil
}

// Canonicalize validates the payload and returns its canonical JSON bytes
// together with the content hash.
func (p *ListingPayload) Canonicalize() ([]byte, string, error) {
	if err := p.Validate(); err != nil {
		return nil, "", err
	}
	data, err := canonical.Marshal(p)
	if err != nil {
		return nil, "", &ValidationError{Cause: err}
	}
	return data, canonical.HashBytes(data), nil
}

// Document returns the canonical bytes and hash of the payload with the
// intent cleared. The same listing content hashes identically regardless of
// the intent that carried it, which snapshot and drift comparison rely on.
func (p *ListingPayload) Document() ([]byte, string, error) {
	doc := *p
	doc.Intent = ""
	data, err := canonical.Marshal(&doc)
	if err != nil {
		return nil, "", err
	}
	return data, canonical.HashBytes(data), nil
}
