package repo

import (
	"cloud.google.com/go/spanner"

	"github.com/light-bringer/listsync-service/internal/app/sync/contracts"
	"github.com/light-bringer/listsync-service/internal/pkg/query"
)

// listStatement builds the shared admin-listing query: optional status and
// listing filters, newest first, limit/offset pagination.
func listStatement(table, columns string, filter contracts.ListFilter) spanner.Statement {
	b := query.From(table).Select(columns)
	if filter.Status != "" {
		b = b.Where(query.Eq("status", filter.Status))
	}
	if filter.ListingID > 0 {
		b = b.Where(query.Eq("listing_id", filter.ListingID))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	b = b.OrderBy("created_at", query.Desc).Limit(limit)
	if filter.Offset > 0 {
		b = b.Offset(filter.Offset)
	}
	return b.Build()
}
