package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_BasicSelect(t *testing.T) {
	stmt := From("change_queue").
		Select("queue_id", "status", "intent").
		Build()

	assert.Equal(t, "SELECT queue_id, status, intent FROM change_queue", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_SelectAllColumns(t *testing.T) {
	stmt := From("change_queue").Build()

	assert.Equal(t, "SELECT * FROM change_queue", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_SingleWhereCondition(t *testing.T) {
	stmt := From("change_queue").
		Select("queue_id").
		Where(Eq("status", "pending")).
		Build()

	assert.Equal(t, "SELECT queue_id FROM change_queue WHERE status = @p0", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"p0": "pending",
	}, stmt.Params)
}

func TestBuilder_MultipleWhereConditions(t *testing.T) {
	stmt := From("change_queue").
		Select("queue_id").
		Where(Eq("intent", "update")).
		Where(Eq("status", "pending")).
		Build()

	assert.Equal(t, "SELECT queue_id FROM change_queue WHERE intent = @p0 AND status = @p1", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"p0": "update",
		"p1": "pending",
	}, stmt.Params)
}

func TestBuilder_ComparisonConditions(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("less than", func(t *testing.T) {
		stmt := From("change_queue").
			Select("queue_id").
			Where(Lt("lease_expires_at", cutoff)).
			Build()

		assert.Equal(t, "SELECT queue_id FROM change_queue WHERE lease_expires_at < @p0", stmt.SQL)
		assert.Equal(t, cutoff, stmt.Params["p0"])
	})

	t.Run("less than or equal", func(t *testing.T) {
		stmt := From("change_queue").
			Select("queue_id").
			Where(Lte("next_attempt_at", cutoff)).
			Build()

		assert.Equal(t, "SELECT queue_id FROM change_queue WHERE next_attempt_at <= @p0", stmt.SQL)
	})

	t.Run("greater than or equal", func(t *testing.T) {
		stmt := From("drift_events").
			Select("event_id").
			Where(Gte("created_at", cutoff)).
			Build()

		assert.Equal(t, "SELECT event_id FROM drift_events WHERE created_at >= @p0", stmt.SQL)
	})
}

func TestBuilder_InCondition(t *testing.T) {
	stmt := From("change_queue").
		Select("queue_id").
		Where(In("status", []string{"pending", "processing", "error"})).
		Build()

	assert.Equal(t, "SELECT queue_id FROM change_queue WHERE status IN UNNEST(@p0)", stmt.SQL)
	assert.Equal(t, []string{"pending", "processing", "error"}, stmt.Params["p0"])
}

func TestBuilder_NullConditions(t *testing.T) {
	stmt := From("change_queue").
		Select("queue_id").
		Where(IsNull("snapshot_id")).
		Where(IsNotNull("last_error")).
		Build()

	assert.Equal(t, "SELECT queue_id FROM change_queue WHERE snapshot_id IS NULL AND last_error IS NOT NULL", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_CompositeConditions(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	stmt := From("change_queue").
		Select("queue_id").
		Where(Or(
			And(
				In("status", []string{"pending", "error"}),
				Or(IsNull("next_attempt_at"), Lte("next_attempt_at", now)),
			),
			And(
				Eq("status", "processing"),
				IsNotNull("lease_expires_at"),
				Lt("lease_expires_at", now),
			),
		)).
		Build()

	want := "SELECT queue_id FROM change_queue WHERE " +
		"((status IN UNNEST(@p0) AND (next_attempt_at IS NULL OR next_attempt_at <= @p1)) " +
		"OR (status = @p2 AND lease_expires_at IS NOT NULL AND lease_expires_at < @p3))"
	assert.Equal(t, want, stmt.SQL)
	assert.Equal(t, []string{"pending", "error"}, stmt.Params["p0"])
	assert.Equal(t, now, stmt.Params["p1"])
	assert.Equal(t, "processing", stmt.Params["p2"])
	assert.Equal(t, now, stmt.Params["p3"])
}

func TestBuilder_OrderBy(t *testing.T) {
	t.Run("ascending", func(t *testing.T) {
		stmt := From("change_queue").
			Select("queue_id").
			OrderBy("created_at", Asc).
			Build()

		assert.Equal(t, "SELECT queue_id FROM change_queue ORDER BY created_at ASC", stmt.SQL)
	})

	t.Run("descending", func(t *testing.T) {
		stmt := From("snapshots").
			Select("snapshot_id").
			OrderBy("created_at", Desc).
			Build()

		assert.Equal(t, "SELECT snapshot_id FROM snapshots ORDER BY created_at DESC", stmt.SQL)
	})
}

func TestBuilder_Pagination(t *testing.T) {
	stmt := From("drift_events").
		Select("event_id").
		Limit(50).
		Offset(100).
		Build()

	assert.Equal(t, "SELECT event_id FROM drift_events LIMIT @limit OFFSET @offset", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"limit":  int64(50),
		"offset": int64(100),
	}, stmt.Params)
}

func TestBuilder_FullQuery(t *testing.T) {
	stmt := From("change_queue").
		Select("queue_id", "listing_id", "status").
		Where(Eq("listing_id", int64(42))).
		Where(In("status", []string{"pending", "error"})).
		OrderBy("created_at", Asc).
		Limit(10).
		Offset(20).
		Build()

	expectedSQL := "SELECT queue_id, listing_id, status FROM change_queue" +
		" WHERE listing_id = @p0 AND status IN UNNEST(@p1)" +
		" ORDER BY created_at ASC LIMIT @limit OFFSET @offset"
	assert.Equal(t, expectedSQL, stmt.SQL)
	assert.Equal(t, int64(42), stmt.Params["p0"])
}

func TestBuilder_Count(t *testing.T) {
	builder := From("change_queue").
		Select("queue_id", "status", "intent").
		Where(Eq("intent", "update")).
		Where(Eq("status", "pending")).
		OrderBy("created_at", Desc).
		Limit(50).
		Offset(100)

	// Count query reuses WHERE but drops pagination and ordering.
	countStmt := builder.Count().Build()
	assert.Equal(t, "SELECT COUNT(*) FROM change_queue WHERE intent = @p0 AND status = @p1", countStmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"p0": "update",
		"p1": "pending",
	}, countStmt.Params)

	// Original builder is unchanged.
	mainStmt := builder.Build()
	assert.Contains(t, mainStmt.SQL, "LIMIT @limit")
	assert.Contains(t, mainStmt.SQL, "OFFSET @offset")
}

func TestBuilder_CountWithoutFilters(t *testing.T) {
	stmt := From("failed_events").
		Select("failed_event_id").
		Count().
		Build()

	assert.Equal(t, "SELECT COUNT(*) FROM failed_events", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_Immutability(t *testing.T) {
	base := From("change_queue").Select("queue_id")

	stmt1 := base.Where(Eq("status", "pending")).Build()
	stmt2 := base.Where(Eq("intent", "update")).Build()

	assert.Contains(t, stmt1.SQL, "status = @p0")
	assert.NotContains(t, stmt1.SQL, "intent")

	assert.Contains(t, stmt2.SQL, "intent = @p0")
	assert.NotContains(t, stmt2.SQL, "status =")

	// The base builder itself is unaffected by derived builders.
	require.Equal(t, "SELECT queue_id FROM change_queue", base.Build().SQL)
}
