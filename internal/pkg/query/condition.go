package query

import (
	"fmt"
	"strings"
)

// Condition represents a WHERE clause condition.
// Implementations must generate SQL fragments and parameter maps
// using Spanner's named parameter format (@paramName).
type Condition interface {
	// SQL returns the SQL fragment and parameter map for this condition.
	// paramIndex is used to generate unique parameter names (@p0, @p1, etc.)
	SQL(paramIndex int) (string, map[string]interface{})
}

// eqCondition implements equality comparison (field = value).
type eqCondition struct {
	field string
	value interface{}
}

// Eq creates a WHERE condition for equality comparison.
// Example: Eq("status", "active") generates "status = @p0"
func Eq(field string, value interface{}) Condition {
	return &eqCondition{
		field: field,
		value: value,
	}
}

// SQL generates the SQL fragment for equality comparison.
func (c *eqCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	paramName := fmt.Sprintf("p%d", paramIndex)
	sql := fmt.Sprintf("%s = @%s", c.field, paramName)
	params := map[string]interface{}{
		paramName: c.value,
	}
	return sql, params
}

// cmpCondition implements a binary comparison with a configurable operator.
type cmpCondition struct {
	field string
	op    string
	value interface{}
}

// Lt creates a WHERE condition for less-than comparison.
// Example: Lt("next_attempt_at", now) generates "next_attempt_at < @p0"
func Lt(field string, value interface{}) Condition {
	return &cmpCondition{field: field, op: "<", value: value}
}

// Lte creates a WHERE condition for less-than-or-equal comparison.
func Lte(field string, value interface{}) Condition {
	return &cmpCondition{field: field, op: "<=", value: value}
}

// Gte creates a WHERE condition for greater-than-or-equal comparison.
func Gte(field string, value interface{}) Condition {
	return &cmpCondition{field: field, op: ">=", value: value}
}

// SQL generates the SQL fragment for a binary comparison.
func (c *cmpCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	paramName := fmt.Sprintf("p%d", paramIndex)
	sql := fmt.Sprintf("%s %s @%s", c.field, c.op, paramName)
	params := map[string]interface{}{
		paramName: c.value,
	}
	return sql, params
}

// inCondition implements membership comparison (field IN UNNEST(@p)).
type inCondition struct {
	field  string
	values interface{}
}

// In creates a WHERE condition for membership comparison against a slice.
// Example: In("status", []string{"pending", "error"}) generates
// "status IN UNNEST(@p0)"
func In(field string, values interface{}) Condition {
	return &inCondition{field: field, values: values}
}

// SQL generates the SQL fragment for membership comparison.
func (c *inCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	paramName := fmt.Sprintf("p%d", paramIndex)
	sql := fmt.Sprintf("%s IN UNNEST(@%s)", c.field, paramName)
	params := map[string]interface{}{
		paramName: c.values,
	}
	return sql, params
}

// IsNull creates a WHERE condition for NULL checks.
// Example: IsNull("discount_percent") generates "discount_percent IS NULL"
// Note: This is a placeholder for future extension.
func IsNull(field string) Condition {
	return &isNullCondition{field: field}
}

// isNullCondition implements IS NULL comparison.
type isNullCondition struct {
	field string
}

// SQL generates the SQL fragment for IS NULL comparison.
func (c *isNullCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	sql := fmt.Sprintf("%s IS NULL", c.field)
	return sql, map[string]interface{}{}
}

// IsNotNull creates a WHERE condition for NOT NULL checks.
// Example: IsNotNull("discount_percent") generates "discount_percent IS NOT NULL"
// Note: This is a placeholder for future extension.
func IsNotNull(field string) Condition {
	return &isNotNullCondition{field: field}
}

// isNotNullCondition implements IS NOT NULL comparison.
type isNotNullCondition struct {
	field string
}

// SQL generates the SQL fragment for IS NOT NULL comparison.
func (c *isNotNullCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	sql := fmt.Sprintf("%s IS NOT NULL", c.field)
	return sql, map[string]interface{}{}
}

// compositeCondition joins child conditions with a boolean operator and
// wraps the result in parentheses so composites nest safely.
type compositeCondition struct {
	op    string
	conds []Condition
}

// And combines conditions with AND logic inside one parenthesized group.
// Example: And(Eq("status", "error"), IsNotNull("lease_expires_at"))
// generates "(status = @p0 AND lease_expires_at IS NOT NULL)"
func And(conds ...Condition) Condition {
	return &compositeCondition{op: " AND ", conds: conds}
}

// Or combines conditions with OR logic inside one parenthesized group.
// Example: Or(IsNull("next_attempt_at"), Lte("next_attempt_at", now))
// generates "(next_attempt_at IS NULL OR next_attempt_at <= @p0)"
func Or(conds ...Condition) Condition {
	return &compositeCondition{op: " OR ", conds: conds}
}

// SQL generates the parenthesized SQL fragment for the composite. Parameter
// indices advance across children the same way the builder advances them
// across top-level conditions.
func (c *compositeCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	parts := make([]string, 0, len(c.conds))
	params := make(map[string]interface{})
	for _, cond := range c.conds {
		fragment, condParams := cond.SQL(paramIndex)
		parts = append(parts, fragment)
		for k, v := range condParams {
			params[k] = v
		}
		paramIndex += len(condParams)
	}
	return "(" + strings.Join(parts, c.op) + ")", params
}
