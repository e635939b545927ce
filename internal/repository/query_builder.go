package repository

import "github.com/doug-martin/goqu/v9"

// QueryBuilder collects equality filters from list endpoints and renders
// them as goqu conditions, mapping request field names to table columns.
type QueryBuilder interface {
	AddCondition(key string, value interface{})
	BuildConditions(aliases map[string]string) goqu.Ex
}
