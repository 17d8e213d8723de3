// Package query provides a PostgREST-style list query builder for GORM with
// pagination, sorting, filtering and facet counts.
package query

import (
	"math"
	"slices"
)

// Operator represents filter operators matching PostgREST/Supabase format.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNeq     Operator = "neq"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpIn      Operator = "in"
	OpNin     Operator = "nin"
	OpLike    Operator = "like"
	OpIlike   Operator = "ilike"
	OpNull    Operator = "null"
	OpNotNull Operator = "notNull"
)

var allOperators = []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin, OpLike, OpIlike, OpNull, OpNotNull}

// IsValid reports whether the operator is known.
func (o Operator) IsValid() bool {
	return slices.Contains(allOperators, o)
}

// Condition represents a single filter condition.
type Condition struct {
	Field    string
	Operator Operator
	Value    string
	Values   []string // in, nin
}

// FilterQuery holds parsed filter conditions.
type FilterQuery struct {
	Conditions []Condition
	FreeText   string
}

// Params holds parsed query parameters.
type Params struct {
	Page         int
	PageSize     int
	NoPagination bool
	SortBy       string
	SortOrder    string
	Query        FilterQuery
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{Page: 1, PageSize: DefaultPageSize, SortOrder: "asc"}
}

// Offset returns the row offset of the page. Pages past the largest
// addressable offset are clamped to it.
func (p Params) Offset() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt / p.PageSize * p.PageSize
	}
	return (p.Page - 1) * p.PageSize
}

// AddCondition appends a condition to the query.
func (p *Params) AddCondition(field string, op Operator, value string) {
	p.Query.Conditions = append(p.Query.Conditions, Condition{
		Field: field, Operator: op, Value: value,
	})
}

// Pagination metadata returned in paginated results.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Result is a paginated response with optional facets.
type Result[T any] struct {
	Data       []T                       `json:"data"`
	Pagination Pagination                `json:"pagination"`
	Facets     map[string]map[string]int `json:"facets,omitempty"`
}

// Config defines entity-specific query behavior. Only fields listed in
// AllowedFilters and AllowedSortFields reach SQL.
type Config struct {
	SearchFields      []string
	AllowedSortFields []string
	AllowedFilters    []string
	FieldAliases      map[string]string
	DefaultSort       string
	FacetFields       []string
}

// ResolveField returns the actual column name for a field, using FieldAliases if available.
func (c Config) ResolveField(field string) string {
	if alias, ok := c.FieldAliases[field]; ok {
		return alias
	}
	return field
}

func (c Config) filterAllowed(field string) bool {
	return slices.Contains(c.AllowedFilters, field)
}
