package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Parse extracts list params from URL query values.
// Filters use the PostgREST form field=op.value, e.g. save_mode=in.(local,s3).
func Parse(q url.Values, config Config) Params {
	params := DefaultParams()
	params.Page = intOrDefault(q.Get("page"), 1)
	params.SortBy = q.Get("sortBy")
	params.SortOrder = normalizeSortOrder(q.Get("order"))
	params.Query.FreeText = strings.TrimSpace(q.Get("search"))

	for _, key := range []string{"limit", "pageSize"} {
		switch v := q.Get(key); v {
		case "":
		case "-1", "all":
			params.NoPagination = true
		default:
			params.PageSize = clamp(intOrDefault(v, DefaultPageSize), 1, MaxPageSize)
		}
	}

	for _, field := range config.AllowedFilters {
		if v := q.Get(field); v != "" {
			params.Query.Conditions = append(params.Query.Conditions, parseCondition(field, v))
		}
	}
	params.Page = min(params.Page, math.MaxInt/params.PageSize)
	return params
}

// parseCondition parses a single PostgREST-style condition (op.value).
func parseCondition(field, value string) Condition {
	switch value {
	case "is.null":
		return Condition{Field: field, Operator: OpNull}
	case "not.is.null":
		return Condition{Field: field, Operator: OpNotNull}
	}

	opStr, rawValue, found := strings.Cut(value, ".")
	op := Operator(opStr)
	if !found || !op.IsValid() {
		return Condition{Field: field, Operator: OpEq, Value: value}
	}
	if strings.HasPrefix(rawValue, "(") && strings.HasSuffix(rawValue, ")") {
		return Condition{Field: field, Operator: op, Values: splitValues(rawValue[1 : len(rawValue)-1])}
	}
	return Condition{Field: field, Operator: op, Value: rawValue}
}

func splitValues(inner string) []string {
	var values []string
	for _, s := range strings.Split(inner, ",") {
		if s = strings.TrimSpace(s); s != "" {
			values = append(values, s)
		}
	}
	return values
}

func intOrDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func clamp(v, lower, upper int) int {
	return max(lower, min(v, upper))
}

func normalizeSortOrder(s string) string {
	if strings.EqualFold(s, "desc") {
		return "desc"
	}
	return "asc"
}
