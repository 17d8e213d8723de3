package query

import (
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
)

// ApplyToGorm runs params against db, which must already carry a Model,
// and returns one page of T with facet counts.
func ApplyToGorm[T any](db *gorm.DB, params Params, config Config) (*Result[T], error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = DefaultPageSize
	}

	q := buildBaseQuery(db, params.Query.Conditions, config)
	if params.Query.FreeText != "" && len(config.SearchFields) > 0 {
		q = applySearch(q, params.Query.FreeText, config.SearchFields)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	facets, err := computeFacets(db, config.FacetFields, params.Query.Conditions, config)
	if err != nil {
		return nil, err
	}

	page := applySort(q, params.SortBy, params.SortOrder, config)
	if !params.NoPagination {
		page = page.Offset(params.Offset()).Limit(params.PageSize)
	}

	data := make([]T, 0)
	if err := page.Find(&data).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	pageSize, totalPages := params.PageSize, 1
	if params.NoPagination {
		pageSize = int(total)
	} else if int(total) > pageSize {
		totalPages = (int(total) + pageSize - 1) / pageSize
	}

	return &Result[T]{
		Data: data,
		Pagination: Pagination{
			Page: params.Page, PageSize: pageSize,
			Total: int(total), TotalPages: totalPages,
		},
		Facets: facets,
	}, nil
}

func applySearch(db *gorm.DB, search string, fields []string) *gorm.DB {
	pattern := "%" + strings.ToLower(search) + "%"
	conds := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ?", f))
		args = append(args, pattern)
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}

func applyCondition(db *gorm.DB, cond Condition, config Config) *gorm.DB {
	if !config.filterAllowed(cond.Field) {
		return db
	}
	field := config.ResolveField(cond.Field)

	values := cond.Values
	if len(values) == 0 && cond.Value != "" && (cond.Operator == OpIn || cond.Operator == OpNin) {
		values = splitValues(cond.Value)
	}

	switch cond.Operator {
	case OpEq:
		if len(values) > 0 {
			return db.Where(field+" IN ?", values)
		}
		return db.Where(field+" = ?", cond.Value)
	case OpNeq:
		if len(values) > 0 {
			return db.Where(field+" NOT IN ?", values)
		}
		return db.Where(field+" != ?", cond.Value)
	case OpGt:
		return db.Where(field+" > ?", cond.Value)
	case OpGte:
		return db.Where(field+" >= ?", cond.Value)
	case OpLt:
		return db.Where(field+" < ?", cond.Value)
	case OpLte:
		return db.Where(field+" <= ?", cond.Value)
	case OpIn:
		if len(values) > 0 {
			return db.Where(field+" IN ?", values)
		}
	case OpNin:
		if len(values) > 0 {
			return db.Where(field+" NOT IN ?", values)
		}
	case OpLike:
		return db.Where(field+" LIKE ?", "%"+cond.Value+"%")
	case OpIlike:
		return db.Where("LOWER("+field+") LIKE ?", "%"+strings.ToLower(cond.Value)+"%")
	case OpNull:
		return db.Where(field + " IS NULL")
	case OpNotNull:
		return db.Where(field + " IS NOT NULL")
	}
	return db
}

func applySort(db *gorm.DB, sortBy, sortOrder string, config Config) *gorm.DB {
	if sortBy != "" && slices.Contains(config.AllowedSortFields, sortBy) {
		order := config.ResolveField(sortBy)
		if sortOrder == "desc" {
			order += " DESC"
		}
		return db.Order(order)
	}
	if config.DefaultSort != "" {
		return db.Order(config.DefaultSort)
	}
	return db
}

// computeFacets counts rows per value of each facet field. Each facet is
// filtered by every condition except those on its own field.
func computeFacets(db *gorm.DB, facetFields []string, conditions []Condition, config Config) (map[string]map[string]int, error) {
	if len(facetFields) == 0 {
		return nil, nil
	}

	type facetCount struct {
		Value string
		Count int
	}

	facets := make(map[string]map[string]int, len(facetFields))
	for _, field := range facetFields {
		column := config.ResolveField(field)
		var others []Condition
		for _, c := range conditions {
			if config.ResolveField(c.Field) != column {
				others = append(others, c)
			}
		}

		var counts []facetCount
		err := buildBaseQuery(db, others, config).
			Select(column + " AS value, COUNT(*) AS count").
			Group(column).
			Scan(&counts).Error
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", field, err)
		}

		bucket := map[string]int{}
		total := 0
		for _, c := range counts {
			bucket[c.Value] = c.Count
			total += c.Count
		}
		bucket["_total"] = total
		facets[field] = bucket
	}
	return facets, nil
}

func buildBaseQuery(db *gorm.DB, conditions []Condition, config Config) *gorm.DB {
	q := db.Session(&gorm.Session{})
	for _, cond := range conditions {
		q = applyCondition(q, cond, config)
	}
	return q
}
