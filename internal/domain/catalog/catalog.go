package catalog

import (
	"fmt"
	"sort"

	"catalog_srv/internal/domain/query"
)

// Operation names.
const (
	FilmsByCategory              = "films_by_category"
	FilmCountByCategory          = "film_count_by_category"
	FilmCountByLengthRange       = "film_count_by_length_range"
	CustomersByCity              = "customers_by_city"
	AvgRentalAmountByLength      = "avg_rental_amount_by_length"
	CustomersByTotalRentalLength = "customers_by_total_rental_length"
	CategoryLengthStatistics     = "category_length_statistics"
	FilmsByCategoryOrName        = "films_by_category_or_name"
	FilmsByCategoryOrNameFold    = "films_by_category_or_name_fold"
	FilmCastByTitlePattern       = "film_cast_by_title_pattern"
	FilmTitlesByWords            = "film_titles_by_words"
)

var (
	numeric = []query.Kind{query.KindInteger, query.KindReal}
	integer = []query.Kind{query.KindInteger}
	text    = []query.Kind{query.KindText}

	filmColumns = []string{"title", "language", "category"}

	defaultMinLength = query.Integer(0)
	defaultMaxLength = query.Real(1e6)
)

// Operation describes a named query: its parameters, result columns and
// the statements it may run.
type Operation struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Params      []query.Spec `json:"-"`
	Columns     []string     `json:"columns"`
	Statements  []string     `json:"-"`
	Stub        bool         `json:"stub,omitempty"`
}

var operations = map[string]Operation{
	FilmsByCategory: {
		Name:        FilmsByCategory,
		Description: "Films of a category by id, sorted by title and language",
		Params:      []query.Spec{{Name: "category_id", Kinds: integer}},
		Columns:     filmColumns,
		Statements:  []string{SQLFilmsByCategoryID},
	},
	FilmCountByCategory: {
		Name:        FilmCountByCategory,
		Description: "Number of films in a category by id",
		Params:      []query.Spec{{Name: "category_id", Kinds: integer}},
		Columns:     []string{"category", "count"},
		Statements:  []string{SQLFilmCountByCategory},
	},
	FilmCountByLengthRange: {
		Name:        FilmCountByLengthRange,
		Description: "Number of films per length between min_length and max_length",
		Params: []query.Spec{
			{Name: "min_length", Kinds: numeric, Default: &defaultMinLength},
			{Name: "max_length", Kinds: numeric, Default: &defaultMaxLength},
		},
		Columns:    []string{"length", "count"},
		Statements: []string{SQLFilmCountByLengthRange},
	},
	CustomersByCity: {
		Name:        CustomersByCity,
		Description: "Customers living in a city, sorted by last and first name",
		Params:      []query.Spec{{Name: "city", Kinds: text}},
		Columns:     []string{"city", "first_name", "last_name"},
		Statements:  []string{SQLCustomersByCity},
	},
	AvgRentalAmountByLength: {
		Name:        AvgRentalAmountByLength,
		Description: "Average payment amount for rentals of films with the given length",
		Params:      []query.Spec{{Name: "length", Kinds: numeric}},
		Columns:     []string{"length", "avg"},
		Statements:  []string{SQLAvgRentalAmountByLength},
	},
	CustomersByTotalRentalLength: {
		Name:        CustomersByTotalRentalLength,
		Description: "Customers whose summed rented film length is at least sum_min",
		Params:      []query.Spec{{Name: "sum_min", Kinds: numeric}},
		Columns:     []string{"first_name", "last_name", "sum"},
		Statements:  []string{SQLCustomersByTotalRentalLength},
	},
	CategoryLengthStatistics: {
		Name:        CategoryLengthStatistics,
		Description: "Film length statistics for a category by exact name",
		Params:      []query.Spec{{Name: "category_name", Kinds: text}},
		Columns:     []string{"category", "avg", "sum", "min", "max"},
		Statements:  []string{SQLCategoryLengthStatistics},
	},
	FilmsByCategoryOrName: {
		Name:        FilmsByCategoryOrName,
		Description: "Films of a category by id or by case-sensitive name pattern",
		Params:      []query.Spec{{Name: "category", Kinds: []query.Kind{query.KindInteger, query.KindText}}},
		Columns:     filmColumns,
		Statements:  []string{SQLFilmsByCategoryID, SQLFilmsByCategoryName},
	},
	FilmsByCategoryOrNameFold: {
		Name:        FilmsByCategoryOrNameFold,
		Description: "Films of a category by id or by case-insensitive name pattern",
		Params:      []query.Spec{{Name: "category", Kinds: []query.Kind{query.KindInteger, query.KindText}}},
		Columns:     filmColumns,
		Statements:  []string{SQLFilmsByCategoryID, SQLFilmsByCategoryNameFold},
	},
	FilmCastByTitlePattern: {
		Name:        FilmCastByTitlePattern,
		Description: "Cast of films whose title matches a case-insensitive pattern",
		Params:      []query.Spec{{Name: "title", Kinds: text}},
		Columns:     []string{"first_name", "last_name"},
		Statements:  []string{SQLFilmCastByTitlePattern},
	},
	FilmTitlesByWords: {
		Name:        FilmTitlesByWords,
		Description: "Titles containing any of the given words (not implemented, always no result)",
		Params:      []query.Spec{{Name: "words", Kinds: []query.Kind{query.KindList}}},
		Columns:     []string{"title"},
		Stub:        true,
	},
}

func init() {
	for name, op := range operations {
		for _, stmt := range op.Statements {
			if err := query.Validate(stmt); err != nil {
				panic(fmt.Sprintf("catalog: operation %s: %v", name, err))
			}
		}
	}
}

// Lookup returns the operation registered under name.
func Lookup(name string) (Operation, bool) {
	op, ok := operations[name]
	return op, ok
}

// Operations returns every operation sorted by name.
func Operations() []Operation {
	out := make([]Operation, 0, len(operations))
	for _, op := range operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ParamInfo is the listing form of a parameter spec.
type ParamInfo struct {
	Name     string   `json:"name"`
	Kinds    []string `json:"kinds"`
	Optional bool     `json:"optional,omitempty"`
}

// ParamInfo lists the declared parameters with their accepted kinds.
func (o Operation) ParamInfo() []ParamInfo {
	out := make([]ParamInfo, len(o.Params))
	for i, p := range o.Params {
		kinds := make([]string, len(p.Kinds))
		for j, k := range p.Kinds {
			kinds[j] = k.String()
		}
		out[i] = ParamInfo{Name: p.Name, Kinds: kinds, Optional: p.Default != nil}
	}
	return out
}
