// Package model contains the data shapes shared by the grid query layers.
// I keep it lean and focused on data shapes without behavior beyond small helpers.
package model

import "strings"

// Record is a single row returned to the grid, keyed by column name.
type Record map[string]any

// ColumnType tells the parsers and the SQL builder how to treat a column's values.
type ColumnType string

const (
	ColumnText ColumnType = "text"
	ColumnInt  ColumnType = "int"
	ColumnBool ColumnType = "bool"
	ColumnTime ColumnType = "time"
)

// Column describes one exposed column of a resource and what the grid may do with it.
type Column struct {
	Name       string
	Type       ColumnType
	Sortable   bool
	Filterable bool
	Searchable bool
}

// Schema is the storage-facing part of a resource: where its rows live and which columns exist.
type Schema struct {
	Resource   string
	Table      string
	PrimaryKey string
	Columns    []Column
}

// Column returns the named column, if the schema exposes it.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// SortDirection represents ordering direction for sortable columns.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection accepts asc/desc in any case; ok is false for anything else.
func ParseSortDirection(s string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAsc, true
	case "desc", "descending":
		return SortDesc, true
	default:
		return "", false
	}
}

// Sort captures ordering preferences for a listing.
// The primary key ascending is always appended as a tie-breaker by accessors.
type Sort struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// Filter restricts rows on one column. A filter is either a match on Value
// or a range with at least one of Min/Max set (bounds are inclusive).
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value,omitempty"`
	Min    string `json:"min,omitempty"`
	Max    string `json:"max,omitempty"`
	Range  bool   `json:"range,omitempty"`
}

// Criteria is everything that narrows a listing, independent of pagination.
type Criteria struct {
	Filters []Filter `json:"filters,omitempty"`
	// Search is a free-text term matched case-insensitively against SearchColumns.
	Search        string   `json:"search,omitempty"`
	SearchColumns []string `json:"-"`
}

// IsEmpty reports whether the criteria would match every row.
func (c Criteria) IsEmpty() bool {
	return len(c.Filters) == 0 && strings.TrimSpace(c.Search) == ""
}

// QueryRequest is a validated listing request for a single resource.
type QueryRequest struct {
	Resource string   `json:"resource"`
	Offset   int      `json:"offset"`
	Limit    int      `json:"limit"`
	Sort     Sort     `json:"sort"`
	Criteria Criteria `json:"criteria"`
	// Draw is the grid widget's request counter, echoed back untouched.
	Draw int `json:"draw"`
}

// QueryResult is one page of rows plus the counts a grid needs to paginate.
type QueryResult struct {
	Rows []Record
	// TotalCount respects the filters and ignores pagination.
	TotalCount int
	// UnfilteredCount ignores both filters and pagination.
	UnfilteredCount int
	Draw            int
}

// GridPayload is the wire shape expected by the data-table widget.
type GridPayload struct {
	Draw            int      `json:"draw"`
	RecordsTotal    int      `json:"recordsTotal"`
	RecordsFiltered int      `json:"recordsFiltered"`
	Data            []Record `json:"data"`
}
