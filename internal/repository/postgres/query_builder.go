package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
)

// queryBuilder renders grid criteria into parameterized SQL for one schema.
// Identifiers come from the schema only and are always quoted; user input only
// ever travels as bind arguments.
type queryBuilder struct {
	schema model.Schema
	args   []any
}

func newQueryBuilder(schema model.Schema) *queryBuilder {
	return &queryBuilder{schema: schema}
}

func ident(name string) string { return pgx.Identifier{name}.Sanitize() }

func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// likePattern escapes LIKE metacharacters so the term matches literally as a substring.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// where renders the WHERE clause (without the keyword) or "" when nothing narrows the set.
func (b *queryBuilder) where(c model.Criteria) (string, error) {
	var parts []string
	for _, f := range c.Filters {
		col, ok := b.schema.Column(f.Column)
		if !ok {
			return "", fmt.Errorf("%w: %s", repository.ErrUnknownColumn, f.Column)
		}
		clause, err := b.filterClause(col, f)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}

	if term := strings.TrimSpace(c.Search); term != "" && len(c.SearchColumns) > 0 {
		placeholder := b.bind(likePattern(term))
		ors := make([]string, 0, len(c.SearchColumns))
		for _, name := range c.SearchColumns {
			if _, ok := b.schema.Column(name); !ok {
				return "", fmt.Errorf("%w: %s", repository.ErrUnknownColumn, name)
			}
			ors = append(ors, fmt.Sprintf("%s::text ILIKE %s", ident(name), placeholder))
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}
	return strings.Join(parts, " AND "), nil
}

func (b *queryBuilder) filterClause(col model.Column, f model.Filter) (string, error) {
	name := ident(col.Name)
	if f.Range {
		var bounds []string
		if f.Min != "" {
			v, err := col.Type.Parse(f.Min)
			if err != nil {
				return "", fmt.Errorf("%w: %s: %v", repository.ErrBadFilterValue, col.Name, err)
			}
			bounds = append(bounds, fmt.Sprintf("%s >= %s", name, b.bind(v)))
		}
		if f.Max != "" {
			v, err := col.Type.Parse(f.Max)
			if err != nil {
				return "", fmt.Errorf("%w: %s: %v", repository.ErrBadFilterValue, col.Name, err)
			}
			bounds = append(bounds, fmt.Sprintf("%s <= %s", name, b.bind(v)))
		}
		if len(bounds) == 0 {
			return "TRUE", nil
		}
		return strings.Join(bounds, " AND "), nil
	}

	if col.Type == model.ColumnText || col.Type == "" {
		return fmt.Sprintf("%s ILIKE %s", name, b.bind(likePattern(f.Value))), nil
	}
	v, err := col.Type.Parse(f.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", repository.ErrBadFilterValue, col.Name, err)
	}
	return fmt.Sprintf("%s = %s", name, b.bind(v)), nil
}

func (b *queryBuilder) selectList() string {
	cols := make([]string, 0, len(b.schema.Columns))
	for _, c := range b.schema.Columns {
		cols = append(cols, ident(c.Name))
	}
	return strings.Join(cols, ", ")
}

// orderBy sorts on the requested column and always breaks ties on the primary key,
// so repeated calls page through the same order.
func (b *queryBuilder) orderBy(s model.Sort) (string, error) {
	pk := ident(b.schema.PrimaryKey)
	if s.Column == "" || s.Column == b.schema.PrimaryKey {
		if s.Direction == model.SortDesc {
			return pk + " DESC", nil
		}
		return pk + " ASC", nil
	}
	if _, ok := b.schema.Column(s.Column); !ok {
		return "", fmt.Errorf("%w: %s", repository.ErrUnknownColumn, s.Column)
	}
	dir := "ASC NULLS FIRST"
	if s.Direction == model.SortDesc {
		dir = "DESC NULLS LAST"
	}
	return fmt.Sprintf("%s %s, %s ASC", ident(s.Column), dir, pk), nil
}

// countSQL renders SELECT COUNT(*) for the criteria.
func (b *queryBuilder) countSQL(c model.Criteria) (string, error) {
	where, err := b.where(c)
	if err != nil {
		return "", err
	}
	sql := "SELECT COUNT(*) FROM " + ident(b.schema.Table)
	if where != "" {
		sql += " WHERE " + where
	}
	return sql, nil
}

// pageSQL renders the paginated row query for the criteria and sort.
func (b *queryBuilder) pageSQL(c model.Criteria, s model.Sort, p repository.Page) (string, error) {
	where, err := b.where(c)
	if err != nil {
		return "", err
	}
	order, err := b.orderBy(s)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.selectList())
	sb.WriteString(" FROM ")
	sb.WriteString(ident(b.schema.Table))
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)
	sb.WriteString(" LIMIT ")
	sb.WriteString(b.bind(p.Limit))
	sb.WriteString(" OFFSET ")
	sb.WriteString(b.bind(p.Offset))
	return sb.String(), nil
}
