package resource

import (
	"github.com/maxviazov/config-grid-service/internal/config"
	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
)

// Default list page assets, the data-table widget and its export/paging plugins.
var (
	defaultCSS = []string{"dataTables.css", "dataTables.bootstrap.css", "dataTables-TableTools.css"}
	defaultJS  = []string{"jquery.dataTables.min.js", "jquery.dataTables.TableTools.min.js", "bootstrap-dataTables-paging.js"}
)

// SchemaFromConfig extracts the storage-facing schema of a configured resource.
func SchemaFromConfig(rc config.ResourceConfig) model.Schema {
	cols := make([]model.Column, 0, len(rc.Columns))
	for _, c := range rc.Columns {
		typ := model.ColumnType(c.Type)
		if typ == "" {
			typ = model.ColumnText
		}
		cols = append(cols, model.Column{
			Name:       c.Name,
			Type:       typ,
			Sortable:   c.Sortable,
			Filterable: c.Filterable,
			Searchable: c.Searchable,
		})
	}
	return model.Schema{
		Resource:   rc.Name,
		Table:      rc.Table,
		PrimaryKey: rc.PrimaryKey,
		Columns:    cols,
	}
}

// FromConfig builds a descriptor, falling back to grid-wide defaults for the page size
// and to the stock data-table assets for the list page.
func FromConfig(rc config.ResourceConfig, grid config.GridConfig, accessor repository.RecordAccessor, snapshots repository.TxManager) Descriptor {
	dir := model.SortAsc
	if d, ok := model.ParseSortDirection(rc.DefaultDirection); ok {
		dir = d
	}
	limit := rc.DefaultLimit
	if limit == 0 {
		limit = grid.DefaultPageSize
	}
	page := Page{
		Title:    rc.Title,
		Template: rc.Template,
		CSS:      rc.CSS,
		JS:       rc.JS,
	}
	if page.Title == "" {
		page.Title = rc.Name
	}
	if page.Template == "" {
		page.Template = "list.tmpl"
	}
	if len(page.CSS) == 0 {
		page.CSS = defaultCSS
	}
	if len(page.JS) == 0 {
		page.JS = defaultJS
	}
	return Descriptor{
		Schema:       SchemaFromConfig(rc),
		DefaultSort:  model.Sort{Column: rc.DefaultSort, Direction: dir},
		DefaultLimit: limit,
		Page:         page,
		Accessor:     accessor,
		Snapshots:    snapshots,
	}
}

// SeedRows converts the YAML seed rows of a resource into records.
func SeedRows(rc config.ResourceConfig) []model.Record {
	out := make([]model.Record, 0, len(rc.Seed))
	for _, row := range rc.Seed {
		out = append(out, model.Record(row))
	}
	return out
}
