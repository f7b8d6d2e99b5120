// Package resource holds the per-resource grid configuration: which columns may be
// sorted, filtered and searched, and which accessor serves the rows.
// Descriptors are built once at startup and never mutated afterwards.
package resource

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"

	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Page describes the list page rendered for a resource.
type Page struct {
	Title    string
	Template string
	CSS      []string
	JS       []string
}

// Descriptor is the immutable grid policy of one resource.
type Descriptor struct {
	model.Schema
	DefaultSort  model.Sort
	DefaultLimit int
	Page         Page
	Accessor     repository.RecordAccessor
	Snapshots    repository.TxManager
}

// Sortable reports whether the grid may order by the column.
func (d *Descriptor) Sortable(name string) bool {
	c, ok := d.Column(name)
	return ok && c.Sortable
}

// Filterable returns the column when the grid may filter on it.
func (d *Descriptor) Filterable(name string) (model.Column, bool) {
	c, ok := d.Column(name)
	return c, ok && c.Filterable
}

// SearchColumns lists the columns matched by the free-text search, in schema order.
func (d *Descriptor) SearchColumns() []string {
	var out []string
	for _, c := range d.Columns {
		if c.Searchable {
			out = append(out, c.Name)
		}
	}
	return out
}

// ColumnNames lists every exposed column in schema order.
func (d *Descriptor) ColumnNames() []string {
	out := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		out = append(out, c.Name)
	}
	return out
}

func (d *Descriptor) validate() error {
	var errs []error
	if !identRe.MatchString(d.Resource) {
		errs = append(errs, fmt.Errorf("name %q must match %s", d.Resource, identRe))
	}
	if !identRe.MatchString(d.Table) {
		errs = append(errs, fmt.Errorf("table %q must match %s", d.Table, identRe))
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if !identRe.MatchString(c.Name) {
			errs = append(errs, fmt.Errorf("column %q must match %s", c.Name, identRe))
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("column %q declared twice", c.Name))
		}
		seen[c.Name] = true
	}
	if !seen[d.PrimaryKey] {
		errs = append(errs, fmt.Errorf("primary key %q is not a declared column", d.PrimaryKey))
	}
	if !d.Sortable(d.DefaultSort.Column) {
		errs = append(errs, fmt.Errorf("default sort %q is not a sortable column", d.DefaultSort.Column))
	}
	if d.DefaultSort.Direction != model.SortAsc && d.DefaultSort.Direction != model.SortDesc {
		errs = append(errs, fmt.Errorf("default direction %q must be asc or desc", d.DefaultSort.Direction))
	}
	if d.DefaultLimit < 1 {
		errs = append(errs, fmt.Errorf("default limit %d must be >= 1", d.DefaultLimit))
	}
	if d.Accessor == nil {
		errs = append(errs, errors.New("record accessor is required"))
	}
	if d.Snapshots == nil {
		errs = append(errs, errors.New("snapshot manager is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("resource %q: %w", d.Resource, err)
	}
	return nil
}

// Registry maps resource names to descriptors. It is read-only after NewRegistry
// and safe for concurrent use without locking.
type Registry struct {
	byName map[string]*Descriptor
}

// NewRegistry validates every descriptor and rejects duplicates.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, len(descs))}
	var errs []error
	for i := range descs {
		d := descs[i]
		d.Columns = slices.Clone(d.Columns)
		if err := d.validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.byName[d.Resource]; dup {
			errs = append(errs, fmt.Errorf("resource %q registered twice", d.Resource))
			continue
		}
		r.byName[d.Resource] = &d
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the registered resource names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
