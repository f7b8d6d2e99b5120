package service

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/resource"
)

// Parameter names accepted verbatim from the grid widget. Each group lists its
// aliases in precedence order; the first non-empty one wins.
var (
	offsetKeys    = []string{"start", "offset"}
	limitKeys     = []string{"length", "limit"}
	sortColKeys   = []string{"order[column]", "order[0][column]", "sort"}
	sortDirKeys   = []string{"order[dir]", "order[0][dir]", "dir"}
	searchKeys    = []string{"search[value]", "search"}
	drawKey       = "draw"
	columnDataRe  = regexp.MustCompile(`^columns\[(\d+)\]\[data\]$`)
	columnSearchF = "columns[%d][search][value]"
)

// first returns the first non-empty value among keys, with the key it came from.
func first(raw url.Values, keys []string) (key, value string, ok bool) {
	for _, k := range keys {
		if v := strings.TrimSpace(raw.Get(k)); v != "" {
			return k, v, true
		}
	}
	return keys[0], "", false
}

// paramParser accumulates field errors while reading one request's parameters.
type paramParser struct {
	raw  url.Values
	desc *resource.Descriptor
	errs []FieldError
	// columns maps DataTables column indexes to the column names the client declared.
	columns map[int]string
}

func newParamParser(raw url.Values, desc *resource.Descriptor) *paramParser {
	p := &paramParser{raw: raw, desc: desc, columns: map[int]string{}}
	for key, vals := range raw {
		m := columnDataRe.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		p.columns[idx] = strings.TrimSpace(vals[0])
	}
	return p
}

func (p *paramParser) fail(field, msg string, args ...any) {
	p.errs = append(p.errs, FieldError{Field: field, Message: fmt.Sprintf(msg, args...)})
}

func (p *paramParser) offset() int {
	key, v, ok := first(p.raw, offsetKeys)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.fail(key, "must be a non-negative integer")
		return 0
	}
	return n
}

func (p *paramParser) limit(maxPageSize int) int {
	key, v, ok := first(p.raw, limitKeys)
	if !ok {
		return min(p.desc.DefaultLimit, maxPageSize)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, "must be an integer")
		return 0
	}
	if n < 1 || n > maxPageSize {
		p.fail(key, "must be between 1 and %d", maxPageSize)
		return 0
	}
	return n
}

func (p *paramParser) draw() int {
	v := strings.TrimSpace(p.raw.Get(drawKey))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		p.fail(drawKey, "must be a non-negative integer")
		return 0
	}
	return n
}

// sort resolves the requested ordering, falling back to the resource default.
// A numeric column refers to the client's columns[i][data] list, or to the
// resource's column order when the client sent none.
func (p *paramParser) sort() model.Sort {
	out := p.desc.DefaultSort

	if key, v, ok := first(p.raw, sortDirKeys); ok {
		dir, valid := model.ParseSortDirection(v)
		if !valid {
			p.fail(key, "must be asc or desc")
		} else {
			out.Direction = dir
		}
	}

	key, v, ok := first(p.raw, sortColKeys)
	if !ok {
		return out
	}
	name := v
	if idx, err := strconv.Atoi(v); err == nil {
		resolved, found := p.columnAt(idx)
		if !found {
			p.fail(key, "column index %d is out of range", idx)
			return out
		}
		name = resolved
	}
	if !p.desc.Sortable(name) {
		p.fail(key, "%q is not a sortable column", name)
		return out
	}
	out.Column = name
	return out
}

func (p *paramParser) columnAt(idx int) (string, bool) {
	if len(p.columns) > 0 {
		name, ok := p.columns[idx]
		return name, ok && name != ""
	}
	names := p.desc.ColumnNames()
	if idx < 0 || idx >= len(names) {
		return "", false
	}
	return names[idx], true
}

// filters collects per-column filters. Only filterable columns of the resource
// are considered; every other key is ignored on purpose, so grids may send
// extra parameters without being rejected.
func (p *paramParser) filters() []model.Filter {
	var out []model.Filter
	for _, col := range p.desc.Columns {
		if !col.Filterable {
			continue
		}
		if v := strings.TrimSpace(p.raw.Get(col.Name)); v != "" {
			if f, ok := p.valueFilter(col.Name, col, v); ok {
				out = append(out, f)
			}
		}
		minKey, maxKey := col.Name+"[min]", col.Name+"[max]"
		lo, hi := strings.TrimSpace(p.raw.Get(minKey)), strings.TrimSpace(p.raw.Get(maxKey))
		if lo == "" && hi == "" {
			continue
		}
		if f, ok := p.rangeFilter(col, minKey, lo, maxKey, hi); ok {
			out = append(out, f)
		}
	}

	idxs := make([]int, 0, len(p.columns))
	for i := range p.columns {
		idxs = append(idxs, i)
	}
	slices.Sort(idxs)
	for _, i := range idxs {
		col, ok := p.desc.Filterable(p.columns[i])
		if !ok {
			continue
		}
		key := fmt.Sprintf(columnSearchF, i)
		if v := strings.TrimSpace(p.raw.Get(key)); v != "" {
			if f, ok := p.valueFilter(key, col, v); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

func (p *paramParser) valueFilter(key string, col model.Column, v string) (model.Filter, bool) {
	if _, err := col.Type.Parse(v); err != nil {
		p.fail(key, "%v", err)
		return model.Filter{}, false
	}
	return model.Filter{Column: col.Name, Value: v}, true
}

func (p *paramParser) rangeFilter(col model.Column, minKey, lo, maxKey, hi string) (model.Filter, bool) {
	valid := true
	var loV, hiV any
	if lo != "" {
		v, err := col.Type.Parse(lo)
		if err != nil {
			p.fail(minKey, "%v", err)
			valid = false
		}
		loV = v
	}
	if hi != "" {
		v, err := col.Type.Parse(hi)
		if err != nil {
			p.fail(maxKey, "%v", err)
			valid = false
		}
		hiV = v
	}
	if !valid {
		return model.Filter{}, false
	}
	if loV != nil && hiV != nil && col.Type.Compare(loV, hiV) > 0 {
		p.fail(minKey, "must not be greater than %s", maxKey)
		return model.Filter{}, false
	}
	return model.Filter{Column: col.Name, Min: lo, Max: hi, Range: true}, true
}

func (p *paramParser) search() string {
	_, v, _ := first(p.raw, searchKeys)
	return v
}
