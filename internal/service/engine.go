package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
	"github.com/maxviazov/config-grid-service/internal/resource"
)

// DefaultMaxPageSize caps a single grid page when no limit is configured.
const DefaultMaxPageSize = 100

// listQueryEngine is stateless apart from the read-only registry, so one
// instance serves every concurrent request.
type listQueryEngine struct {
	registry    *resource.Registry
	maxPageSize int
}

// NewListQueryEngine wires the engine with its registry; dependencies are explicit,
// nothing is looked up from global state.
func NewListQueryEngine(registry *resource.Registry, maxPageSize int) GridService {
	if maxPageSize < 1 {
		maxPageSize = DefaultMaxPageSize
	}
	return &listQueryEngine{registry: registry, maxPageSize: maxPageSize}
}

func (e *listQueryEngine) Describe(resourceName string) (*resource.Descriptor, error) {
	d, ok := e.registry.Lookup(resourceName)
	if !ok {
		return nil, unknownResource(resourceName)
	}
	return d, nil
}

func (e *listQueryEngine) BuildRequest(resourceName string, raw url.Values) (model.QueryRequest, error) {
	d, err := e.Describe(resourceName)
	if err != nil {
		return model.QueryRequest{}, err
	}
	if raw == nil {
		raw = url.Values{}
	}

	p := newParamParser(raw, d)
	req := model.QueryRequest{
		Resource: d.Resource,
		Offset:   p.offset(),
		Limit:    p.limit(e.maxPageSize),
		Sort:     p.sort(),
		Criteria: model.Criteria{
			Filters: p.filters(),
			Search:  p.search(),
		},
		Draw: p.draw(),
	}
	if req.Criteria.Search != "" {
		req.Criteria.SearchColumns = d.SearchColumns()
	}
	if err := NewInvalidParameterError(p.errs); err != nil {
		return model.QueryRequest{}, err
	}
	return req, nil
}

// check re-validates a request, since a QueryRequest can also be built by hand.
func (e *listQueryEngine) check(d *resource.Descriptor, req model.QueryRequest) error {
	var ferrs []FieldError
	if req.Offset < 0 {
		ferrs = append(ferrs, FieldError{Field: "offset", Message: "must be >= 0"})
	}
	if req.Limit < 1 || req.Limit > e.maxPageSize {
		ferrs = append(ferrs, FieldError{Field: "limit", Message: "out of range"})
	}
	if req.Sort.Column != "" && !d.Sortable(req.Sort.Column) {
		ferrs = append(ferrs, FieldError{Field: "sort", Message: "column is not sortable"})
	}
	for _, f := range req.Criteria.Filters {
		if _, ok := d.Filterable(f.Column); !ok {
			ferrs = append(ferrs, FieldError{Field: f.Column, Message: "column is not filterable"})
		}
	}
	return NewInvalidParameterError(ferrs)
}

func (e *listQueryEngine) Execute(ctx context.Context, req model.QueryRequest) (model.QueryResult, error) {
	d, err := e.Describe(req.Resource)
	if err != nil {
		return model.QueryResult{}, err
	}
	if err := e.check(d, req); err != nil {
		return model.QueryResult{}, err
	}
	if req.Sort.Column == "" {
		req.Sort = d.DefaultSort
	}

	res := model.QueryResult{Draw: req.Draw}
	err = d.Snapshots.WithinReadTx(ctx, func(ctx context.Context) error {
		var err error
		if res.TotalCount, err = d.Accessor.Count(ctx, d.Resource, req.Criteria); err != nil {
			return err
		}
		res.UnfilteredCount = res.TotalCount
		if !req.Criteria.IsEmpty() {
			if res.UnfilteredCount, err = d.Accessor.Count(ctx, d.Resource, model.Criteria{}); err != nil {
				return err
			}
		}
		res.Rows, err = d.Accessor.FetchPage(ctx, d.Resource, req.Criteria, req.Sort, repository.Page{Limit: req.Limit, Offset: req.Offset})
		return err
	})
	if err != nil {
		return model.QueryResult{}, &backendError{resource: d.Resource, cause: err}
	}
	if res.Rows == nil {
		res.Rows = []model.Record{}
	}
	return res, nil
}

// Collect walks the result set page by page inside a single snapshot, so an
// export sees the same rows a grid would page through.
func (e *listQueryEngine) Collect(ctx context.Context, req model.QueryRequest, maxRows int) (model.QueryResult, error) {
	d, err := e.Describe(req.Resource)
	if err != nil {
		return model.QueryResult{}, err
	}
	req.Limit = e.maxPageSize
	if err := e.check(d, req); err != nil {
		return model.QueryResult{}, err
	}
	if req.Sort.Column == "" {
		req.Sort = d.DefaultSort
	}

	var out model.QueryResult
	err = d.Snapshots.WithinReadTx(ctx, func(ctx context.Context) error {
		page := req
		for {
			res, err := e.Execute(ctx, page)
			if err != nil {
				return err
			}
			if out.Rows == nil {
				out = res
			} else {
				out.Rows = append(out.Rows, res.Rows...)
			}
			page.Offset += len(res.Rows)
			if len(res.Rows) < page.Limit || page.Offset >= res.TotalCount || (maxRows > 0 && len(out.Rows) >= maxRows) {
				return nil
			}
		}
	})
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			return model.QueryResult{}, err
		}
		return model.QueryResult{}, &backendError{resource: d.Resource, cause: err}
	}
	if maxRows > 0 && len(out.Rows) > maxRows {
		out.Rows = out.Rows[:maxRows]
	}
	return out, nil
}

func (e *listQueryEngine) Serialize(res model.QueryResult) model.GridPayload {
	data := res.Rows
	if data == nil {
		data = []model.Record{}
	}
	return model.GridPayload{
		Draw:            res.Draw,
		RecordsTotal:    res.UnfilteredCount,
		RecordsFiltered: res.TotalCount,
		Data:            data,
	}
}
