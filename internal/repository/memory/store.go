// Package memory is an in-process record source used for demo mode and tests.
// It follows the same filtering, ordering and tie-breaking rules as the Postgres accessor.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
)

// Store holds the rows of one resource. Reads work on an immutable snapshot,
// so Replace can run concurrently with listing.
type Store struct {
	schema model.Schema
	rows   atomic.Pointer[[]model.Record]
	// fail, when set, is returned by every read; tests use it to simulate an outage.
	fail atomic.Pointer[error]
}

func NewStore(schema model.Schema, rows []model.Record) *Store {
	s := &Store{schema: schema}
	s.Replace(rows)
	return s
}

// Replace swaps the full row set.
func (s *Store) Replace(rows []model.Record) {
	cp := make([]model.Record, 0, len(rows))
	for _, r := range rows {
		row := make(model.Record, len(r))
		for k, v := range r {
			row[k] = v
		}
		cp = append(cp, row)
	}
	s.rows.Store(&cp)
}

// FailWith makes subsequent reads return err; nil restores normal operation.
func (s *Store) FailWith(err error) {
	if err == nil {
		s.fail.Store(nil)
		return
	}
	s.fail.Store(&err)
}

func (s *Store) Ping(context.Context) error { return s.failure() }

func (s *Store) failure() error {
	if p := s.fail.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Store) check(resource string) error {
	if resource != s.schema.Resource {
		return fmt.Errorf("%w: %q (serving %q)", repository.ErrUnknownResource, resource, s.schema.Resource)
	}
	return s.failure()
}

func (s *Store) Count(ctx context.Context, resource string, where model.Criteria) (int, error) {
	if err := s.check(resource); err != nil {
		return 0, err
	}
	matched, err := s.filter(s.snapshot(ctx), where)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (s *Store) FetchPage(ctx context.Context, resource string, where model.Criteria, sort model.Sort, p repository.Page) ([]model.Record, error) {
	if err := s.check(resource); err != nil {
		return nil, err
	}
	matched, err := s.filter(s.snapshot(ctx), where)
	if err != nil {
		return nil, err
	}
	if err := s.order(matched, sort); err != nil {
		return nil, err
	}

	if p.Offset >= len(matched) {
		return []model.Record{}, nil
	}
	end := len(matched)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	out := make([]model.Record, 0, end-p.Offset)
	for _, r := range matched[p.Offset:end] {
		out = append(out, s.project(r))
	}
	return out, nil
}

// project keeps only schema columns, mirroring the SELECT list of the SQL accessor.
func (s *Store) project(r model.Record) model.Record {
	out := make(model.Record, len(s.schema.Columns))
	for _, c := range s.schema.Columns {
		out[c.Name] = r[c.Name]
	}
	return out
}

func (s *Store) filter(all []model.Record, where model.Criteria) ([]model.Record, error) {
	preds := make([]func(model.Record) bool, 0, len(where.Filters)+1)
	for _, f := range where.Filters {
		col, ok := s.schema.Column(f.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %s", repository.ErrUnknownColumn, f.Column)
		}
		pred, err := filterPredicate(col, f)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if term := strings.ToLower(strings.TrimSpace(where.Search)); term != "" && len(where.SearchColumns) > 0 {
		cols := where.SearchColumns
		preds = append(preds, func(r model.Record) bool {
			for _, name := range cols {
				if v, ok := r[name]; ok && v != nil && strings.Contains(strings.ToLower(fmt.Sprint(v)), term) {
					return true
				}
			}
			return false
		})
	}

	out := make([]model.Record, 0, len(all))
	for _, r := range all {
		if matchesAll(r, preds) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchesAll(r model.Record, preds []func(model.Record) bool) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func filterPredicate(col model.Column, f model.Filter) (func(model.Record) bool, error) {
	if f.Range {
		var lo, hi any
		var err error
		if f.Min != "" {
			if lo, err = col.Type.Parse(f.Min); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", repository.ErrBadFilterValue, col.Name, err)
			}
		}
		if f.Max != "" {
			if hi, err = col.Type.Parse(f.Max); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", repository.ErrBadFilterValue, col.Name, err)
			}
		}
		return func(r model.Record) bool {
			v, ok := col.Type.Normalize(r[col.Name])
			if !ok {
				return false
			}
			if lo != nil && col.Type.Compare(v, lo) < 0 {
				return false
			}
			if hi != nil && col.Type.Compare(v, hi) > 0 {
				return false
			}
			return true
		}, nil
	}

	if col.Type == model.ColumnText || col.Type == "" {
		needle := strings.ToLower(f.Value)
		return func(r model.Record) bool {
			v, ok := col.Type.Normalize(r[col.Name])
			return ok && strings.Contains(strings.ToLower(v.(string)), needle)
		}, nil
	}
	want, err := col.Type.Parse(f.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrBadFilterValue, col.Name, err)
	}
	return func(r model.Record) bool {
		v, ok := col.Type.Normalize(r[col.Name])
		return ok && col.Type.Compare(v, want) == 0
	}, nil
}

// order sorts in place on the requested column, primary key ascending on ties.
func (s *Store) order(rows []model.Record, sort model.Sort) error {
	pk, ok := s.schema.Column(s.schema.PrimaryKey)
	if !ok {
		pk = model.Column{Name: s.schema.PrimaryKey, Type: model.ColumnInt}
	}
	byPK := func(a, b model.Record) int { return pk.Type.Compare(a[pk.Name], b[pk.Name]) }

	col := pk
	if sort.Column != "" {
		if col, ok = s.schema.Column(sort.Column); !ok {
			return fmt.Errorf("%w: %s", repository.ErrUnknownColumn, sort.Column)
		}
	}
	desc := sort.Direction == model.SortDesc
	slices.SortStableFunc(rows, func(a, b model.Record) int {
		c := col.Type.Compare(a[col.Name], b[col.Name])
		if desc {
			c = -c
		}
		if c != 0 || col.Name == pk.Name {
			return c
		}
		return byPK(a, b)
	})
	return nil
}

type snapshotKey struct{ store *Store }

// WithinReadTx pins the current row set for the duration of fn, so every read
// inside sees the same rows even if Replace runs concurrently.
func (s *Store) WithinReadTx(ctx context.Context, fn repository.TxFunc) error {
	if _, ok := ctx.Value(snapshotKey{s}).(*[]model.Record); ok {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, snapshotKey{s}, s.rows.Load()))
}

func (s *Store) snapshot(ctx context.Context) []model.Record {
	if snap, ok := ctx.Value(snapshotKey{s}).(*[]model.Record); ok {
		return *snap
	}
	return *s.rows.Load()
}

var (
	_ repository.RecordAccessor = (*Store)(nil)
	_ repository.Pinger         = (*Store)(nil)
	_ repository.TxManager      = (*Store)(nil)
)
