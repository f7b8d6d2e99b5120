// Package contract holds storage-agnostic test suites. Every RecordAccessor
// implementation runs the same suite against the same fixture, so the in-memory
// store and Postgres cannot drift apart on filtering, ordering or paging.
package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
)

// HostSchema mirrors the hosts table created by the migrations.
func HostSchema() model.Schema {
	return model.Schema{
		Resource:   "host",
		Table:      "hosts",
		PrimaryKey: "id",
		Columns: []model.Column{
			{Name: "id", Type: model.ColumnInt, Sortable: true, Filterable: true},
			{Name: "name", Type: model.ColumnText, Sortable: true, Filterable: true, Searchable: true},
			{Name: "alias", Type: model.ColumnText, Sortable: true, Filterable: true, Searchable: true},
			{Name: "address", Type: model.ColumnText, Sortable: true, Filterable: true, Searchable: true},
			{Name: "poller", Type: model.ColumnText, Sortable: true, Filterable: true},
			{Name: "activated", Type: model.ColumnBool, Sortable: true, Filterable: true},
			{Name: "check_interval", Type: model.ColumnInt, Sortable: true, Filterable: true},
		},
	}
}

// HostRows returns 25 hosts. Ids are deliberately not in name order, every
// fifth host has no alias, and pollers repeat so sorting on them needs the tie-break.
func HostRows() []model.Record {
	pollers := []string{"central", "edge", "north"}
	rows := make([]model.Record, 0, 25)
	for i := 1; i <= 25; i++ {
		// id 1 is host25, id 25 is host01
		n := 26 - i
		var alias any = fmt.Sprintf("alias%02d", n)
		if i%5 == 0 {
			alias = nil
		}
		rows = append(rows, model.Record{
			"id":             int64(i),
			"name":           fmt.Sprintf("host%02d", n),
			"alias":          alias,
			"address":        fmt.Sprintf("10.0.%d.%d", i%3, i),
			"poller":         pollers[i%3],
			"activated":      i%4 != 0,
			"check_interval": int64(i%6 + 1),
		})
	}
	return rows
}

// RecordFactory returns an accessor serving HostSchema seeded with rows, the
// snapshot manager it pairs with, and a cleanup func.
type RecordFactory func(t *testing.T, rows []model.Record) (repository.RecordAccessor, repository.TxManager, func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func ids(t *testing.T, rows []model.Record) []int64 {
	t.Helper()
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		v, ok := model.ColumnInt.Normalize(r["id"])
		if !ok {
			t.Fatalf("row without id: %v", r)
		}
		out = append(out, v.(int64))
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func RunRecordAccessorContract(t *testing.T, makeRepo RecordFactory) {
	t.Helper()
	ctx := context.Background()
	const res = "host"

	t.Run("count_all", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		n, err := repo.Count(ctx, res, model.Criteria{})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 25 {
			t.Fatalf("expected 25, got %d", n)
		}
	})

	t.Run("text_filter_is_case_insensitive_substring", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		n, err := repo.Count(ctx, res, model.Criteria{Filters: []model.Filter{{Column: "poller", Value: "DG"}}})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		// poller is "edge" when i%3 == 1: 1,4,...,25
		if n != 9 {
			t.Fatalf("expected 9 edge hosts, got %d", n)
		}
	})

	t.Run("typed_filters_match_exactly", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		n, err := repo.Count(ctx, res, model.Criteria{Filters: []model.Filter{
			{Column: "activated", Value: "false"},
		}})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 6 {
			t.Fatalf("expected 6 deactivated hosts, got %d", n)
		}
		n, err = repo.Count(ctx, res, model.Criteria{Filters: []model.Filter{{Column: "id", Value: "7"}}})
		if err != nil || n != 1 {
			t.Fatalf("id filter: n=%d err=%v", n, err)
		}
	})

	t.Run("range_filter_is_inclusive", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		n, err := repo.Count(ctx, res, model.Criteria{Filters: []model.Filter{
			{Column: "id", Min: "5", Max: "9", Range: true},
		}})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 5 {
			t.Fatalf("expected 5, got %d", n)
		}
		n, err = repo.Count(ctx, res, model.Criteria{Filters: []model.Filter{
			{Column: "id", Min: "20", Range: true},
		}})
		if err != nil || n != 6 {
			t.Fatalf("open range: n=%d err=%v", n, err)
		}
	})

	t.Run("search_spans_columns_and_skips_nulls", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		where := model.Criteria{Search: "ALIAS1", SearchColumns: []string{"name", "alias"}}
		n, err := repo.Count(ctx, res, where)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		// alias10..alias19 minus the null aliases (n=11 and n=16)
		if n != 8 {
			t.Fatalf("expected 8, got %d", n)
		}
	})

	t.Run("search_treats_like_metacharacters_literally", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		n, err := repo.Count(ctx, res, model.Criteria{Search: "host_", SearchColumns: []string{"name"}})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected no match for literal underscore, got %d", n)
		}
	})

	t.Run("fetch_first_page_by_name", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		rows, err := repo.FetchPage(ctx, res, model.Criteria{}, model.Sort{Column: "name", Direction: model.SortAsc}, repository.Page{Limit: 10})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(rows) != 10 {
			t.Fatalf("expected 10 rows, got %d", len(rows))
		}
		for i, r := range rows {
			if want := fmt.Sprintf("host%02d", i+1); r["name"] != want {
				t.Fatalf("row %d: expected %s, got %v", i, want, r["name"])
			}
		}
		if len(rows[0]) != len(HostSchema().Columns) {
			t.Fatalf("expected only schema columns, got %v", rows[0])
		}
	})

	t.Run("ties_break_on_primary_key", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		where := model.Criteria{Filters: []model.Filter{{Column: "poller", Value: "central"}}}
		for _, dir := range []model.SortDirection{model.SortAsc, model.SortDesc} {
			rows, err := repo.FetchPage(ctx, res, where, model.Sort{Column: "poller", Direction: dir}, repository.Page{Limit: 25})
			if err != nil {
				t.Fatalf("fetch %s: %v", dir, err)
			}
			want := []int64{3, 6, 9, 12, 15, 18, 21, 24}
			if got := ids(t, rows); !equalIDs(got, want) {
				t.Fatalf("%s: expected %v, got %v", dir, want, got)
			}
		}
	})

	t.Run("nulls_first_ascending_last_descending", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		asc, err := repo.FetchPage(ctx, res, model.Criteria{}, model.Sort{Column: "alias", Direction: model.SortAsc}, repository.Page{Limit: 25})
		if err != nil {
			t.Fatalf("fetch asc: %v", err)
		}
		if got, want := ids(t, asc[:5]), []int64{5, 10, 15, 20, 25}; !equalIDs(got, want) {
			t.Fatalf("asc: expected null aliases first %v, got %v", want, got)
		}
		desc, err := repo.FetchPage(ctx, res, model.Criteria{}, model.Sort{Column: "alias", Direction: model.SortDesc}, repository.Page{Limit: 25})
		if err != nil {
			t.Fatalf("fetch desc: %v", err)
		}
		if got, want := ids(t, desc[20:]), []int64{5, 10, 15, 20, 25}; !equalIDs(got, want) {
			t.Fatalf("desc: expected null aliases last %v, got %v", want, got)
		}
	})

	t.Run("pages_concatenate_to_full_listing", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		sort := model.Sort{Column: "check_interval", Direction: model.SortDesc}
		all, err := repo.FetchPage(ctx, res, model.Criteria{}, sort, repository.Page{Limit: 100})
		if err != nil {
			t.Fatalf("fetch all: %v", err)
		}
		var paged []model.Record
		for off := 0; off < 25; off += 7 {
			page, err := repo.FetchPage(ctx, res, model.Criteria{}, sort, repository.Page{Limit: 7, Offset: off})
			if err != nil {
				t.Fatalf("fetch offset %d: %v", off, err)
			}
			paged = append(paged, page...)
		}
		if !equalIDs(ids(t, all), ids(t, paged)) {
			t.Fatalf("paged order differs:\n all=%v\npaged=%v", ids(t, all), ids(t, paged))
		}
	})

	t.Run("offset_past_end_is_empty", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		rows, err := repo.FetchPage(ctx, res, model.Criteria{}, model.Sort{Column: "name", Direction: model.SortAsc}, repository.Page{Limit: 10, Offset: 30})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(rows) != 0 {
			t.Fatalf("expected empty page, got %d rows", len(rows))
		}
	})

	t.Run("empty_store", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, nil)
		t.Cleanup(cleanup)
		n, err := repo.Count(ctx, res, model.Criteria{})
		if err != nil || n != 0 {
			t.Fatalf("count: n=%d err=%v", n, err)
		}
		rows, err := repo.FetchPage(ctx, res, model.Criteria{}, model.Sort{Column: "name", Direction: model.SortAsc}, repository.Page{Limit: 10})
		if err != nil || len(rows) != 0 {
			t.Fatalf("fetch: rows=%d err=%v", len(rows), err)
		}
	})

	t.Run("unknown_resource", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		_, err := repo.Count(ctx, "widget", model.Criteria{})
		if !errors.Is(err, repository.ErrUnknownResource) {
			t.Fatalf("expected ErrUnknownResource, got %v", err)
		}
	})

	t.Run("unknown_sort_column", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		_, err := repo.FetchPage(ctx, res, model.Criteria{}, model.Sort{Column: "nope", Direction: model.SortAsc}, repository.Page{Limit: 10})
		if !errors.Is(err, repository.ErrUnknownColumn) {
			t.Fatalf("expected ErrUnknownColumn, got %v", err)
		}
	})

	t.Run("reads_inside_snapshot", func(t *testing.T) {
		repo, tx, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		var total int
		var page []model.Record
		err := tx.WithinReadTx(ctx, func(ctx context.Context) error {
			var err error
			if total, err = repo.Count(ctx, res, model.Criteria{}); err != nil {
				return err
			}
			page, err = repo.FetchPage(ctx, res, model.Criteria{}, model.Sort{Column: "id", Direction: model.SortAsc}, repository.Page{Limit: 3})
			return err
		})
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if total != 25 || !equalIDs(ids(t, page), []int64{1, 2, 3}) {
			t.Fatalf("unexpected snapshot reads: total=%d ids=%v", total, ids(t, page))
		}
	})

	t.Run("snapshot_propagates_error", func(t *testing.T) {
		_, tx, cleanup := makeRepo(t, HostRows())
		t.Cleanup(cleanup)
		boom := errors.New("boom")
		if err := tx.WithinReadTx(ctx, func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("ping failed: %v", err)
		}
	})
}
