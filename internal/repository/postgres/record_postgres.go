package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/repository"
)

// recordRepository serves one resource from one table.
type recordRepository struct {
	pool   *pgxpool.Pool
	schema model.Schema
}

func NewRecordRepository(pool *pgxpool.Pool, schema model.Schema) repository.RecordAccessor {
	return &recordRepository{pool: pool, schema: schema}
}

func (r *recordRepository) checkResource(resource string) error {
	if resource != r.schema.Resource {
		return fmt.Errorf("%w: %q (serving %q)", repository.ErrUnknownResource, resource, r.schema.Resource)
	}
	return ensurePool(r.pool)
}

func (r *recordRepository) Count(ctx context.Context, resource string, where model.Criteria) (int, error) {
	if err := r.checkResource(resource); err != nil {
		return 0, err
	}
	b := newQueryBuilder(r.schema)
	sql, err := b.countSQL(where)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := getQ(ctx, r.pool).QueryRow(ctx, sql, b.args...).Scan(&total); err != nil {
		return 0, repository.MapPgError(err)
	}
	return int(total), nil
}

func (r *recordRepository) FetchPage(ctx context.Context, resource string, where model.Criteria, sort model.Sort, p repository.Page) ([]model.Record, error) {
	if err := r.checkResource(resource); err != nil {
		return nil, err
	}
	b := newQueryBuilder(r.schema)
	sql, err := b.pageSQL(where, sort, p)
	if err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, sql, b.args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	out := make([]model.Record, 0, len(maps))
	for _, m := range maps {
		out = append(out, model.Record(m))
	}
	return out, nil
}

var _ repository.RecordAccessor = (*recordRepository)(nil)
