package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Storage-level errors I prefer to bubble up from accessor implementations.
var (
	ErrUnknownResource = errors.New("resource not served by this accessor")
	ErrUnknownColumn   = errors.New("column not present in schema")
	ErrBadFilterValue  = errors.New("filter value does not match column type")
	ErrUndefinedTable  = errors.New("backing table does not exist")
)

// MapPgError translates the Postgres error codes listing can hit into storage errors.
// Everything else passes through untouched.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UndefinedTable:
			return ErrUndefinedTable
		case pgerrcode.UndefinedColumn:
			return ErrUnknownColumn
		case pgerrcode.InvalidTextRepresentation, pgerrcode.InvalidDatetimeFormat, pgerrcode.DatetimeFieldOverflow:
			return ErrBadFilterValue
		}
	}
	return err
}
