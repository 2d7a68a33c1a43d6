package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Params maps :name placeholders to their values.
type Params map[string]interface{}

// bind replaces :name placeholders with the driver's bindvars.
func bind(conn *sqlx.Conn, query string, params Params) (string, []interface{}, error) {
	if params == nil {
		params = Params{}
	}
	q, args, err := sqlx.Named(query, map[string]interface{}(params))
	if err != nil {
		return "", nil, fmt.Errorf("binding query parameters: %w", err)
	}
	return conn.Rebind(q), args, nil
}

// Query runs a select and scans every row into a T.
func Query[T any](ctx context.Context, h Handle, query string, params Params) ([]T, error) {
	conn, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	q, args, err := bind(conn, query, params)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := conn.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryOne returns the first matching row, or nil when there is none.
func QueryOne[T any](ctx context.Context, h Handle, query string, params Params) (*T, error) {
	conn, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	q, args, err := bind(conn, query, params)
	if err != nil {
		return nil, err
	}

	var row T
	if err := conn.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Exec runs a statement with side effects.
func Exec(ctx context.Context, h Handle, query string, params Params) (sql.Result, error) {
	conn, err := h.Conn(ctx)
	if err != nil {
		return nil, err
	}
	q, args, err := bind(conn, query, params)
	if err != nil {
		return nil, err
	}
	return conn.ExecContext(ctx, q, args...)
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from any of the supported drivers.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
