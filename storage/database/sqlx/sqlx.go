// Package sqlxrepos implements the repositories on PostgreSQL with jmoiron/sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/lessonplan/core"
)

const uniqueViolation = "23505"

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// psql builds the dynamic queries, with numbered placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// selectBuilt runs the SELECT built by query and scans every row into dest.
func selectBuilt(ctx context.Context, exec core.DBExecutor, dest interface{}, query sq.SelectBuilder) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return exec.SelectContext(ctx, dest, q, args...)
}

// insertReturningID runs a named "INSERT ... RETURNING id" and scans the id.
func insertReturningID(ctx context.Context, exec core.DBExecutor, query string, arg interface{}) (int64, error) {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return 0, err
	}
	var id int64
	if err = exec.QueryRowxContext(ctx, exec.Rebind(q), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
