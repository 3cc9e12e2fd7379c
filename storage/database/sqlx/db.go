package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// NewDB wraps an opened *sql.DB for the repositories of this package.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func pqError(err error) (*pq.Error, bool) {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return pqErr, ok
}

func isCode(err error, code string) bool {
	pqErr, ok := pqError(err)
	return ok && string(pqErr.Code) == code
}

// violates reports whether err is a violation of the given constraint, by (partial) name.
func violates(err error, code, constraint string) bool {
	pqErr, ok := pqError(err)
	return ok && string(pqErr.Code) == code && strings.Contains(pqErr.Constraint, constraint)
}

func isNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

// runInTx runs fn in a transaction, committed when fn succeeds and rolled back otherwise.
func runInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back (%v)", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
