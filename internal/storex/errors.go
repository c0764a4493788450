package storex

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgerrcode for unique_violation.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a server-side unique constraint
// violation. Repositories map it to their duplicate sentinel.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
