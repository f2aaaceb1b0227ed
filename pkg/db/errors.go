package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraintName is non-empty the violated constraint must
// match it (or appear in the error text for drivers that do not expose the
// constraint, such as sqlite in tests).
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") {
		if constraintName == "" || strings.Contains(msg, constraintName) {
			return true
		}
		return strings.Contains(msg, sqliteColumnRef(constraintName))
	}
	return false
}

// sqliteColumnRef maps a postgres constraint name such as "users_email_key"
// to the "users.email" form sqlite reports for single-column unique indexes.
func sqliteColumnRef(constraintName string) string {
	name := strings.TrimSuffix(constraintName, "_key")
	idx := strings.LastIndex(name, "_")
	if idx <= 0 {
		return name
	}
	return name[:idx] + "." + name[idx+1:]
}
