// Package repository implements raw-SQL data access for every entity,
// scoped by property on each query.  Sentinel errors defined here let
// handlers and engines distinguish failure modes without inspecting SQL
// error strings.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist within the caller's
// tenant scope.  Handlers translate this into a 404 or a domain 400
// depending on the call.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting existing state, such as a duplicate code within a property.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when a row exists but belongs to a different
// tenant.  In practice property scoping on every query makes this rare;
// it guards the few id-addressed lookups.
var ErrForbidden = errors.New("forbidden")

// mysqlDuplicateEntry is the server error number for a unique key
// violation.  Both the idempotency guard and ARI dedup rely on it to turn
// a lost insert race into a well-defined outcome.
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a MySQL unique constraint
// violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
