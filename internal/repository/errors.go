// Package repository holds the MySQL data access layer.  The sentinel
// values below let higher layers tell failure scenarios apart without
// inspecting driver errors: ErrNotFound replaces sql.ErrNoRows at package
// boundaries and ErrDuplicate reports a unique key violation.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// key, such as a second cabin with the same number.  Handlers translate
// it into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate")

// mysqlDuplicateEntry is the server error number for unique violations.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL duplicate key error.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
