package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrClaimLost is returned when a claimed occurrence was moved or
	// released by someone else before it could be completed.
	ErrClaimLost = errors.New("occurrence claim lost")
)

const mysqlDuplicateEntry = 1062

// IsDuplicate reports whether err is a MySQL unique key violation.
func IsDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
