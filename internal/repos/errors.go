package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const mysqlDupEntry = 1062

// IsDuplicate reports whether err is a unique-constraint violation. When
// column is non-empty the violated key must mention it.
func IsDuplicate(err error, column string) bool {
	if err == nil {
		return false
	}
	dup := false
	var me *mysql.MySQLError
	var se *sqlite.Error
	switch {
	case errors.As(err, &me):
		dup = me.Number == mysqlDupEntry
	case errors.As(err, &se):
		code := se.Code()
		dup = code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	if !dup {
		return false
	}
	return column == "" || strings.Contains(err.Error(), column)
}

// IsNotFound reports whether err means "no such row".
func IsNotFound(err error) bool { return errors.Is(err, sql.ErrNoRows) }
