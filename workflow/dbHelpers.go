package workflow

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm/clause"
)

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// isDuplicateKeyError detects MySQL ER_DUP_ENTRY, the unique-index backstop
// against a racing double close.
func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
