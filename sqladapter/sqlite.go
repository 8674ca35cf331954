package sqladapter

import (
	"github.com/jmoiron/sqlx"
	"github.com/tinywasm/mapper"

	_ "modernc.org/sqlite"
)

// SQLite is the dialect for modernc.org/sqlite. Dates are stored as TEXT so
// they read back in the adapter's date formats.
var SQLite = Dialect{
	Driver:         "sqlite",
	Migrate:        "sqlite3",
	DateFormat:     "2006-01-02",
	DateTimeFormat: "2006-01-02 15:04:05",
	column:         sqliteColumn,
}

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	register(SQLite, "sqlite3")
}

func sqliteColumn(f mapper.Field) string {
	if autoIncrement(f) {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	var t string
	switch f.Type {
	case mapper.TypeInt64, mapper.TypeBool:
		t = "INTEGER"
	case mapper.TypeFloat64:
		t = "REAL"
	case mapper.TypeBlob:
		t = "BLOB"
	default:
		t = "TEXT"
	}
	if f.IsPrimary() {
		t += " PRIMARY KEY"
	}
	return t
}
