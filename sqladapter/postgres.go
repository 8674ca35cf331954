package sqladapter

import (
	"github.com/tinywasm/mapper"

	_ "github.com/lib/pq"
)

// Postgres is the dialect for github.com/lib/pq, which does not implement
// sql.Result.LastInsertId.
var Postgres = Dialect{
	Driver:         "postgres",
	Migrate:        "postgres",
	DateFormat:     "2006-01-02",
	DateTimeFormat: "2006-01-02 15:04:05",
	Lastval:        true,
	column:         postgresColumn,
}

func init() {
	register(Postgres, "postgresql", "pgsql")
}

func postgresColumn(f mapper.Field) string {
	if autoIncrement(f) {
		return "BIGSERIAL PRIMARY KEY"
	}
	var t string
	switch f.Type {
	case mapper.TypeInt64:
		t = "BIGINT"
	case mapper.TypeFloat64:
		t = "DOUBLE PRECISION"
	case mapper.TypeBool:
		t = "BOOLEAN"
	case mapper.TypeBlob:
		t = "BYTEA"
	case mapper.TypeDate:
		t = "DATE"
	case mapper.TypeDateTime:
		t = "TIMESTAMP"
	default:
		t = "TEXT"
	}
	if f.IsPrimary() {
		t += " PRIMARY KEY"
	}
	return t
}
