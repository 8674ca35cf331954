package sqladapter

import (
	"github.com/tinywasm/mapper"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL is the dialect for github.com/go-sql-driver/mysql. Open DSNs without
// parseTime so DATE and DATETIME columns read back as strings.
var MySQL = Dialect{
	Driver:         "mysql",
	Migrate:        "mysql",
	DateFormat:     "2006-01-02",
	DateTimeFormat: "2006-01-02 15:04:05",
	column:         mysqlColumn,
}

func init() {
	register(MySQL)
}

func mysqlColumn(f mapper.Field) string {
	if autoIncrement(f) {
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	}
	var t string
	switch f.Type {
	case mapper.TypeInt64:
		t = "BIGINT"
	case mapper.TypeFloat64:
		t = "DOUBLE"
	case mapper.TypeBool:
		t = "BOOLEAN"
	case mapper.TypeBlob:
		t = "BLOB"
	case mapper.TypeDate:
		t = "DATE"
	case mapper.TypeDateTime:
		t = "DATETIME"
	default:
		// TEXT columns cannot be indexed without a prefix length.
		t = "TEXT"
		if f.IsPrimary() || f.Constraints&mapper.ConstraintUnique != 0 || f.Ref != "" {
			t = "VARCHAR(255)"
		}
	}
	if f.IsPrimary() {
		t += " PRIMARY KEY"
	}
	return t
}
