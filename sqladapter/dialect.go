package sqladapter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tinywasm/mapper"
)

// Dialect captures what differs between the supported database engines.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string
	// Migrate is the dialect name sql-migrate expects.
	Migrate        string
	DateFormat     string
	DateTimeFormat string
	// Lastval marks engines without sql.Result.LastInsertId support; the
	// identity is read back with SELECT lastval() on the inserting session.
	Lastval bool

	column func(f mapper.Field) string
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]Dialect)
)

func register(d Dialect, aliases ...string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Driver] = d
	for _, a := range aliases {
		dialects[a] = d
	}
}

// DialectFor returns the dialect registered for a driver name or alias.
func DialectFor(driver string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported driver %q (known: %s)", driver, strings.Join(drivers(), ", "))
	}
	return d, nil
}

func drivers() []string {
	out := make([]string, 0, len(dialects))
	for name := range dialects {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// columnDef renders one column of a CREATE TABLE statement.
func (d Dialect) columnDef(f mapper.Field) string {
	def := f.Name + " " + d.column(f)
	if f.Constraints&mapper.ConstraintNotNull != 0 && !f.IsPrimary() {
		def += " NOT NULL"
	}
	if f.Constraints&mapper.ConstraintUnique != 0 && !f.IsPrimary() {
		def += " UNIQUE"
	}
	if f.Ref != "" {
		col := f.RefColumn
		if col == "" {
			col = "id"
		}
		def += " REFERENCES " + f.Ref + "(" + col + ")"
	}
	return def
}

// createTable renders an idempotent CREATE TABLE statement.
func (d Dialect) createTable(table string, fields []mapper.Field) string {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, d.columnDef(f))
	}
	return "CREATE TABLE IF NOT EXISTS " + table + " (" + strings.Join(cols, ", ") + ")"
}

func autoIncrement(f mapper.Field) bool {
	return f.IsPrimary() && f.Constraints&mapper.ConstraintAutoIncrement != 0
}
