package mapper

// Adapter represents the storage connection abstraction.
// Binds use named parameters written as ":name" in the SQL text.
type Adapter interface {
	// Prepare compiles sql into a statement. A failure here is a fault.
	Prepare(sql string) (Statement, error)
	// LastInsertID returns the identity generated by the most recent insert.
	LastInsertID() (any, error)
	// Exec runs sql without binds and reports the affected row count (best-effort).
	Exec(sql string) (int64, error)
	// DateFormat and DateTimeFormat are passed through untouched.
	DateFormat() string
	DateTimeFormat() string
	// Migrate syncs the table structure with the given fields.
	Migrate(table string, fields []Field) error
}

// Statement represents a prepared statement and, after Execute, its cursor.
type Statement interface {
	// Execute runs the statement. An error means execution was refused.
	Execute(binds map[string]any) error
	// Columns lists the result columns in select order.
	Columns() []string
	Next() bool
	// Fetch returns the current row keyed by column.
	Fetch() (map[string]any, error)
	// RowsAffected reports rows touched by a write statement.
	RowsAffected() int64
	Err() error
	Close() error
}

// InsertIDStatement is a Statement that reports the key its own insert
// generated. Mappers read it instead of Adapter.LastInsertID, which other
// callers of a shared adapter may overwrite in between.
type InsertIDStatement interface {
	Statement
	LastInsertID() any
}
