// Package sqladapter implements the mapper storage contract over
// database/sql using sqlx named statements.
//
// The mapper renders SQL with :name placeholders; sqlx rewrites them into the
// driver's bind style, so the same statement text works on sqlite, mysql and
// postgres. Prepared statements are kept in an LRU cache keyed by SQL text.
package sqladapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/jmoiron/sqlx"
	"github.com/tinywasm/mapper"
)

// DefaultStatementCache is the number of prepared statements kept open.
const DefaultStatementCache = 64

// Option configures an Adapter.
type Option func(*Adapter)

// WithStatementCache sets how many prepared statements stay open. Zero or
// less disables caching; each statement is then closed after use.
func WithStatementCache(size int) Option {
	return func(a *Adapter) { a.cacheSize = size }
}

// WithLogger sets the logger used for connection-level warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMigrationTable names the table sql-migrate records applied schema
// migrations in.
func WithMigrationTable(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.migrations = name
		}
	}
}

// session is the part of an adapter a statement reports back to.
type session interface {
	setLastID(id any)
	lastvalInsert(query string, binds map[string]any) (int64, any, error)
}

// identity holds the last key generated through one adapter. It is shared by
// every caller of that adapter; statements keep their own copy.
type identity struct {
	mu     sync.Mutex
	lastID any
}

func (i *identity) setLastID(id any) {
	i.mu.Lock()
	i.lastID = id
	i.mu.Unlock()
}

// LastInsertID returns the key generated by the most recent insert run
// through the adapter by any goroutine, or nil when the engine reported
// none. Mappers read the key from the insert statement instead.
func (i *identity) LastInsertID() (any, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastID, nil
}

// Adapter is a mapper.Adapter and mapper.TxAdapter over a *sqlx.DB.
type Adapter struct {
	identity

	db         *sqlx.DB
	dialect    Dialect
	log        *slog.Logger
	migrations string

	cacheSize int
	cacheMu   sync.Mutex
	cache     *lru.Cache
}

var _ mapper.TxAdapter = (*Adapter)(nil)

// Open connects to dsn with the dialect registered for driver and checks
// the connection.
func Open(driver, dsn string, opts ...Option) (*Adapter, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Driver, err)
	}
	// Every connection to an in-memory sqlite database sees its own database.
	if d.Driver == SQLite.Driver && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.Driver, err)
	}
	return New(db, d, opts...), nil
}

// New wraps an open database handle.
func New(db *sqlx.DB, d Dialect, opts ...Option) *Adapter {
	a := &Adapter{
		db:         db,
		dialect:    d,
		log:        slog.Default(),
		migrations: "mapper_migrations",
		cacheSize:  DefaultStatementCache,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cacheSize > 0 {
		a.cache = lru.New(a.cacheSize)
		a.cache.OnEvicted = func(key lru.Key, value any) {
			if err := value.(*sqlx.NamedStmt).Close(); err != nil {
				a.log.Warn("closing evicted statement", "sql", key, "error", err)
			}
		}
	}
	return a
}

// DB returns the underlying handle.
func (a *Adapter) DB() *sqlx.DB { return a.db }

// Dialect returns the dialect the adapter was opened with.
func (a *Adapter) Dialect() Dialect { return a.dialect }

func (a *Adapter) DateFormat() string     { return a.dialect.DateFormat }
func (a *Adapter) DateTimeFormat() string { return a.dialect.DateTimeFormat }

// Prepare returns a statement for query, reusing a cached prepared
// statement when one exists.
func (a *Adapter) Prepare(query string) (mapper.Statement, error) {
	s := newStatement(a, a.dialect, query)
	if s.lastval {
		return s, nil
	}
	ns, cached, err := a.prepareNamed(query)
	if err != nil {
		return nil, err
	}
	s.named, s.owned = ns, !cached
	return s, nil
}

func (a *Adapter) prepareNamed(query string) (*sqlx.NamedStmt, bool, error) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cache != nil {
		if v, ok := a.cache.Get(query); ok {
			return v.(*sqlx.NamedStmt), true, nil
		}
	}
	ns, err := a.db.PrepareNamed(query)
	if err != nil {
		return nil, false, err
	}
	if a.cache == nil {
		return ns, false, nil
	}
	a.cache.Add(query, ns)
	return ns, true, nil
}

// CachedStatements reports how many prepared statements are open in the cache.
func (a *Adapter) CachedStatements() int {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cache == nil {
		return 0
	}
	return a.cache.Len()
}

// Exec runs raw SQL without binds and returns the affected row count.
func (a *Adapter) Exec(query string) (int64, error) {
	res, err := a.db.Exec(query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// lastvalInsert runs an insert and reads lastval() on the same connection,
// since lastval is scoped to the session that drew from the sequence.
func (a *Adapter) lastvalInsert(query string, binds map[string]any) (int64, any, error) {
	q, args, err := sqlx.Named(query, binds)
	if err != nil {
		return 0, nil, err
	}
	ctx := context.Background()
	conn, err := a.db.Connx(ctx)
	if err != nil {
		return 0, nil, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, a.db.Rebind(q), args...)
	if err != nil {
		return 0, nil, err
	}
	var id any
	var seq int64
	// A table drawing from no sequence leaves id nil.
	if err := conn.QueryRowContext(ctx, "SELECT lastval()").Scan(&seq); err == nil {
		id = seq
	}
	a.setLastID(id)
	n, err := res.RowsAffected()
	return n, id, err
}

// BeginTx starts a transaction. Statements of the returned adapter are
// prepared on the transaction and bypass the statement cache.
func (a *Adapter) BeginTx() (mapper.TxBoundAdapter, error) {
	tx, err := a.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &TxAdapter{tx: tx, parent: a}, nil
}

// Close closes every cached statement, then the database handle.
func (a *Adapter) Close() error {
	a.cacheMu.Lock()
	if a.cache != nil {
		a.cache.Clear()
	}
	a.cacheMu.Unlock()
	return a.db.Close()
}

// TxAdapter is bound to one open transaction.
type TxAdapter struct {
	identity

	tx     *sqlx.Tx
	parent *Adapter
}

var _ mapper.TxBoundAdapter = (*TxAdapter)(nil)

func (t *TxAdapter) Prepare(query string) (mapper.Statement, error) {
	s := newStatement(t, t.parent.dialect, query)
	if s.lastval {
		return s, nil
	}
	ns, err := t.tx.PrepareNamed(query)
	if err != nil {
		return nil, err
	}
	s.named, s.owned = ns, true
	return s, nil
}

func (t *TxAdapter) Exec(query string) (int64, error) {
	res, err := t.tx.Exec(query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *TxAdapter) DateFormat() string     { return t.parent.DateFormat() }
func (t *TxAdapter) DateTimeFormat() string { return t.parent.DateTimeFormat() }

// Migrate runs on the parent connection pool, outside the transaction.
func (t *TxAdapter) Migrate(table string, fields []mapper.Field) error {
	return t.parent.Migrate(table, fields)
}

func (t *TxAdapter) Commit() error   { return t.tx.Commit() }
func (t *TxAdapter) Rollback() error { return t.tx.Rollback() }

// lastvalInsert guards the lastval read with a savepoint: a failed query
// would otherwise abort the whole transaction.
func (t *TxAdapter) lastvalInsert(query string, binds map[string]any) (int64, any, error) {
	res, err := t.tx.NamedExec(query, binds)
	if err != nil {
		return 0, nil, err
	}
	if _, err := t.tx.Exec("SAVEPOINT mapper_lastval"); err != nil {
		return 0, nil, err
	}
	var id any
	var seq int64
	release := "RELEASE SAVEPOINT mapper_lastval"
	if err := t.tx.QueryRow("SELECT lastval()").Scan(&seq); err != nil {
		release = "ROLLBACK TO SAVEPOINT mapper_lastval"
	} else {
		id = seq
	}
	if _, err := t.tx.Exec(release); err != nil {
		return 0, nil, err
	}
	t.setLastID(id)
	n, err := res.RowsAffected()
	return n, id, err
}

// resultID extracts the generated key from an exec result. Drivers that do
// not support LastInsertId yield nil.
func resultID(res sql.Result) any {
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return nil
	}
	return id
}
