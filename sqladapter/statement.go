package sqladapter

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tinywasm/mapper"
)

// statement adapts a sqlx named statement to mapper.Statement. Reads keep
// their rows open until Close; writes record the affected row count and,
// for inserts, the generated key both on the statement and on its session.
type statement struct {
	session session
	query   string
	read    bool
	insert  bool
	lastval bool

	named *sqlx.NamedStmt
	owned bool // closed with the statement instead of living in the cache

	rows     *sqlx.Rows
	columns  []string
	layouts  map[string]string
	affected int64
	id       any

	dateFormat     string
	dateTimeFormat string
}

var _ mapper.InsertIDStatement = (*statement)(nil)

func newStatement(s session, d Dialect, query string) *statement {
	st := &statement{
		session:        s,
		query:          query,
		read:           isReadQuery(query),
		insert:         hasPrefixFold(query, "INSERT"),
		dateFormat:     d.DateFormat,
		dateTimeFormat: d.DateTimeFormat,
	}
	st.lastval = st.insert && d.Lastval
	return st
}

// isReadQuery detects statements that return rows.
func isReadQuery(query string) bool {
	for _, prefix := range []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN", "PRAGMA"} {
		if hasPrefixFold(query, prefix) {
			return true
		}
	}
	return false
}

func hasPrefixFold(query, prefix string) bool {
	q := strings.TrimSpace(query)
	return len(q) >= len(prefix) && strings.EqualFold(q[:len(prefix)], prefix)
}

func (s *statement) Execute(binds map[string]any) error {
	if binds == nil {
		binds = map[string]any{}
	}
	if s.lastval {
		n, id, err := s.session.lastvalInsert(s.query, binds)
		s.affected, s.id = n, id
		return err
	}
	if s.read {
		return s.open(binds)
	}

	res, err := s.named.Exec(binds)
	if err != nil {
		return err
	}
	s.affected, _ = res.RowsAffected()
	if s.insert {
		s.id = resultID(res)
		s.session.setLastID(s.id)
	}
	return nil
}

func (s *statement) open(binds map[string]any) error {
	if s.rows != nil {
		s.rows.Close()
	}
	rows, err := s.named.Queryx(binds)
	if err != nil {
		return err
	}
	s.rows = rows
	if s.columns, err = rows.Columns(); err != nil {
		return err
	}
	s.layouts = make(map[string]string, len(s.columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for _, ct := range types {
			if strings.EqualFold(ct.DatabaseTypeName(), "DATE") {
				s.layouts[ct.Name()] = s.dateFormat
			}
		}
	}
	return nil
}

func (s *statement) Columns() []string { return s.columns }

func (s *statement) Next() bool {
	return s.rows != nil && s.rows.Next()
}

// Fetch scans the current row. Text arrives as string and times are
// formatted with the dialect's layouts.
func (s *statement) Fetch() (map[string]any, error) {
	row := make(map[string]any, len(s.columns))
	if err := s.rows.MapScan(row); err != nil {
		return nil, err
	}
	for k, v := range row {
		row[k] = s.normalize(k, v)
	}
	return row, nil
}

func (s *statement) normalize(column string, v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		if layout, ok := s.layouts[column]; ok {
			return val.Format(layout)
		}
		return val.Format(s.dateTimeFormat)
	}
	return v
}

func (s *statement) RowsAffected() int64 { return s.affected }

// LastInsertID returns the key generated by this statement's last insert.
func (s *statement) LastInsertID() any { return s.id }

func (s *statement) Err() error {
	if s.rows == nil {
		return nil
	}
	return s.rows.Err()
}

func (s *statement) Close() error {
	var err error
	if s.rows != nil {
		err = s.rows.Close()
		s.rows = nil
	}
	if s.owned && s.named != nil {
		if cerr := s.named.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
