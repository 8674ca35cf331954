package mapper_test

import (
	"strings"

	"github.com/tinywasm/mapper"
)

// MockResult is the row set a SELECT returns.
type MockResult struct {
	Columns []string
	Rows    []map[string]any
}

// MockAdapter captures every prepared statement and its binds.
type MockAdapter struct {
	Prepared      []string
	Binds         []map[string]any
	Execs         []string
	Migrated      []string
	ReturnRows    func(sql string, binds map[string]any) MockResult
	PrepareErr    error
	ExecuteErr    error
	NextID        any
	StatementID   any // when set, statements report their own insert key
	Affected      int64
	LastInsertErr error
}

func (m *MockAdapter) Prepare(sql string) (mapper.Statement, error) {
	m.Prepared = append(m.Prepared, sql)
	if m.PrepareErr != nil {
		return nil, m.PrepareErr
	}
	st := &MockStatement{adapter: m, sql: sql}
	if m.StatementID != nil {
		return &MockInsertStatement{MockStatement: st, id: m.StatementID}, nil
	}
	return st, nil
}

func (m *MockAdapter) LastInsertID() (any, error) {
	return m.NextID, m.LastInsertErr
}

func (m *MockAdapter) Exec(sql string) (int64, error) {
	m.Execs = append(m.Execs, sql)
	return m.Affected, m.ExecuteErr
}

func (m *MockAdapter) DateFormat() string     { return "2006-01-02" }
func (m *MockAdapter) DateTimeFormat() string { return "2006-01-02 15:04:05" }

func (m *MockAdapter) Migrate(table string, fields []mapper.Field) error {
	m.Migrated = append(m.Migrated, table)
	return nil
}

// Count returns how many prepared statements start with prefix.
func (m *MockAdapter) Count(prefix string) int {
	n := 0
	for _, q := range m.Prepared {
		if strings.HasPrefix(q, prefix) {
			n++
		}
	}
	return n
}

// LastBinds returns the binds of the most recent Execute.
func (m *MockAdapter) LastBinds() map[string]any {
	if len(m.Binds) == 0 {
		return nil
	}
	return m.Binds[len(m.Binds)-1]
}

// MockStatement replays the rows chosen by its adapter.
type MockStatement struct {
	adapter *MockAdapter
	sql     string
	result  MockResult
	current int
	Closed  bool
}

func (s *MockStatement) Execute(binds map[string]any) error {
	s.adapter.Binds = append(s.adapter.Binds, binds)
	if s.adapter.ExecuteErr != nil {
		return s.adapter.ExecuteErr
	}
	if s.adapter.ReturnRows != nil && strings.HasPrefix(s.sql, "SELECT") {
		s.result = s.adapter.ReturnRows(s.sql, binds)
	}
	return nil
}

func (s *MockStatement) Columns() []string { return s.result.Columns }

func (s *MockStatement) Next() bool {
	if s.current < len(s.result.Rows) {
		s.current++
		return true
	}
	return false
}

func (s *MockStatement) Fetch() (map[string]any, error) {
	return s.result.Rows[s.current-1], nil
}

func (s *MockStatement) RowsAffected() int64 { return s.adapter.Affected }

func (s *MockStatement) Err() error { return nil }

func (s *MockStatement) Close() error {
	s.Closed = true
	return nil
}

// MockInsertStatement reports the key generated by its own insert.
type MockInsertStatement struct {
	*MockStatement
	id any
}

func (s *MockInsertStatement) LastInsertID() any { return s.id }

// MockTxAdapter hands out one MockTxBoundAdapter per BeginTx.
type MockTxAdapter struct {
	MockAdapter
	Bound      *MockTxBoundAdapter
	BeginTxErr error
}

func (m *MockTxAdapter) BeginTx() (mapper.TxBoundAdapter, error) {
	if m.BeginTxErr != nil {
		return nil, m.BeginTxErr
	}
	if m.Bound == nil {
		m.Bound = &MockTxBoundAdapter{}
	}
	return m.Bound, nil
}

type MockTxBoundAdapter struct {
	MockAdapter
	CommitCalled   bool
	RollbackCalled bool
	CommitErr      error
	RollbackErr    error
}

func (m *MockTxBoundAdapter) Commit() error {
	m.CommitCalled = true
	return m.CommitErr
}

func (m *MockTxBoundAdapter) Rollback() error {
	m.RollbackCalled = true
	return m.RollbackErr
}

// Definitions shared by the tests: posts have many comments and one author profile.
var (
	postsDef = mapper.Definition{
		Table: "posts",
		Fields: []mapper.Field{
			{Name: "id", Type: mapper.TypeInt64, Constraints: mapper.ConstraintPK | mapper.ConstraintAutoIncrement},
			{Name: "title", Type: mapper.TypeText, Required: true},
			{Name: "body", Type: mapper.TypeText},
			{Name: "views", Type: mapper.TypeInt64},
		},
		Relations: []mapper.RelationDef{
			{
				Name:        "comments",
				Kind:        mapper.HasMany,
				Mapper:      "comments",
				ForeignKeys: []mapper.ForeignKey{{Local: "id", Remote: "post_id"}},
			},
			{
				Name:        "meta",
				Kind:        mapper.HasOne,
				Mapper:      "post_meta",
				ForeignKeys: []mapper.ForeignKey{{Local: "id", Remote: "post_id"}},
			},
		},
	}

	commentsDef = mapper.Definition{
		Table: "comments",
		Fields: []mapper.Field{
			{Name: "id", Type: mapper.TypeInt64, Primary: true},
			{Name: "post_id", Type: mapper.TypeInt64},
			{Name: "body", Type: mapper.TypeText},
		},
	}

	postMetaDef = mapper.Definition{
		Table: "post_meta",
		Fields: []mapper.Field{
			{Name: "id", Type: mapper.TypeInt64, Primary: true},
			{Name: "post_id", Type: mapper.TypeInt64},
			{Name: "slug", Type: mapper.TypeText},
		},
	}
)

// newBlog registers posts, comments and post_meta against adapter.
func newBlog(adapter mapper.Adapter, opts ...mapper.Option) *mapper.Registry {
	reg := mapper.NewRegistry(adapter, opts...)
	for name, def := range map[string]mapper.Definition{
		"posts":     postsDef,
		"comments":  commentsDef,
		"post_meta": postMetaDef,
	} {
		if err := reg.Register(name, def); err != nil {
			panic(err)
		}
	}
	return reg
}

func mustMapper(reg *mapper.Registry, name string) *mapper.Mapper {
	m, err := reg.Mapper(name)
	if err != nil {
		panic(err)
	}
	return m
}
