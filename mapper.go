package mapper

import "github.com/tinywasm/fmt"

// Mapper translates between rows of one table and Records.
// A Mapper holds a mutable active query and is not safe for concurrent use;
// obtain one per goroutine from the Registry.
type Mapper struct {
	schema   *schema
	registry *Registry
	adapter  Adapter
	log      QueryLogger

	active  *Query
	results *ResultSet
	errors  []string
}

// Name returns the identifier the mapper was registered under.
func (m *Mapper) Name() string { return m.schema.name }

// Table returns the table name.
func (m *Mapper) Table() string { return m.schema.Table }

// Fields returns the field metadata in declaration order.
func (m *Mapper) Fields() []Field { return append([]Field(nil), m.schema.Fields...) }

// Relations returns the declared relations.
func (m *Mapper) Relations() []RelationDef {
	return append([]RelationDef(nil), m.schema.Relations...)
}

// PrimaryKeyField returns the primary key column, or "" when none is declared.
func (m *Mapper) PrimaryKeyField() string { return m.schema.primaryKey }

// PrimaryKey returns rec's primary key value.
func (m *Mapper) PrimaryKey(rec *Record) any {
	if m.schema.primaryKey == "" {
		return nil
	}
	return rec.Get(m.schema.primaryKey)
}

// FieldExists reports whether field is a column of the table.
func (m *Mapper) FieldExists(field string) bool { return m.schema.fieldExists(field) }

// Adapter returns the underlying adapter instance.
func (m *Mapper) Adapter() Adapter { return m.adapter }

func (m *Mapper) DateFormat() string     { return m.adapter.DateFormat() }
func (m *Mapper) DateTimeFormat() string { return m.adapter.DateTimeFormat() }

// Migrate asks the adapter to sync the table structure.
func (m *Mapper) Migrate() error {
	return m.adapter.Migrate(m.schema.Table, m.Fields())
}

// Select starts a query against this mapper's table.
func (m *Mapper) Select() *Query {
	return &Query{Table: m.schema.Table}
}

// All builds on the active query without running it. Once results of the
// active query were fetched, All discards them and starts a new query.
func (m *Mapper) All(conds Conditions, orders ...Order) *Mapper {
	if m.results != nil {
		m.ClearActiveQuery()
	}
	if m.active == nil {
		m.active = m.Select()
	}
	m.active.Where(conds...).Order(orders...)
	return m
}

// Where is All without ordering, for chaining.
func (m *Mapper) Where(conds ...Condition) *Mapper {
	return m.All(conds)
}

// OrderBy adds sort columns to the active query.
func (m *Mapper) OrderBy(orders ...Order) *Mapper {
	return m.All(nil, orders...)
}

// Limit bounds the active query, if any.
func (m *Mapper) Limit(limit, offset int) *Mapper {
	if m.active != nil {
		m.active.SetLimit(limit, offset)
	}
	return m
}

// ActiveQuery returns the query being built, or nil.
func (m *Mapper) ActiveQuery() *Query { return m.active }

// ClearActiveQuery drops the active query and its cached results.
func (m *Mapper) ClearActiveQuery() {
	m.active = nil
	m.results = nil
}

// Execute runs the active query once and caches its results. Without an
// active query it returns an empty set.
func (m *Mapper) Execute() (*ResultSet, error) {
	if m.results != nil {
		return m.results, nil
	}
	if m.active == nil {
		return &ResultSet{}, nil
	}
	sql, binds := m.active.SQL()
	rs, err := m.Query(sql, binds)
	if err != nil {
		return nil, err
	}
	m.results = rs
	return rs, nil
}

// Count executes the active query and returns the number of records.
func (m *Mapper) Count() (int, error) {
	rs, err := m.Execute()
	if err != nil {
		return 0, err
	}
	return rs.Len(), nil
}

// Records executes the active query and returns its records.
func (m *Mapper) Records() ([]*Record, error) {
	rs, err := m.Execute()
	if err != nil {
		return nil, err
	}
	return rs.Records(), nil
}

// ToMap executes the active query and indexes valueField by keyField.
func (m *Mapper) ToMap(keyField, valueField string) (map[any]any, error) {
	rs, err := m.Execute()
	if err != nil {
		return nil, err
	}
	return rs.ToMap(keyField, valueField), nil
}

// First runs a one-row query immediately. It returns ErrNotFound when no
// row matches.
func (m *Mapper) First(conds Conditions, orders ...Order) (*Record, error) {
	q := m.Select().Where(conds...).Order(orders...).SetLimit(1, 0)
	sql, binds := q.SQL()
	rs, err := m.Query(sql, binds)
	if err != nil {
		return nil, err
	}
	if rs.Len() == 0 {
		return nil, ErrNotFound
	}
	return rs.First(), nil
}

// Get returns a fresh empty record when pk is blank, otherwise the record
// stored under pk.
func (m *Mapper) Get(pk any) (*Record, error) {
	if isBlankKey(pk) {
		return NewRecord(), nil
	}
	if m.schema.primaryKey == "" {
		return nil, wrap(ErrNoPrimaryKey, m.schema.Table)
	}
	return m.First(Conditions{Eq(m.schema.primaryKey, pk)})
}

// Query runs sql and wraps every row into a loaded Record carrying its
// relations. A prepare failure wraps ErrPrepare; a refused execution wraps
// ErrExecute and yields no result set.
func (m *Mapper) Query(sql string, binds map[string]any) (*ResultSet, error) {
	m.log.LogQuery(sql, binds)

	stmt, err := m.adapter.Prepare(sql)
	if err != nil {
		return nil, wrap(ErrPrepare, fmt.Sprintf("%s: %v", sql, err))
	}
	defer stmt.Close()

	if err := stmt.Execute(binds); err != nil {
		return nil, wrap(ErrExecute, fmt.Sprintf("%s: %v", sql, err))
	}

	rs := &ResultSet{}
	cols := stmt.Columns()
	for stmt.Next() {
		row, err := stmt.Fetch()
		if err != nil {
			return nil, err
		}
		rec := newRecord()
		for _, col := range cols {
			rec.Set(col, row[col])
		}

		relations, err := m.RelationsFor(rec)
		if err != nil {
			return nil, err
		}
		for _, rel := range m.schema.Relations {
			if r, ok := relations[rel.Name]; ok {
				rec.Set(rel.Name, r)
			}
		}

		rs.add(rec, m.PrimaryKey(rec))
		rec.MarkLoaded(true)
	}
	if err := stmt.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// RelationsFor builds a Relation for every declared relation, with foreign
// keys taken from rec's current values. It returns nil when the mapper
// declares no relations.
func (m *Mapper) RelationsFor(rec *Record) (map[string]*Relation, error) {
	if len(m.schema.Relations) == 0 {
		return nil, nil
	}
	out := make(map[string]*Relation, len(m.schema.Relations))
	for _, def := range m.schema.Relations {
		target, err := m.registry.Mapper(def.Mapper)
		if err != nil {
			return nil, err
		}
		out[def.Name] = newRelation(def, target, rec)
	}
	return out, nil
}
