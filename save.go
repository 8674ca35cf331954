package mapper

import (
	"sort"
	"strings"

	"github.com/tinywasm/fmt"
)

// Save validates rec, then inserts it when its primary key is blank and
// updates it otherwise. It returns the record's primary key value.
// A validation failure returns a *ValidationError and touches no storage.
func (m *Mapper) Save(rec *Record) (any, error) {
	if !m.Validate(rec) {
		return nil, &ValidationError{Table: m.schema.Table, Messages: m.Errors()}
	}
	if isBlankKey(m.PrimaryKey(rec)) {
		return m.Insert(rec)
	}
	return m.Update(rec)
}

// Insert writes every table column rec carries. Empty values other than
// numeric zero are stored as NULL, and a blank primary key is left out so
// the storage generates one. That identity is written back into rec before
// related records are saved.
func (m *Mapper) Insert(rec *Record) (any, error) {
	pk := m.schema.primaryKey
	data := rec.Data()
	cols := make([]string, 0, len(m.schema.Fields))
	binds := make(map[string]any, len(m.schema.Fields))
	for _, f := range m.schema.Fields {
		v, ok := data[f.Name]
		if !ok || (f.Name == pk && isBlankKey(v)) {
			continue
		}
		cols = append(cols, f.Name)
		binds[f.Name] = nullable(v)
	}
	if len(cols) == 0 {
		return nil, wrap(ErrNoFields, m.schema.Table)
	}

	sql := "INSERT INTO " + m.schema.Table +
		" (" + strings.Join(cols, ", ") + ")" +
		" VALUES (:" + strings.Join(cols, ", :") + ")"
	stmt, err := m.run(sql, binds)
	if err != nil {
		return nil, err
	}
	id, err := m.insertID(stmt)
	stmt.Close()
	if err != nil {
		return nil, err
	}

	// A key supplied by the caller wins over whatever the adapter reports.
	if pk != "" {
		if current := rec.Get(pk); !isBlankKey(current) || isBlankKey(id) {
			id = current
		} else {
			rec.Set(pk, id)
		}
	}
	rec.commit()

	if err := m.CascadeSave(rec, nil); err != nil {
		return id, err
	}
	return id, nil
}

// insertID prefers the key reported by the statement itself.
func (m *Mapper) insertID(stmt Statement) (any, error) {
	if s, ok := stmt.(InsertIDStatement); ok {
		return s.LastInsertID(), nil
	}
	return m.adapter.LastInsertID()
}

// Update writes only the modified fields that are table columns, restricted
// to the primary key rec was loaded with, so a changed key renames the row.
// ErrNoChanges is returned when there is nothing to write.
func (m *Mapper) Update(rec *Record) (any, error) {
	pk := m.schema.primaryKey
	if pk == "" {
		return nil, wrap(ErrNoPrimaryKey, m.schema.Table)
	}

	modified := rec.Modified()
	var sets []string
	binds := make(map[string]any, len(modified)+1)
	for _, field := range rec.ModifiedFields() {
		if !m.schema.fieldExists(field) {
			continue
		}
		sets = append(sets, field+" = :"+field)
		binds[field] = nullable(modified[field])
	}
	if len(sets) == 0 {
		return nil, wrap(ErrNoChanges, m.schema.Table)
	}

	where := "where_" + pk
	binds[where] = rec.storedKey(pk)
	sql := "UPDATE " + m.schema.Table +
		" SET " + strings.Join(sets, ", ") +
		" WHERE " + pk + " = :" + where
	if _, err := m.exec(sql, binds); err != nil {
		return nil, err
	}
	rec.commit()

	id := m.PrimaryKey(rec)
	if err := m.CascadeSave(rec, nil); err != nil {
		return id, err
	}
	return id, nil
}

// Destroy deletes rec by primary key and returns the affected row count.
func (m *Mapper) Destroy(rec *Record) (int64, error) {
	pk := m.schema.primaryKey
	if pk == "" {
		return 0, wrap(ErrNoPrimaryKey, m.schema.Table)
	}
	return m.Delete(Conditions{Eq(pk, rec.storedKey(pk))})
}

// Delete removes the rows matching conds and returns the affected row
// count. Empty conds delete every row.
func (m *Mapper) Delete(conds Conditions) (int64, error) {
	sql := "DELETE FROM " + m.schema.Table
	where, binds := conds.SQL()
	if where != "" {
		sql += " WHERE " + where
	}
	return m.exec(sql, binds)
}

// CascadeSave saves the modified records held under rec's relation fields
// through their target mappers. Each one first receives the relation's
// foreign-key values, then fill (fill wins on collisions). Unmodified
// related records are skipped. Saving stops at the first error; earlier
// saves are not undone.
func (m *Mapper) CascadeSave(rec *Record, fill map[string]any) error {
	if len(m.schema.Relations) == 0 {
		return nil
	}
	relations, err := m.RelationsFor(rec)
	if err != nil {
		return err
	}

	for _, field := range rec.Fields() {
		if _, ok := m.schema.relations[field]; !ok {
			continue
		}
		value, _ := rec.Lookup(field)
		owner := relations[field]
		if held, ok := value.(*Relation); ok && held != nil {
			owner = held
		}

		for _, related := range relatedRecords(value) {
			if !related.IsModified() {
				continue
			}
			data, keys := fillData(owner, fill)
			related.SetData(data, keys...)
			if _, err := owner.Mapper().Save(related); err != nil {
				return wrap(err, fmt.Sprintf("saving %s.%s", m.schema.Table, field))
			}
		}
	}
	return nil
}

// relatedRecords flattens a relation field value into records. Plain maps
// become new records whose every value counts as modified.
func relatedRecords(value any) []*Record {
	switch v := value.(type) {
	case *Relation:
		if v == nil {
			return nil
		}
		return v.cached()
	case *Record:
		if v == nil {
			return nil
		}
		return []*Record{v}
	case []*Record:
		return v
	case map[string]any:
		return []*Record{recordFromMap(v)}
	case []map[string]any:
		out := make([]*Record, 0, len(v))
		for _, item := range v {
			out = append(out, recordFromMap(item))
		}
		return out
	case []any:
		var out []*Record
		for _, item := range v {
			out = append(out, relatedRecords(item)...)
		}
		return out
	}
	return nil
}

func recordFromMap(data map[string]any) *Record {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rec := NewRecord()
	rec.SetData(data, keys...)
	return rec
}

func fillData(owner *Relation, fill map[string]any) (map[string]any, []string) {
	data := owner.ForeignKeys()
	keys := append([]string(nil), owner.keys...)
	extra := make([]string, 0, len(fill))
	for k := range fill {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		if _, ok := data[k]; !ok {
			keys = append(keys, k)
		}
		data[k] = fill[k]
	}
	return data, keys
}

// exec runs a write statement and returns the affected row count.
func (m *Mapper) exec(sql string, binds map[string]any) (int64, error) {
	stmt, err := m.run(sql, binds)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	return stmt.RowsAffected(), nil
}

// run logs, prepares and executes a write statement. On success the caller
// owns the statement and must close it.
func (m *Mapper) run(sql string, binds map[string]any) (Statement, error) {
	m.log.LogQuery(sql, binds)

	stmt, err := m.adapter.Prepare(sql)
	if err != nil {
		return nil, wrap(ErrPrepare, fmt.Sprintf("%s: %v", sql, err))
	}
	if err := stmt.Execute(binds); err != nil {
		stmt.Close()
		return nil, wrap(ErrExecute, fmt.Sprintf("%s: %v", sql, err))
	}
	return stmt, nil
}
