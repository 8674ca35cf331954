package mapper

import "reflect"

// ResultSet holds the records a query produced and the distinct primary
// keys seen among them.
type ResultSet struct {
	records    []*Record
	identities []any
}

func (rs *ResultSet) Len() int { return len(rs.records) }

// Records returns the records in fetch order.
func (rs *ResultSet) Records() []*Record { return rs.records }

// Identities returns the distinct non-empty primary keys in fetch order.
func (rs *ResultSet) Identities() []any { return rs.identities }

// First returns the first record, or nil for an empty set.
func (rs *ResultSet) First() *Record {
	if len(rs.records) == 0 {
		return nil
	}
	return rs.records[0]
}

// ToMap indexes valueField by keyField across the set.
func (rs *ResultSet) ToMap(keyField, valueField string) map[any]any {
	out := make(map[any]any, len(rs.records))
	for _, rec := range rs.records {
		key := rec.Get(keyField)
		if b, ok := key.([]byte); ok {
			key = string(b)
		}
		if key != nil && !reflect.TypeOf(key).Comparable() {
			continue
		}
		out[key] = rec.Get(valueField)
	}
	return out
}

func (rs *ResultSet) add(rec *Record, pk any) {
	rs.records = append(rs.records, rec)
	if isBlankKey(pk) {
		return
	}
	for _, seen := range rs.identities {
		if reflect.DeepEqual(seen, pk) {
			return
		}
	}
	rs.identities = append(rs.identities, pk)
}
