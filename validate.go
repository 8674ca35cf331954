package mapper

import (
	"reflect"

	"github.com/tinywasm/fmt"
)

// Validate checks every required field of rec and reports whether none
// failed. Messages from earlier calls are discarded first; read them
// through Errors(). Numeric zero and false satisfy a required field; only
// nil, "" and empty collections count as blank.
func (m *Mapper) Validate(rec *Record) bool {
	m.errors = m.errors[:0]
	for _, f := range m.schema.Fields {
		if f.IsRequired() && isEmpty(rec.Get(f.Name)) {
			m.AddError(fmt.Sprintf("Required field '%s' was left blank", f.Name))
		}
	}
	return !m.HasErrors()
}

// AddError appends a validation message.
func (m *Mapper) AddError(msg string) {
	m.errors = append(m.errors, msg)
}

// HasErrors reports whether the last validation collected messages.
func (m *Mapper) HasErrors() bool { return len(m.errors) > 0 }

// Errors returns the messages collected by the last Validate.
func (m *Mapper) Errors() []string {
	return append([]string(nil), m.errors...)
}

// isEmpty reports whether v carries no value. Numeric zero and false are
// values; nil, "" and empty collections are not.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []byte:
		return len(t) == 0
	case *Relation:
		return t == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isBlankKey reports whether a primary key value means "not stored yet".
// Unlike isEmpty, numeric zero counts as blank.
func isBlankKey(v any) bool {
	if isEmpty(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	}
	return false
}

// nullable converts empty values to nil binds; numeric zero is kept.
func nullable(v any) any {
	if isEmpty(v) {
		return nil
	}
	return v
}
