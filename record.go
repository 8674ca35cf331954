package mapper

// GetterFunc overrides reads of a single field. Calls to r.Get for the same
// field from inside the hook read the stored value.
type GetterFunc func(r *Record) any

// SetterFunc overrides writes of a single field. Calls to r.Set for the same
// field from inside the hook store the value.
type SetterFunc func(r *Record, value any)

// Record is one row, loaded from storage or newly built.
// Writes made before the record is marked loaded land in the base data;
// writes made after land in the modified data, which is what Update persists.
type Record struct {
	base     map[string]any
	modified map[string]any
	order    []string // first-write order of every known field
	modOrder []string // first-write order of modified fields
	loaded   bool

	getters map[string]GetterFunc
	setters map[string]SetterFunc
	inGet   map[string]bool
	inSet   map[string]bool
}

// NewRecord returns an empty record that is already marked loaded, so every
// write is tracked as a modification.
func NewRecord() *Record {
	r := newRecord()
	r.loaded = true
	return r
}

// NewRecordFrom fills a record with data as base (unmodified) values, then
// marks it loaded. keys fixes the field order; when empty, data is walked in
// map order.
func NewRecordFrom(data map[string]any, keys ...string) *Record {
	r := newRecord()
	if len(keys) == 0 {
		for k := range data {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		if v, ok := data[k]; ok {
			r.Set(k, v)
		}
	}
	r.loaded = true
	return r
}

func newRecord() *Record {
	return &Record{
		base:     make(map[string]any),
		modified: make(map[string]any),
	}
}

// MarkLoaded switches where subsequent writes land.
func (r *Record) MarkLoaded(loaded bool) { r.loaded = loaded }

// Loaded reports whether writes are tracked as modifications.
func (r *Record) Loaded() bool { return r.loaded }

// OnGet registers a custom getter for field.
func (r *Record) OnGet(field string, fn GetterFunc) {
	if r.getters == nil {
		r.getters = make(map[string]GetterFunc)
	}
	r.getters[field] = fn
}

// OnSet registers a custom setter for field.
func (r *Record) OnSet(field string, fn SetterFunc) {
	if r.setters == nil {
		r.setters = make(map[string]SetterFunc)
	}
	r.setters[field] = fn
}

// Get returns the value a reader observes for field, or nil when the field
// has no value.
func (r *Record) Get(field string) any {
	if fn, ok := r.getters[field]; ok && !r.inGet[field] {
		if r.inGet == nil {
			r.inGet = make(map[string]bool)
		}
		r.inGet[field] = true
		defer delete(r.inGet, field)
		return fn(r)
	}
	v, _ := r.Lookup(field)
	return v
}

// Lookup returns the stored value for field without running hooks.
func (r *Record) Lookup(field string) (any, bool) {
	if v, ok := r.modified[field]; ok {
		return v, true
	}
	v, ok := r.base[field]
	return v, ok
}

// Set writes value to field.
func (r *Record) Set(field string, value any) {
	if fn, ok := r.setters[field]; ok && !r.inSet[field] {
		if r.inSet == nil {
			r.inSet = make(map[string]bool)
		}
		r.inSet[field] = true
		defer delete(r.inSet, field)
		fn(r, value)
		return
	}
	if _, known := r.base[field]; !known {
		if _, known = r.modified[field]; !known {
			r.order = append(r.order, field)
		}
	}
	if !r.loaded {
		r.base[field] = value
		return
	}
	if _, ok := r.modified[field]; !ok {
		r.modOrder = append(r.modOrder, field)
	}
	r.modified[field] = value
}

// SetData writes every entry of data, in keys order when given.
func (r *Record) SetData(data map[string]any, keys ...string) {
	if len(keys) == 0 {
		for k := range data {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		if v, ok := data[k]; ok {
			r.Set(k, v)
		}
	}
}

// Data returns base data overlaid with modified data.
func (r *Record) Data() map[string]any {
	out := make(map[string]any, len(r.base)+len(r.modified))
	for k, v := range r.base {
		out[k] = v
	}
	for k, v := range r.modified {
		out[k] = v
	}
	return out
}

// Modified returns the fields written since the record was marked loaded.
func (r *Record) Modified() map[string]any {
	out := make(map[string]any, len(r.modified))
	for k, v := range r.modified {
		out[k] = v
	}
	return out
}

// IsModified reports whether any field was written after load.
func (r *Record) IsModified() bool { return len(r.modified) > 0 }

// Fields returns every known field name in first-write order.
func (r *Record) Fields() []string {
	return append([]string(nil), r.order...)
}

// ModifiedFields returns the modified field names in first-write order.
func (r *Record) ModifiedFields() []string {
	return append([]string(nil), r.modOrder...)
}

// commit folds modified data into base data after a successful write.
func (r *Record) commit() {
	for k, v := range r.modified {
		r.base[k] = v
	}
	r.modified = make(map[string]any)
	r.modOrder = nil
}

// storedKey returns the value field held when the record was loaded or last
// written. Records never stored fall back to the pending value.
func (r *Record) storedKey(field string) any {
	if v, ok := r.base[field]; ok && !isBlankKey(v) {
		return v
	}
	v, _ := r.Lookup(field)
	return v
}
