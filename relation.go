package mapper

import (
	"errors"

	"github.com/tinywasm/fmt"
)

// RelationKind selects how a relation queries its target mapper.
type RelationKind int

const (
	HasMany RelationKind = iota
	HasOne
)

func (k RelationKind) String() string {
	if k == HasOne {
		return "HasOne"
	}
	return "HasMany"
}

// MarshalText implements encoding.TextMarshaler.
func (k RelationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RelationKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "HasMany", "has_many", "":
		*k = HasMany
	case "HasOne", "has_one":
		*k = HasOne
	default:
		return fmt.Err("unknown relation kind", string(b))
	}
	return nil
}

// ForeignKey pairs a field of the owning record with a field of the related one.
type ForeignKey struct {
	Local  string `yaml:"local"`
	Remote string `yaml:"remote"`
}

// RelationDef declares a relation reachable through the record field Name.
type RelationDef struct {
	Name        string       `yaml:"name"`
	Kind        RelationKind `yaml:"kind"`
	Mapper      string       `yaml:"mapper"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys"`
}

// Relation is a per-record handle to related records. The related records
// are fetched on the first Resolve and cached for the life of the handle.
type Relation struct {
	def       RelationDef
	mapper    *Mapper
	keys      []string
	keyValues map[string]any

	resolved bool
	records  []*Record
}

func newRelation(def RelationDef, target *Mapper, owner *Record) *Relation {
	r := &Relation{
		def:       def,
		mapper:    target,
		keyValues: make(map[string]any, len(def.ForeignKeys)),
	}
	for _, fk := range def.ForeignKeys {
		r.keys = append(r.keys, fk.Remote)
		r.keyValues[fk.Remote] = owner.Get(fk.Local)
	}
	return r
}

func (r *Relation) Name() string       { return r.def.Name }
func (r *Relation) Kind() RelationKind { return r.def.Kind }
func (r *Relation) Def() RelationDef   { return r.def }

// Mapper returns the target mapper.
func (r *Relation) Mapper() *Mapper { return r.mapper }

// ForeignKeys returns the remote field values the related records must carry.
func (r *Relation) ForeignKeys() map[string]any {
	out := make(map[string]any, len(r.keyValues))
	for k, v := range r.keyValues {
		out[k] = v
	}
	return out
}

// Conditions returns the foreign-key filter in declaration order.
func (r *Relation) Conditions() Conditions {
	conds := make(Conditions, 0, len(r.keys))
	for _, k := range r.keys {
		conds = append(conds, Eq(k, r.keyValues[k]))
	}
	return conds
}

// All queries the target mapper without touching the cache.
func (r *Relation) All() ([]*Record, error) {
	switch r.def.Kind {
	case HasOne:
		rec, err := r.mapper.First(r.Conditions())
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []*Record{rec}, nil
	default:
		rs, err := r.mapper.All(r.Conditions()).Execute()
		r.mapper.ClearActiveQuery()
		if err != nil {
			return nil, err
		}
		return rs.Records(), nil
	}
}

// Resolve returns the related records, querying at most once.
func (r *Relation) Resolve() ([]*Record, error) {
	if r.resolved {
		return r.records, nil
	}
	records, err := r.All()
	if err != nil {
		return nil, err
	}
	r.records = records
	r.resolved = true
	return records, nil
}

// One returns the first related record, or nil when there is none.
func (r *Relation) One() (*Record, error) {
	records, err := r.Resolve()
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// Resolved reports whether the related records are cached.
func (r *Relation) Resolved() bool { return r.resolved }

// cached returns the cached records without querying.
func (r *Relation) cached() []*Record { return r.records }
