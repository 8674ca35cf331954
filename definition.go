package mapper

import "github.com/tinywasm/fmt"

// Definition is the static metadata of one mapper: its table, its columns
// and the relations other mappers are reached through.
type Definition struct {
	Table     string        `yaml:"table"`
	Fields    []Field       `yaml:"fields"`
	Relations []RelationDef `yaml:"relations,omitempty"`
}

// schema is a validated Definition with lookups precomputed.
type schema struct {
	Definition
	name       string
	primaryKey string
	index      map[string]int
	relations  map[string]RelationDef
}

func compile(name string, def Definition) (*schema, error) {
	if def.Table == "" {
		return nil, wrap(ErrEmptyTable, fmt.Sprintf("mapper %s", name))
	}
	if len(def.Fields) == 0 {
		return nil, wrap(ErrNoFields, fmt.Sprintf("table %s", def.Table))
	}

	s := &schema{
		name:      name,
		index:     make(map[string]int, len(def.Fields)),
		relations: make(map[string]RelationDef, len(def.Relations)),
	}
	s.Table = def.Table
	s.Fields = make([]Field, len(def.Fields))
	for i, f := range def.Fields {
		f = f.normalize()
		if f.IsPrimary() {
			if s.primaryKey != "" {
				return nil, wrap(ErrDuplicatePrimaryKey, fmt.Sprintf("table %s", def.Table))
			}
			s.primaryKey = f.Name
		}
		s.Fields[i] = f
		s.index[f.Name] = i
	}

	s.Relations = append([]RelationDef(nil), def.Relations...)
	for _, rel := range s.Relations {
		if rel.Name == "" || rel.Mapper == "" {
			return nil, fmt.Err("relation without name or mapper in table", def.Table)
		}
		s.relations[rel.Name] = rel
	}
	return s, nil
}

func (s *schema) fieldExists(name string) bool {
	_, ok := s.index[name]
	return ok
}
