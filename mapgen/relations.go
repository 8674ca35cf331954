//go:build !wasm

package mapgen

import (
	"sort"

	"github.com/tinywasm/fmt"
	"github.com/tinywasm/mapper"
)

// RelationInfo is one relation declared on the parent definition.
type RelationInfo struct {
	Name        string // record field, e.g. "comments"
	Kind        mapper.RelationKind
	ChildStruct string // e.g. "Comment"
	ChildTable  string // mapper identifier of the child, e.g. "comments"
	LocalColumn string // parent key, e.g. "id"
	FKColumn    string // child column, e.g. "post_id"
}

// ResolveRelations matches every slice or pointer field of a parent struct
// with the child field whose ref= tag points at the parent table, and
// records the relation on the parent.
func (g *Generator) ResolveRelations(all map[string]StructInfo) {
	// Sorted for deterministic output.
	var parentNames []string
	for name := range all {
		parentNames = append(parentNames, name)
	}
	sort.Strings(parentNames)

	for _, parentName := range parentNames {
		parent := all[parentName]
		parent.Relations = nil
		for _, link := range parent.Links {
			child, ok := all[link.ElemType]
			if !ok {
				g.log(fmt.Sprintf("Warning: relation field %s.%s points to unknown struct %s; skipping", parentName, link.Name, link.ElemType))
				continue
			}

			fk := findFKField(child, parent.TableName)
			if fk == nil {
				g.log(fmt.Sprintf("Warning: no FK found in child %s pointing to parent table %s (from %s.%s); skipping relation", link.ElemType, parent.TableName, parentName, link.Name))
				continue
			}

			local := fk.RefColumn
			if local == "" {
				local = parent.PrimaryKey()
			}
			if local == "" {
				g.log(fmt.Sprintf("Warning: parent %s has no primary key for relation %s; skipping", parentName, link.Name))
				continue
			}

			kind := mapper.HasMany
			if link.One {
				kind = mapper.HasOne
			}
			parent.Relations = append(parent.Relations, RelationInfo{
				Name:        fmt.Convert(link.Name).SnakeLow().String(),
				Kind:        kind,
				ChildStruct: child.Name,
				ChildTable:  child.TableName,
				LocalColumn: local,
				FKColumn:    fk.ColumnName,
			})
		}
		all[parentName] = parent
	}
}

// findFKField returns the first FieldInfo in child whose Ref matches parentTable,
// or nil if none found.
func findFKField(child StructInfo, parentTable string) *FieldInfo {
	for _, f := range child.Fields {
		if f.Ref == parentTable {
			return &f
		}
	}
	return nil
}
