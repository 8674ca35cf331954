//go:build !wasm

// Package mapgen generates mapper.Definition values from tagged Go structs.
//
// Every exported field of a supported type becomes a column named in snake
// case. The db tag adds constraints: pk, unique, not_null, required,
// autoincrement and ref=table[:column]. A []Child field declares a HasMany
// relation and a *Child field a HasOne relation, provided Child carries a
// ref= field pointing back at the parent table.
package mapgen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"github.com/tinywasm/fmt"
	"github.com/tinywasm/mapper"
)

type FieldInfo struct {
	Name        string
	ColumnName  string
	Type        mapper.FieldType
	Constraints mapper.Constraint
	Ref         string
	RefColumn   string
	IsPK        bool
	GoType      string
}

// LinkInfo records a slice-of-struct or pointer-to-struct field. It is not
// a column; ResolveRelations turns it into a relation.
type LinkInfo struct {
	Name     string // e.g. "Comments"
	ElemType string // e.g. "Comment"
	One      bool   // pointer field: at most one related record
}

type StructInfo struct {
	Name              string
	TableName         string
	PackageName       string
	Fields            []FieldInfo
	TableNameDeclared bool
	SourceFile        string
	Links             []LinkInfo     // populated by ParseStruct
	Relations         []RelationInfo // populated by ResolveRelations
}

// PrimaryKey returns the primary key column, or "".
func (s StructInfo) PrimaryKey() string {
	for _, f := range s.Fields {
		if f.IsPK {
			return f.ColumnName
		}
	}
	return ""
}

// detectTableName scans the AST for func (X) TableName() string on structName.
// Returns the literal return value if found, "" otherwise.
func detectTableName(node *ast.File, structName string) string {
	for _, decl := range node.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok || funcDecl.Recv == nil || len(funcDecl.Recv.List) == 0 {
			continue
		}
		if funcDecl.Name.Name != "TableName" {
			continue
		}
		recvName := ""
		switch recv := funcDecl.Recv.List[0].Type.(type) {
		case *ast.Ident:
			recvName = recv.Name
		case *ast.StarExpr:
			if ident, ok := recv.X.(*ast.Ident); ok {
				recvName = ident.Name
			}
		}
		if recvName != structName || funcDecl.Body == nil || len(funcDecl.Body.List) != 1 {
			continue
		}
		if ret, ok := funcDecl.Body.List[0].(*ast.ReturnStmt); ok && len(ret.Results) == 1 {
			if lit, ok := ret.Results[0].(*ast.BasicLit); ok {
				return fmt.Convert(lit.Value).TrimPrefix(`"`).TrimSuffix(`"`).String()
			}
		}
	}
	return ""
}

// goFieldType maps a Go type expression to its name, e.g. "int64",
// "time.Time" or "[]byte".
func goFieldType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return pkg.Name + "." + t.Sel.Name
		}
	case *ast.ArrayType:
		if elt, ok := t.Elt.(*ast.Ident); ok && elt.Name == "byte" {
			return "[]byte"
		}
	}
	return ""
}

// linkFor reports whether a field type is []Struct or *Struct.
func linkFor(name string, expr ast.Expr) (LinkInfo, bool) {
	switch t := expr.(type) {
	case *ast.ArrayType:
		if elt, ok := t.Elt.(*ast.Ident); ok && elt.Name != "byte" {
			return LinkInfo{Name: name, ElemType: elt.Name}, true
		}
		if star, ok := t.Elt.(*ast.StarExpr); ok {
			if elt, ok := star.X.(*ast.Ident); ok {
				return LinkInfo{Name: name, ElemType: elt.Name}, true
			}
		}
	case *ast.StarExpr:
		if elt, ok := t.X.(*ast.Ident); ok {
			return LinkInfo{Name: name, ElemType: elt.Name, One: true}, true
		}
	}
	return LinkInfo{}, false
}

func dbTagOf(field *ast.Field) string {
	if field.Tag == nil {
		return ""
	}
	tagVal := fmt.Convert(field.Tag.Value).TrimPrefix("`").TrimSuffix("`").String()
	for _, p := range fmt.Convert(tagVal).Split(" ") {
		if fmt.HasPrefix(p, "db:\"") {
			return fmt.Convert(p).TrimPrefix(`db:"`).TrimSuffix(`"`).String()
		}
	}
	return ""
}

// ParseStruct parses a single struct from a Go file and returns its metadata.
func (g *Generator) ParseStruct(structName string, goFile string) (StructInfo, error) {
	if structName == "" {
		return StructInfo{}, fmt.Err("Please provide a struct name")
	}
	if goFile == "" {
		return StructInfo{}, fmt.Err("goFile path cannot be empty")
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
	if err != nil {
		return StructInfo{}, fmt.Err(err, "Failed to parse file")
	}

	var target *ast.StructType
	ast.Inspect(node, func(n ast.Node) bool {
		if typeSpec, ok := n.(*ast.TypeSpec); ok && typeSpec.Name.Name == structName {
			if structType, ok := typeSpec.Type.(*ast.StructType); ok {
				target = structType
				return false
			}
		}
		return target == nil
	})
	if target == nil {
		return StructInfo{}, fmt.Err("Struct not found in file")
	}

	tableName := detectTableName(node, structName)
	declared := tableName != ""
	if !declared {
		tableName = fmt.Convert(structName + "s").SnakeLow().String()
	}

	info := StructInfo{
		Name:              structName,
		TableName:         tableName,
		PackageName:       node.Name.Name,
		TableNameDeclared: declared,
	}

	pkFound := false
	for _, field := range target.Fields.List {
		if len(field.Names) == 0 {
			continue // embedded
		}
		fieldName := field.Names[0].Name
		if !ast.IsExported(fieldName) {
			continue
		}
		dbTag := dbTagOf(field)
		if dbTag == "-" {
			continue
		}

		if link, ok := linkFor(fieldName, field.Type); ok {
			info.Links = append(info.Links, link)
			continue
		}

		typeStr := goFieldType(field.Type)
		var fieldType mapper.FieldType
		switch typeStr {
		case "string":
			fieldType = mapper.TypeText
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fieldType = mapper.TypeInt64
		case "float32", "float64":
			fieldType = mapper.TypeFloat64
		case "bool":
			fieldType = mapper.TypeBool
		case "[]byte":
			fieldType = mapper.TypeBlob
		case "time.Time":
			fieldType = mapper.TypeDateTime
		default:
			g.log(fmt.Sprintf("Warning: unsupported type %s for field %s.%s; skipping. Add db:\"-\" to suppress.", typeStr, structName, fieldName))
			continue
		}

		colName := fmt.Convert(fieldName).SnakeLow().String()
		isID, isPK := fmt.IDorPrimaryKey(tableName, fieldName)

		constraints := mapper.ConstraintNone
		var ref, refCol string

		fieldIsPK := false
		if (isID || isPK) && !pkFound {
			fieldIsPK = true
			pkFound = true
			constraints |= mapper.ConstraintPK
		}

		if dbTag != "" {
			for _, p := range fmt.Convert(dbTag).Split(",") {
				switch {
				case p == "pk":
					if !fieldIsPK {
						if pkFound {
							return StructInfo{}, fmt.Err("more than one primary key in", structName)
						}
						constraints |= mapper.ConstraintPK
						fieldIsPK = true
						pkFound = true
					}
				case p == "unique":
					constraints |= mapper.ConstraintUnique
				case p == "not_null":
					constraints |= mapper.ConstraintNotNull
				case p == "required":
					constraints |= mapper.ConstraintRequired
				case p == "autoincrement":
					if fieldType != mapper.TypeInt64 {
						return StructInfo{}, fmt.Err("autoincrement requires an integer field:", structName+"."+fieldName)
					}
					constraints |= mapper.ConstraintAutoIncrement
				case fmt.HasPrefix(p, "ref="):
					refParts := fmt.Convert(fmt.Convert(p).TrimPrefix("ref=").String()).Split(":")
					ref = refParts[0]
					if len(refParts) > 1 {
						refCol = refParts[1]
					}
				}
			}
		}

		info.Fields = append(info.Fields, FieldInfo{
			Name:        fieldName,
			ColumnName:  colName,
			Type:        fieldType,
			Constraints: constraints,
			Ref:         ref,
			RefColumn:   refCol,
			IsPK:        fieldIsPK,
			GoType:      typeStr,
		})
	}

	return info, nil
}

// GenerateForStruct parses one struct and writes its definition next to goFile.
func (g *Generator) GenerateForStruct(structName string, goFile string) error {
	info, err := g.ParseStruct(structName, goFile)
	if err != nil {
		return err
	}
	if len(info.Fields) == 0 {
		return nil
	}
	return g.GenerateForFile([]StructInfo{info}, goFile)
}

var typeNames = map[mapper.FieldType]string{
	mapper.TypeText:     "mapper.TypeText",
	mapper.TypeInt64:    "mapper.TypeInt64",
	mapper.TypeFloat64:  "mapper.TypeFloat64",
	mapper.TypeBool:     "mapper.TypeBool",
	mapper.TypeBlob:     "mapper.TypeBlob",
	mapper.TypeDate:     "mapper.TypeDate",
	mapper.TypeDateTime: "mapper.TypeDateTime",
}

func constraintExpr(c mapper.Constraint) string {
	if c == mapper.ConstraintNone {
		return "mapper.ConstraintNone"
	}
	var parts []string
	for _, flag := range []struct {
		bit  mapper.Constraint
		name string
	}{
		{mapper.ConstraintPK, "mapper.ConstraintPK"},
		{mapper.ConstraintUnique, "mapper.ConstraintUnique"},
		{mapper.ConstraintNotNull, "mapper.ConstraintNotNull"},
		{mapper.ConstraintAutoIncrement, "mapper.ConstraintAutoIncrement"},
		{mapper.ConstraintRequired, "mapper.ConstraintRequired"},
	} {
		if c&flag.bit != 0 {
			parts = append(parts, flag.name)
		}
	}
	return fmt.Convert(parts).Join(" | ").String()
}

// GenerateForFile writes the definitions of all infos into <source>_mapper.go.
func (g *Generator) GenerateForFile(infos []StructInfo, sourceFile string) error {
	if len(infos) == 0 {
		return nil
	}
	buf := fmt.Convert()

	buf.Write("// Code generated by mapgen; DO NOT EDIT.\n")
	buf.Write(fmt.Sprintf("package %s\n\n", infos[0].PackageName))
	buf.Write("import \"github.com/tinywasm/mapper\"\n\n")

	for _, info := range infos {
		if !info.TableNameDeclared {
			buf.Write(fmt.Sprintf("func (m *%s) TableName() string {\n", info.Name))
			buf.Write(fmt.Sprintf("\treturn \"%s\"\n", info.TableName))
			buf.Write("}\n\n")
		}

		buf.Write(fmt.Sprintf("// %sDefinition maps %s to the %s table.\n", info.Name, info.Name, info.TableName))
		buf.Write(fmt.Sprintf("var %sDefinition = mapper.Definition{\n", info.Name))
		buf.Write(fmt.Sprintf("\tTable: \"%s\",\n", info.TableName))
		buf.Write("\tFields: []mapper.Field{\n")
		for _, f := range info.Fields {
			buf.Write(fmt.Sprintf("\t\t{Name: \"%s\", Type: %s, Constraints: %s", f.ColumnName, typeNames[f.Type], constraintExpr(f.Constraints)))
			if f.Ref != "" {
				buf.Write(fmt.Sprintf(", Ref: \"%s\"", f.Ref))
			}
			if f.RefColumn != "" {
				buf.Write(fmt.Sprintf(", RefColumn: \"%s\"", f.RefColumn))
			}
			buf.Write("},\n")
		}
		buf.Write("\t},\n")
		if len(info.Relations) > 0 {
			buf.Write("\tRelations: []mapper.RelationDef{\n")
			for _, rel := range info.Relations {
				buf.Write(fmt.Sprintf(
					"\t\t{Name: \"%s\", Kind: mapper.%s, Mapper: \"%s\", ForeignKeys: []mapper.ForeignKey{{Local: \"%s\", Remote: \"%s\"}}},\n",
					rel.Name, rel.Kind.String(), rel.ChildTable, rel.LocalColumn, rel.FKColumn,
				))
			}
			buf.Write("\t},\n")
		}
		buf.Write("}\n\n")

		// Column name descriptors
		buf.Write(fmt.Sprintf("var %sMeta = struct {\n", info.Name))
		buf.Write("\tTableName string\n")
		for _, f := range info.Fields {
			buf.Write(fmt.Sprintf("\t%s string\n", f.Name))
		}
		buf.Write("}{\n")
		buf.Write(fmt.Sprintf("\tTableName: \"%s\",\n", info.TableName))
		for _, f := range info.Fields {
			buf.Write(fmt.Sprintf("\t%s: \"%s\",\n", f.Name, f.ColumnName))
		}
		buf.Write("}\n\n")

		buf.Write(fmt.Sprintf("// Register%s registers %sDefinition under \"%s\".\n", info.Name, info.Name, info.TableName))
		buf.Write(fmt.Sprintf("func Register%s(reg *mapper.Registry) error {\n", info.Name))
		buf.Write(fmt.Sprintf("\treturn reg.Register(\"%s\", %sDefinition)\n", info.TableName, info.Name))
		buf.Write("}\n\n")

		buf.Write("// Record copies m into a new record; every column counts as modified.\n")
		buf.Write(fmt.Sprintf("func (m *%s) Record() *mapper.Record {\n", info.Name))
		buf.Write("\trec := mapper.NewRecord()\n")
		for _, f := range info.Fields {
			buf.Write(fmt.Sprintf("\trec.Set(\"%s\", m.%s)\n", f.ColumnName, f.Name))
		}
		buf.Write("\treturn rec\n")
		buf.Write("}\n\n")
	}

	outName := fmt.Convert(sourceFile).TrimSuffix(".go").String() + "_mapper.go"
	return os.WriteFile(outName, buf.Bytes(), 0644)
}

// collectAllStructs walks the root directory and parses every struct
// declared in model.go or models.go files.
func (g *Generator) collectAllStructs() (map[string]StructInfo, []string, []string, error) {
	all := make(map[string]StructInfo)
	var structOrder, fileOrder []string
	fileSeen := make(map[string]bool)

	err := filepath.Walk(g.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			switch info.Name() {
			case "vendor", ".git", "testdata":
				return filepath.SkipDir
			}
			return nil
		}
		if name := info.Name(); name != "model.go" && name != "models.go" {
			return nil
		}

		node, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ParseComments)
		if err != nil {
			g.log(fmt.Sprintf("Skipping unparseable %s: %v", path, err))
			return nil
		}
		for _, decl := range node.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				if _, ok := typeSpec.Type.(*ast.StructType); !ok {
					continue
				}
				st, err := g.ParseStruct(typeSpec.Name.Name, path)
				if err != nil {
					g.log(fmt.Sprintf("Skipping %s in %s: %v", typeSpec.Name.Name, path, err))
					continue
				}
				if len(st.Fields) == 0 {
					g.log(fmt.Sprintf("Warning: %s has no mappable fields; skipping", typeSpec.Name.Name))
					continue
				}
				st.SourceFile = path
				all[st.Name] = st
				structOrder = append(structOrder, st.Name)
				if !fileSeen[path] {
					fileSeen[path] = true
					fileOrder = append(fileOrder, path)
				}
			}
		}
		return nil
	})

	return all, structOrder, fileOrder, err
}

// generateAll writes one output file per source file.
func (g *Generator) generateAll(all map[string]StructInfo, structOrder []string, fileOrder []string) error {
	byFile := make(map[string][]StructInfo)
	for _, name := range structOrder {
		info := all[name]
		byFile[info.SourceFile] = append(byFile[info.SourceFile], info)
	}
	for _, sourceFile := range fileOrder {
		if err := g.GenerateForFile(byFile[sourceFile], sourceFile); err != nil {
			return fmt.Err(err, "writing output for", sourceFile)
		}
	}
	return nil
}

// Run scans the root directory, resolves relations across all model files
// and writes the generated definitions.
func (g *Generator) Run() error {
	all, structOrder, fileOrder, err := g.collectAllStructs()
	if err != nil {
		return fmt.Err(err, "error walking directory")
	}
	if len(all) == 0 {
		return fmt.Err("no models found")
	}
	g.ResolveRelations(all)
	return g.generateAll(all, structOrder, fileOrder)
}
