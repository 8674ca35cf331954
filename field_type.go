package mapper

// FieldType represents the abstract storage type of a mapper field.
type FieldType int

const (
	TypeText FieldType = iota
	TypeInt64
	TypeFloat64
	TypeBool
	TypeBlob
	TypeDate
	TypeDateTime
)

var fieldTypeNames = map[FieldType]string{
	TypeText:     "text",
	TypeInt64:    "int",
	TypeFloat64:  "float",
	TypeBool:     "bool",
	TypeBlob:     "blob",
	TypeDate:     "date",
	TypeDateTime: "datetime",
}

func (t FieldType) String() string {
	if s, ok := fieldTypeNames[t]; ok {
		return s
	}
	return "text"
}

// ParseFieldType maps a type tag ("int", "string", "datetime", ...) to a FieldType.
// Unknown tags map to TypeText.
func ParseFieldType(tag string) FieldType {
	switch tag {
	case "int", "integer", "int64", "bigint":
		return TypeInt64
	case "float", "float64", "double", "decimal":
		return TypeFloat64
	case "bool", "boolean":
		return TypeBool
	case "blob", "binary", "bytes":
		return TypeBlob
	case "date":
		return TypeDate
	case "datetime", "timestamp":
		return TypeDateTime
	}
	return TypeText
}

// Constraint holds column flags as bits; the zero value means none.
type Constraint int

const (
	ConstraintNone Constraint = 0
	ConstraintPK   Constraint = 1 << (iota - 1)
	ConstraintUnique
	ConstraintNotNull
	ConstraintAutoIncrement
	ConstraintRequired // checked by Validate, not by the database
)

// Field describes a single column in a mapper's table.
// Ref is informational for adapters that emit FOREIGN KEY clauses.
type Field struct {
	Name          string     `yaml:"name"`
	Type          FieldType  `yaml:"-"`
	TypeTag       string     `yaml:"type"`
	Constraints   Constraint `yaml:"-"`
	Primary       bool       `yaml:"primary"`
	Required      bool       `yaml:"required"`
	Unique        bool       `yaml:"unique"`
	NotNull       bool       `yaml:"not_null"`
	AutoIncrement bool       `yaml:"autoincrement"`
	Ref           string     `yaml:"ref,omitempty"`        // FK: target table name. Empty = no FK.
	RefColumn     string     `yaml:"ref_column,omitempty"` // FK: target column.
}

// IsPrimary reports whether the field carries the primary flag.
func (f Field) IsPrimary() bool { return f.Primary || f.Constraints&ConstraintPK != 0 }

// IsRequired reports whether the field must hold a non-empty value on save.
func (f Field) IsRequired() bool { return f.Required || f.Constraints&ConstraintRequired != 0 }

// normalize folds the yaml-friendly flags into Type and Constraints, then
// mirrors Constraints back into the flags.
func (f Field) normalize() Field {
	if f.TypeTag != "" && f.Type == TypeText {
		f.Type = ParseFieldType(f.TypeTag)
	}
	for _, flag := range []struct {
		set bool
		c   Constraint
	}{
		{f.Primary, ConstraintPK},
		{f.Required, ConstraintRequired},
		{f.Unique, ConstraintUnique},
		{f.NotNull, ConstraintNotNull},
		{f.AutoIncrement, ConstraintAutoIncrement},
	} {
		if flag.set {
			f.Constraints |= flag.c
		}
	}
	f.Primary = f.Constraints&ConstraintPK != 0
	f.Required = f.Constraints&ConstraintRequired != 0
	f.Unique = f.Constraints&ConstraintUnique != 0
	f.NotNull = f.Constraints&ConstraintNotNull != 0
	f.AutoIncrement = f.Constraints&ConstraintAutoIncrement != 0
	return f
}
