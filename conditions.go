package mapper

import (
	"reflect"
	"strconv"
	"strings"
)

// Condition represents a filter for a query.
// It is a sealed value type constructed via helper functions.
type Condition struct {
	field    string
	operator string
	value    any
}

func (c Condition) Field() string    { return c.field }
func (c Condition) Operator() string { return c.operator }
func (c Condition) Value() any       { return c.value }

// Conditions is an ordered set of filters joined with AND.
// Rendering follows slice order.
type Conditions []Condition

// Cond builds a condition from a column spec that may carry a comparison
// operator after a space: Cond("age >", 18), Cond("status", nil).
func Cond(spec string, value any) Condition {
	spec = strings.TrimSpace(spec)
	field, op := spec, "="
	if i := strings.IndexByte(spec, ' '); i >= 0 {
		field = spec[:i]
		if rest := strings.TrimSpace(spec[i+1:]); rest != "" {
			op = rest
		}
	}
	return Condition{field: field, operator: op, value: value}
}

// Eq creates a condition for checking equality.
func Eq(field string, value any) Condition {
	return Condition{field: field, operator: "=", value: value}
}

// Neq creates a condition for checking inequality.
func Neq(field string, value any) Condition {
	return Condition{field: field, operator: "!=", value: value}
}

// Gt creates a condition for checking if a value is greater than another.
func Gt(field string, value any) Condition {
	return Condition{field: field, operator: ">", value: value}
}

// Gte creates a condition for checking if a value is greater than or equal to another.
func Gte(field string, value any) Condition {
	return Condition{field: field, operator: ">=", value: value}
}

// Lt creates a condition for checking if a value is less than another.
func Lt(field string, value any) Condition {
	return Condition{field: field, operator: "<", value: value}
}

// Lte creates a condition for checking if a value is less than or equal to another.
func Lte(field string, value any) Condition {
	return Condition{field: field, operator: "<=", value: value}
}

// Like creates a condition for checking if a value matches a pattern.
func Like(field string, value any) Condition {
	return Condition{field: field, operator: "LIKE", value: value}
}

// In creates a membership condition.
func In(field string, values ...any) Condition {
	return Condition{field: field, operator: "IN", value: values}
}

// IsNull creates a condition matching NULL columns.
func IsNull(field string) Condition {
	return Condition{field: field, operator: "=", value: nil}
}

// SQL renders the conditions as a WHERE body (without the keyword) and the
// named binds it references. Empty conditions render "".
func (cs Conditions) SQL() (string, map[string]any) {
	binds := make(map[string]any)
	if len(cs) == 0 {
		return "", binds
	}
	parts := make([]string, 0, len(cs))
	for i, c := range cs {
		param := strings.ReplaceAll(c.field, ".", "_") + strconv.Itoa(i)

		if list, ok := listValues(c.value); ok {
			negate := c.operator == "!=" || c.operator == "<>" || c.operator == "NOT IN"
			if len(list) == 0 {
				if negate {
					parts = append(parts, "1 = 1")
				} else {
					parts = append(parts, "1 = 0")
				}
				continue
			}
			names := make([]string, len(list))
			for j, v := range list {
				name := param + "_" + strconv.Itoa(j)
				names[j] = ":" + name
				binds[name] = v
			}
			op := " IN ("
			if negate {
				op = " NOT IN ("
			}
			parts = append(parts, c.field+op+strings.Join(names, ", ")+")")
			continue
		}

		if c.value == nil {
			if c.operator == "!=" || c.operator == "<>" {
				parts = append(parts, c.field+" IS NOT NULL")
			} else {
				parts = append(parts, c.field+" IS NULL")
			}
			continue
		}

		parts = append(parts, c.field+" "+c.operator+" :"+param)
		binds[param] = c.value
	}
	return strings.Join(parts, " AND "), binds
}

// listValues reports whether v is a collection of scalars and flattens it.
// []byte is a scalar.
func listValues(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
