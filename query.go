package mapper

import (
	"strconv"
	"strings"
)

// Order represents a sort order for a query.
// It is a sealed value type constructed via Asc() and Desc().
type Order struct {
	column string
	dir    string
}

func (o Order) Column() string { return o.column }
func (o Order) Dir() string    { return o.dir }

// Asc sorts by column ascending.
func Asc(column string) Order { return Order{column: column, dir: "ASC"} }

// Desc sorts by column descending.
func Desc(column string) Order { return Order{column: column, dir: "DESC"} }

// Query is a SELECT being built against a single table.
// Where and OrderBy append, so a query can be extended before it runs.
type Query struct {
	Table      string
	Conditions Conditions
	OrderBy    []Order
	Limit      int
	Offset     int
}

// Where appends conditions.
func (q *Query) Where(conds ...Condition) *Query {
	q.Conditions = append(q.Conditions, conds...)
	return q
}

// Order appends sort columns.
func (q *Query) Order(orders ...Order) *Query {
	q.OrderBy = append(q.OrderBy, orders...)
	return q
}

// SetLimit sets the limit and offset. Zero means unbounded.
func (q *Query) SetLimit(limit, offset int) *Query {
	q.Limit = limit
	q.Offset = offset
	return q
}

// SQL renders the query and the binds it references.
func (q *Query) SQL() (string, map[string]any) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(q.Table)

	where, binds := q.Conditions.SQL()
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	if len(q.OrderBy) > 0 {
		parts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			dir := strings.ToUpper(o.dir)
			if dir != "DESC" {
				dir = "ASC"
			}
			parts[i] = o.column + " " + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
		if q.Offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(q.Offset))
		}
	}
	return b.String(), binds
}
