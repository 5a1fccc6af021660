// Package querybuilder renders the small set of Postgres statements the
// repositories need: filtered selects, multi-row inserts with ON CONFLICT
// upserts, and deletes.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

type Condition interface {
	appendSQL(buf *strings.Builder, args *[]any)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString(c.column)
	buf.WriteString(" = ")
	buf.WriteString(bind(args, c.value))
}

type isNullCondition struct {
	column string
}

func IsNull(column string) Condition {
	return isNullCondition{column: column}
}

func (c isNullCondition) appendSQL(buf *strings.Builder, _ *[]any) {
	buf.WriteString(c.column)
	buf.WriteString(" IS NULL")
}

type betweenCondition struct {
	column string
	low    any
	high   any
}

// Between matches column values in the closed range [low, high].
func Between(column string, low, high any) Condition {
	return betweenCondition{column: column, low: low, high: high}
}

func (c betweenCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString(c.column)
	buf.WriteString(" BETWEEN ")
	buf.WriteString(bind(args, c.low))
	buf.WriteString(" AND ")
	buf.WriteString(bind(args, c.high))
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var buf strings.Builder
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)

	args := make([]any, 0, len(b.where))
	appendWhereClause(&buf, b.where, &args)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		buf.WriteString(" LIMIT ")
		buf.WriteString(strconv.Itoa(b.limit))
	}

	return buf.String(), args, nil
}

// InsertBuilder renders INSERT ... VALUES with one or more rows. Errors raised
// while configuring the builder surface from ToSQL.
type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	upsert  *conflictClause
	err     error
}

type conflictClause struct {
	target  []string
	update  []string
	touch   []string
	nothing bool
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// OnConflict names the unique columns an upsert collides on.
func (b *InsertBuilder) OnConflict(target ...string) *InsertBuilder {
	b.upsert = &conflictClause{target: append([]string(nil), target...)}
	return b
}

// DoUpdate overwrites the given columns from the rejected row.
func (b *InsertBuilder) DoUpdate(columns ...string) *InsertBuilder {
	if b.upsert == nil {
		b.err = fmt.Errorf("DoUpdate requires OnConflict")
		return b
	}
	b.upsert.update = append(b.upsert.update, columns...)
	return b
}

// Touch sets the given columns to NOW() when the conflict branch runs.
func (b *InsertBuilder) Touch(columns ...string) *InsertBuilder {
	if b.upsert == nil {
		b.err = fmt.Errorf("Touch requires OnConflict")
		return b
	}
	b.upsert.touch = append(b.upsert.touch, columns...)
	return b
}

func (b *InsertBuilder) DoNothing() *InsertBuilder {
	if b.upsert == nil {
		b.err = fmt.Errorf("DoNothing requires OnConflict")
		return b
	}
	b.upsert.nothing = true
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES ")

	args := make([]any, 0, len(b.rows)*len(b.columns))
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(bind(&args, value))
		}
		buf.WriteString(")")
	}

	if b.upsert != nil {
		if err := b.upsert.appendSQL(&buf); err != nil {
			return "", nil, fmt.Errorf("insert into %s: %w", b.table, err)
		}
	}

	return buf.String(), args, nil
}

func (c *conflictClause) appendSQL(buf *strings.Builder) error {
	if len(c.target) == 0 {
		return fmt.Errorf("conflict target is required")
	}
	buf.WriteString(" ON CONFLICT (")
	buf.WriteString(strings.Join(c.target, ", "))
	buf.WriteString(")")

	if c.nothing {
		if len(c.update) > 0 || len(c.touch) > 0 {
			return fmt.Errorf("conflict clause cannot both update and do nothing")
		}
		buf.WriteString(" DO NOTHING")
		return nil
	}
	if len(c.update) == 0 && len(c.touch) == 0 {
		return fmt.Errorf("conflict clause needs DoUpdate, Touch or DoNothing")
	}

	sets := make([]string, 0, len(c.update)+len(c.touch))
	for _, col := range c.update {
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	for _, col := range c.touch {
		sets = append(sets, col+" = NOW()")
	}
	buf.WriteString(" DO UPDATE SET ")
	buf.WriteString(strings.Join(sets, ", "))
	return nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses to render an unfiltered delete.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete from %s needs a where clause", b.table)
	}

	var buf strings.Builder
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)
	args := make([]any, 0, len(b.where))
	appendWhereClause(&buf, b.where, &args)
	return buf.String(), args, nil
}

func appendWhereClause(buf *strings.Builder, conditions []Condition, args *[]any) {
	if len(conditions) == 0 {
		return
	}
	buf.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		c.appendSQL(buf, args)
	}
}

// bind appends value to args and returns its positional placeholder.
func bind(args *[]any, value any) string {
	*args = append(*args, value)
	return "$" + strconv.Itoa(len(*args))
}
