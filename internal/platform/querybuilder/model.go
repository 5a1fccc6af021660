package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row insert from the db tags of model.
func InsertModel(table string, model any) *InsertBuilder {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return &InsertBuilder{table: table, err: fmt.Errorf("insert into %s: %w", table, err)}
	}
	return InsertInto(table).Columns(cols...).Values(vals...)
}

// UpsertModel is InsertModel plus ON CONFLICT (target) DO UPDATE of every
// other column. created_at is never overwritten.
func UpsertModel(table string, model any, target ...string) *InsertBuilder {
	b := InsertModel(table, model)
	if b.err != nil {
		return b
	}

	skip := make(map[string]struct{}, len(target)+1)
	for _, col := range target {
		skip[col] = struct{}{}
	}
	skip["created_at"] = struct{}{}

	update := make([]string, 0, len(b.columns))
	for _, col := range b.columns {
		if _, ok := skip[col]; !ok {
			update = append(update, col)
		}
	}
	return b.OnConflict(target...).DoUpdate(update...)
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model %s has no db columns", typ.Name())
	}
	return cols, vals, nil
}
