package postgres

import (
	"reflect"
	"sync"
)

// columnMeta is the cached "db" tag layout of one struct type.
type columnMeta struct {
	// fields are tagged fields of the struct itself
	fields []taggedField
	// embedded are indices of anonymous struct fields, walked recursively
	embedded []int
}

type taggedField struct {
	index  int
	column string
}

var columnCache sync.Map // map[reflect.Type]*columnMeta

func metaFor(t reflect.Type) *columnMeta {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.(*columnMeta)
	}

	m := &columnMeta{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				m.embedded = append(m.embedded, i)
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			m.fields = append(m.fields, taggedField{index: i, column: tag})
		}
	}

	actual, _ := columnCache.LoadOrStore(t, m)
	return actual.(*columnMeta)
}

// ExtractDBColumns lists the "db" columns of T in declaration order, embedded
// structs (entity.Catalog, entity.Document) first where they are declared.
//
//	cols := ExtractDBColumns[customer.Customer]()
//	// ["id", "deletion_mark", "version", "attributes", "code", "name", "name_ar", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	m := metaFor(t)
	var cols []string
	next := 0
	for i := 0; i < t.NumField(); i++ {
		if next < len(m.fields) && m.fields[next].index == i {
			cols = append(cols, m.fields[next].column)
			next++
			continue
		}
		if t.Field(i).Anonymous {
			cols = append(cols, columnsOf(t.Field(i).Type)...)
		}
	}
	return cols
}

// StructToMap converts a struct to column values using "db" tags. Fields
// without a tag or tagged "-" (child tables, computed values) are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	m := metaFor(rv.Type())
	res := make(map[string]any, len(m.fields)+8)
	collect(rv, m, res)
	return res
}

func collect(rv reflect.Value, m *columnMeta, res map[string]any) {
	for _, f := range m.fields {
		res[f.column] = rv.Field(f.index).Interface()
	}
	for _, idx := range m.embedded {
		ev := rv.Field(idx)
		for ev.Kind() == reflect.Pointer {
			if ev.IsNil() {
				break
			}
			ev = ev.Elem()
		}
		if ev.Kind() == reflect.Struct {
			collect(ev, metaFor(ev.Type()), res)
		}
	}
}
