package metadata

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"workshop/internal/core/entity"
)

var (
	uuidType       = reflect.TypeOf(uuid.UUID{})
	decimalType    = reflect.TypeOf(decimal.Decimal{})
	timeType       = reflect.TypeOf(time.Time{})
	attributesType = reflect.TypeOf(entity.Attributes{})
)

type decimaler interface {
	Decimal() decimal.Decimal
}

// ToValues converts an entity to the map seen by rule expressions, keyed by
// JSON field name. Embedded structs are flattened and custom attributes are
// merged in. IDs become strings, decimals float64, empty values nil.
func ToValues(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{}
		}
		rv = rv.Elem()
	}
	out := make(map[string]any)
	if rv.Kind() != reflect.Struct {
		return out
	}
	var attrs entity.Attributes
	structValues(rv, out, &attrs)
	for k, a := range attrs.Plain() {
		if _, taken := out[k]; !taken {
			out[k] = a
		}
	}
	return out
}

func structValues(rv reflect.Value, out map[string]any, attrs *entity.Attributes) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := rv.Field(i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			structValues(fv, out, attrs)
			continue
		}
		if f.Type == attributesType {
			*attrs = fv.Interface().(entity.Attributes)
			continue
		}

		name := jsonName(f)
		if name == "-" {
			continue
		}
		out[name] = plain(fv)
	}
}

func plain(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Type() {
	case uuidType:
		u := v.Interface().(uuid.UUID)
		if u == uuid.Nil {
			return nil
		}
		return u.String()
	case decimalType:
		return v.Interface().(decimal.Decimal).InexactFloat64()
	case timeType:
		ts := v.Interface().(time.Time)
		if ts.IsZero() {
			return nil
		}
		return ts
	}
	if v.CanInterface() {
		if d, ok := v.Interface().(decimaler); ok {
			return d.Decimal().InexactFloat64()
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Slice:
		list := make([]any, v.Len())
		for i := range list {
			elem := v.Index(i)
			for elem.Kind() == reflect.Pointer && !elem.IsNil() {
				elem = elem.Elem()
			}
			if elem.Kind() == reflect.Struct && elem.Type() != timeType && elem.Type() != decimalType {
				m := make(map[string]any)
				var ignored entity.Attributes
				structValues(elem, m, &ignored)
				list[i] = m
				continue
			}
			list[i] = plain(elem)
		}
		return list
	case reflect.Struct:
		m := make(map[string]any)
		var ignored entity.Attributes
		structValues(v, m, &ignored)
		return m
	}
	return v.Interface()
}
