package cascata

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// materializer orchestrates one entry-point call. The registry is immutable
// once built and shared across the whole recursion; a nil reader disables
// file-pointer resolution.
type materializer struct {
	opts   *options
	reg    map[reflect.Type]Converter
	reader Reader
}

func newMaterializer(o *options, reader Reader) *materializer {
	return &materializer{opts: o, reg: buildRegistry(o), reader: reader}
}

// materialize builds one instance of t from src. visiting holds the canonical
// source IDs along the current pointer-resolution path; source describes where
// src came from, for provenance. Any field failure aborts the whole frame and
// leaves with this frame appended to the error trail.
func (m *materializer) materialize(ctx context.Context, t reflect.Type, src map[string]any, visiting []string, source string) (reflect.Value, error) {
	out, err := m.fill(ctx, t, src, visiting, source)
	if err != nil {
		ts, _ := Introspect(t)
		name := t.String()
		if ts != nil {
			name = ts.Name
		}
		return reflect.Value{}, withFrame(err, Frame{Type: name, Source: source})
	}
	return out, nil
}

func (m *materializer) fill(ctx context.Context, t reflect.Type, src map[string]any, visiting []string, source string) (reflect.Value, error) {
	ts, err := Introspect(t)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(ts.Type).Elem()
	known := make(map[string]struct{}, len(ts.Fields))
	for _, fs := range ts.Fields {
		known[fs.Key] = struct{}{}
		raw, ok := src[fs.Key]
		if !ok {
			if fs.Required {
				return reflect.Value{}, &Error{
					Code:    CodeRequired,
					Field:   fs.Key,
					Type:    ts.Name,
					Message: "required field missing",
				}
			}
			if fs.Default != nil {
				if err := assign(out.Field(fs.Index), fs.Default, fs); err != nil {
					return reflect.Value{}, err
				}
			}
			continue
		}
		if fs.SubConfig || m.opts.isSubType(baseType(fs.Type)) {
			v, err := m.resolveSub(ctx, fs, raw, visiting, source)
			if err != nil {
				return reflect.Value{}, err
			}
			if v.IsValid() {
				out.Field(fs.Index).Set(v)
			}
			continue
		}
		if conv, registered := m.reg[baseType(fs.Type)]; registered && raw != nil {
			cv, err := conv(raw)
			if err != nil {
				return reflect.Value{}, &Error{
					Code:    CodeConversion,
					Field:   fs.Key,
					Type:    fs.Type.String(),
					Value:   raw,
					Message: "converter failed",
					Cause:   err,
				}
			}
			raw = cv
		}
		if err := assign(out.Field(fs.Index), raw, fs); err != nil {
			return reflect.Value{}, err
		}
	}
	if err := rejectUnknown(src, known, ts.Name); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

// rejectUnknown errors on the first mapping key (in sorted order, for
// determinism) that no field claims.
func rejectUnknown(src map[string]any, known map[string]struct{}, typeName string) error {
	var unknown []string
	for k := range src {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &Error{
		Code:    CodeUnknownKey,
		Field:   unknown[0],
		Type:    typeName,
		Message: "key does not match any field",
	}
}

// baseType unwraps one level of pointer, the shape optional fields declare.
func baseType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// assign sets v into the struct field, converting where the kinds allow it
// (e.g. JSON numbers arrive as float64) and coercing []any / map[string]any
// element-wise into typed slices and maps.
func assign(field reflect.Value, v any, fs FieldSpec) error {
	val, err := coerce(v, field.Type())
	if err != nil {
		return &Error{
			Code:    CodeConversion,
			Field:   fs.Key,
			Type:    fs.Type.String(),
			Value:   v,
			Message: "value does not fit declared type",
			Cause:   err,
		}
	}
	if val.IsValid() {
		field.Set(val)
	}
	return nil
}

func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			return reflect.Zero(t), nil
		default:
			return reflect.Value{}, fmt.Errorf("null value for non-nillable %s", t)
		}
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if t.Kind() == reflect.Pointer {
		ev, err := coerce(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		pv := reflect.New(t.Elem())
		pv.Elem().Set(ev)
		return pv, nil
	}
	switch t.Kind() {
	case reflect.Slice:
		if seq, ok := v.([]any); ok {
			out := reflect.MakeSlice(t, len(seq), len(seq))
			for i, item := range seq {
				ev, err := coerce(item, t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Map:
		if mm, ok := v.(map[string]any); ok && t.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(t, len(mm))
			for k, item := range mm {
				ev, err := coerce(item, t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
			}
			return out, nil
		}
	case reflect.String:
		if rv.Kind() == reflect.String {
			return rv.Convert(t), nil
		}
	default:
		if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
			return coerceNumeric(rv, t)
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

// coerceNumeric converts between numeric representations only when the value
// survives unchanged. Fractional floats do not fit integer fields, negative
// values do not fit unsigned fields, and out-of-range values error instead of
// wrapping or truncating.
func coerceNumeric(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch {
	case isIntKind(t.Kind()):
		n, err := toInt64(rv)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("value %v overflows %s", rv.Interface(), t)
		}
		out.SetInt(n)
	case isUintKind(t.Kind()):
		u, err := toUint64(rv)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("value %v overflows %s", rv.Interface(), t)
		}
		out.SetUint(u)
	default:
		f := toFloat64(rv)
		if out.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("value %v overflows %s", rv.Interface(), t)
		}
		out.SetFloat(f)
	}
	return out, nil
}

func toInt64(rv reflect.Value) (int64, error) {
	switch {
	case isIntKind(rv.Kind()):
		return rv.Int(), nil
	case isUintKind(rv.Kind()):
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	default:
		f := rv.Float()
		if math.Trunc(f) != f {
			return 0, fmt.Errorf("fractional value %v does not fit an integer field", f)
		}
		if f < math.MinInt64 || f >= 1<<63 {
			return 0, fmt.Errorf("value %v overflows int64", f)
		}
		return int64(f), nil
	}
}

func toUint64(rv reflect.Value) (uint64, error) {
	switch {
	case isUintKind(rv.Kind()):
		return rv.Uint(), nil
	case isIntKind(rv.Kind()):
		n := rv.Int()
		if n < 0 {
			return 0, fmt.Errorf("negative value %d does not fit an unsigned field", n)
		}
		return uint64(n), nil
	default:
		f := rv.Float()
		if f < 0 {
			return 0, fmt.Errorf("negative value %v does not fit an unsigned field", f)
		}
		if math.Trunc(f) != f {
			return 0, fmt.Errorf("fractional value %v does not fit an integer field", f)
		}
		if f >= 1<<64 {
			return 0, fmt.Errorf("value %v overflows uint64", f)
		}
		return uint64(f), nil
	}
}

func toFloat64(rv reflect.Value) float64 {
	switch {
	case isIntKind(rv.Kind()):
		return float64(rv.Int())
	case isUintKind(rv.Kind()):
		return float64(rv.Uint())
	default:
		return rv.Float()
	}
}

func isNumeric(k reflect.Kind) bool {
	return isIntKind(k) || isUintKind(k) || isFloatKind(k)
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
