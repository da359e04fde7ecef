package cascata

import (
	"context"
	"net/url"
	"path/filepath"
	"reflect"
)

// resolveSub materializes a nested-config field. The raw value is either
// inline sub-config data (a mapping), a pointer to another source (a string,
// only when a reader is present), an already-built instance, or nil for an
// optional pointer field.
func (m *materializer) resolveSub(ctx context.Context, fs FieldSpec, raw any, visiting []string, parentSource string) (reflect.Value, error) {
	elem := baseType(fs.Type)
	if raw != nil && reflect.TypeOf(raw).AssignableTo(fs.Type) {
		return reflect.ValueOf(raw), nil
	}
	if raw != nil && reflect.TypeOf(raw) == elem {
		return wrapPointer(reflect.ValueOf(raw), fs.Type), nil
	}
	switch v := raw.(type) {
	case map[string]any:
		nv, err := m.materialize(ctx, elem, v, visiting, parentSource)
		if err != nil {
			return reflect.Value{}, err
		}
		return wrapPointer(nv, fs.Type), nil
	case string:
		if m.reader == nil {
			return reflect.Value{}, &Error{
				Code:    CodeConversion,
				Field:   fs.Key,
				Type:    elem.String(),
				Value:   v,
				Message: "no reader in scope, sub-config cannot follow a source path",
			}
		}
		nv, err := m.fromPointer(ctx, elem, v, visiting)
		if err != nil {
			return reflect.Value{}, err
		}
		return wrapPointer(nv, fs.Type), nil
	case nil:
		if fs.Type.Kind() == reflect.Pointer {
			return reflect.Zero(fs.Type), nil
		}
		return reflect.Value{}, &Error{
			Code:    CodeConversion,
			Field:   fs.Key,
			Type:    elem.String(),
			Message: "sub-config value is null",
		}
	default:
		return reflect.Value{}, &Error{
			Code:    CodeConversion,
			Field:   fs.Key,
			Type:    elem.String(),
			Value:   raw,
			Message: "sub-config value must be a mapping or a source path",
		}
	}
}

// fromPointer follows a file pointer: cycle-check the canonical source, read
// it, and recurse. The visiting set grows by copy, so membership is scoped to
// this resolution attempt on every exit path.
func (m *materializer) fromPointer(ctx context.Context, elem reflect.Type, source string, visiting []string) (reflect.Value, error) {
	id := canonicalSource(source)
	for _, seen := range visiting {
		if seen == id {
			return reflect.Value{}, withFrame(&Error{
				Code:    CodeCycle,
				Type:    elem.Name(),
				Value:   source,
				Chain:   append(append([]string{}, visiting...), id),
				Message: "cyclic source reference",
			}, Frame{Type: elem.Name(), Source: source})
		}
	}
	next := make([]string, 0, len(visiting)+1)
	next = append(next, visiting...)
	next = append(next, id)
	raw, err := m.reader(ctx, source)
	if err != nil {
		return reflect.Value{}, withFrame(&Error{
			Code:    CodeSourceRead,
			Type:    elem.Name(),
			Value:   source,
			Message: "reading source failed",
			Cause:   err,
		}, Frame{Type: elem.Name(), Source: source})
	}
	return m.materialize(ctx, elem, raw, next, source)
}

func wrapPointer(v reflect.Value, declared reflect.Type) reflect.Value {
	if declared.Kind() != reflect.Pointer || v.Type().Kind() == reflect.Pointer {
		return v
	}
	pv := reflect.New(v.Type())
	pv.Elem().Set(v)
	return pv
}

// canonicalSource normalizes a source identifier for cycle membership. URLs
// (anything with a scheme) are kept verbatim; plain paths are made absolute.
func canonicalSource(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		return source
	}
	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}
	return filepath.Clean(source)
}
