package cascata

import (
	"context"
	"reflect"
	"strings"

	jsonsrc "github.com/cascata/cascata/source/json"
	tomlsrc "github.com/cascata/cascata/source/toml"
	yamlsrc "github.com/cascata/cascata/source/yaml"
)

// sourceMap describes the provenance of a mapping handed in directly.
const sourceMap = "<map>"

// FromMap materializes T from a single raw mapping. There is no file context,
// so sub-config fields must hold inline mappings; a pointer string there is a
// type mismatch.
func FromMap[T any](ctx context.Context, m map[string]any, opts ...Option) (T, error) {
	return run[T](ctx, newOptions(opts), nil, m, nil, sourceMap)
}

// FromFile materializes T from one source read through reader, with
// file-pointer resolution enabled.
func FromFile[T any](ctx context.Context, reader Reader, source string, opts ...Option) (T, error) {
	return FromFiles[T](ctx, reader, []string{source}, opts...)
}

// FromFiles materializes T from a cascade of sources: each source is read
// through reader, the layers are deep-merged left to right (later sources
// win), and the merged mapping is materialized with file-pointer resolution
// enabled. Merging runs before pointer resolution by definition.
func FromFiles[T any](ctx context.Context, reader Reader, sources []string, opts ...Option) (T, error) {
	var zero T
	o := newOptions(opts)
	rt, err := targetType[T]()
	if err != nil {
		return zero, err
	}
	if reader == nil {
		return zero, &Error{Code: CodeSourceRead, Type: rt.Name(), Message: "nil reader"}
	}
	if len(sources) == 0 {
		return zero, &Error{Code: CodeEmptyCascade, Type: rt.Name(), Message: "no sources given"}
	}
	desc := describeSources(sources)
	layers := make([]map[string]any, 0, len(sources))
	visiting := make([]string, 0, len(sources))
	for _, s := range sources {
		raw, err := reader(ctx, s)
		if err != nil {
			return zero, withFrame(&Error{
				Code:    CodeSourceRead,
				Type:    rt.Name(),
				Value:   s,
				Message: "reading source failed",
				Cause:   err,
			}, Frame{Type: rt.Name(), Source: desc})
		}
		layers = append(layers, raw)
		visiting = append(visiting, canonicalSource(s))
	}
	merged, err := Merge(layers...)
	if err != nil {
		return zero, withFrame(err, Frame{Type: rt.Name(), Source: desc})
	}
	return run[T](ctx, o, reader, merged, visiting, desc)
}

// FromTOML materializes T from a TOML source cascade using the bundled reader.
func FromTOML[T any](ctx context.Context, sources []string, opts ...Option) (T, error) {
	return FromFiles[T](ctx, tomlsrc.Reader(), sources, opts...)
}

// FromYAML materializes T from a YAML source cascade using the bundled reader.
func FromYAML[T any](ctx context.Context, sources []string, opts ...Option) (T, error) {
	return FromFiles[T](ctx, yamlsrc.Reader(), sources, opts...)
}

// FromJSON materializes T from a JSON source cascade using the bundled reader.
func FromJSON[T any](ctx context.Context, sources []string, opts ...Option) (T, error) {
	return FromFiles[T](ctx, jsonsrc.Reader(), sources, opts...)
}

// run drives one materialization end to end: build the instance, then walk it
// with the Validator. No partial instances are surfaced.
func run[T any](ctx context.Context, o *options, reader Reader, src map[string]any, visiting []string, desc string) (T, error) {
	var zero T
	rt, err := targetType[T]()
	if err != nil {
		return zero, err
	}
	mat := newMaterializer(o, reader)
	elem := baseType(rt)
	v, err := mat.materialize(ctx, elem, src, visiting, desc)
	if err != nil {
		return zero, err
	}
	v = wrapPointer(v, rt)
	out, ok := v.Interface().(T)
	if !ok {
		return zero, &Error{Code: CodeInvalidTarget, Type: rt.String(), Message: "materialized value does not fit target type"}
	}
	if err := Validate(out); err != nil {
		return zero, withFrame(err, Frame{Type: elem.Name(), Source: desc})
	}
	return out, nil
}

// targetType resolves the reflect.Type of the type parameter; struct and
// *struct targets are accepted.
func targetType[T any]() (reflect.Type, error) {
	var zero T
	rt := reflect.TypeOf(&zero).Elem()
	if baseType(rt).Kind() != reflect.Struct {
		return nil, &Error{
			Code:    CodeInvalidTarget,
			Type:    rt.String(),
			Message: "target type must be a struct or pointer to struct",
		}
	}
	return rt, nil
}

func describeSources(sources []string) string {
	if len(sources) == 1 {
		return sources[0]
	}
	return "cascade [" + strings.Join(sources, ", ") + "]"
}
