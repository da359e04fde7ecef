package cascata

import (
	"context"
	"reflect"
)

// TypeTag classifies a field's declared type for materialization purposes.
type TypeTag int

const (
	TagGeneric   TypeTag = iota // Passed through unconverted.
	TagPath                     // cascata.Path.
	TagTime                     // time.Time.
	TagSubConfig                // Nested config (marker type or SubTypes option).
	TagCustom                   // Covered by a user converter; resolved per call.
)

// Path is the path-like declared type recognized by the built-in string
// converter. Declaring a field as Path opts it into path conversion.
type Path string

func (p Path) String() string { return string(p) }

// Base is the nested-config capability marker. Any struct embedding Base is
// treated as a sub-config wherever it appears as a field type, and gains a
// no-op validation hook that child types may shadow.
type Base struct{}

func (Base) Validate() error { return nil }

func (Base) subconfig() {}

// subConfigMarker is satisfied via the embedded Base marker method.
type subConfigMarker interface{ subconfig() }

// Validatable is the post-construction validation hook. Validate walks nested
// configs depth-first, children before the parent.
type Validatable interface {
	Validate() error
}

// Reader turns a source (file path or URL) into a raw mapping. Readers are
// format-agnostic from the core's point of view; any failure is surfaced as a
// source_read error. The bundled implementations live under source/<format>.
type Reader func(ctx context.Context, source string) (map[string]any, error)

// Converter transforms a raw mapping value into the declared field type.
type Converter func(raw any) (any, error)

// FieldSpec describes one field of a target type.
type FieldSpec struct {
	Name       string       // Go field name.
	Key        string       // Mapping key.
	Index      int          // Struct field index.
	Type       reflect.Type // Declared field type (possibly a pointer).
	Tag        TypeTag
	Required   bool
	HasDefault bool
	Default    any
	SubConfig  bool // Capability marker; SubTypes option overlays per call.
}

// TypeSpec is the immutable field table of a target type. One is built per
// distinct type and cached for reuse.
type TypeSpec struct {
	Name   string
	Type   reflect.Type
	Fields []FieldSpec
}

// options collects entry-point options. The zero values of the disable flags
// keep both built-in conversions on, matching the documented defaults.
type options struct {
	convertPaths bool
	convertDates bool
	subTypes     map[reflect.Type]struct{}
	converters   map[reflect.Type]Converter
}

// Option configures an entry point call.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{convertPaths: true, convertDates: true}
	for _, fn := range opts {
		if fn != nil {
			fn(o)
		}
	}
	return o
}

// WithConverter registers a custom converter for the type of proto. User
// converters take precedence over the built-ins for the same type.
func WithConverter(proto any, fn Converter) Option {
	return func(o *options) {
		if fn == nil {
			return
		}
		if o.converters == nil {
			o.converters = map[reflect.Type]Converter{}
		}
		o.converters[reflect.TypeOf(proto)] = fn
	}
}

// WithSubTypes marks the types of the given prototypes as nested configs even
// without the Base marker.
func WithSubTypes(protos ...any) Option {
	return func(o *options) {
		if o.subTypes == nil {
			o.subTypes = map[reflect.Type]struct{}{}
		}
		for _, p := range protos {
			t := reflect.TypeOf(p)
			if t == nil {
				continue
			}
			if t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			o.subTypes[t] = struct{}{}
		}
	}
}

// WithoutPathConversion leaves Path-typed fields as raw strings.
func WithoutPathConversion() Option {
	return func(o *options) { o.convertPaths = false }
}

// WithoutDateConversion leaves time.Time-typed fields unconverted.
func WithoutDateConversion() Option {
	return func(o *options) { o.convertDates = false }
}

func (o *options) isSubType(t reflect.Type) bool {
	if o == nil || o.subTypes == nil {
		return false
	}
	_, ok := o.subTypes[t]
	return ok
}
