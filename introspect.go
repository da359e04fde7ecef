package cascata

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

var (
	pathType = reflect.TypeOf(Path(""))
	timeType = reflect.TypeOf(time.Time{})

	specCache sync.Map // reflect.Type -> *TypeSpec, write-once per type
)

// Introspect builds (or fetches from cache) the TypeSpec for a target type.
// The target must be a struct or pointer to struct; anything else fails with
// invalid_target_type. Classification here is option-independent so specs can
// be cached; the SubTypes overlay is applied at materialization time.
func Introspect(t reflect.Type) (*TypeSpec, error) {
	if t == nil {
		return nil, &Error{Code: CodeInvalidTarget, Message: "nil target type"}
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &Error{
			Code:    CodeInvalidTarget,
			Type:    t.String(),
			Message: fmt.Sprintf("target must be a struct, got %s", t.Kind()),
		}
	}
	if cached, ok := specCache.Load(t); ok {
		return cached.(*TypeSpec), nil
	}
	ts, err := introspectStruct(t)
	if err != nil {
		return nil, err
	}
	actual, _ := specCache.LoadOrStore(t, ts)
	return actual.(*TypeSpec), nil
}

func introspectStruct(t reflect.Type) (*TypeSpec, error) {
	ts := &TypeSpec{Name: t.Name(), Type: t}
	if ts.Name == "" {
		ts.Name = t.String()
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && sf.Type == reflect.TypeOf(Base{}) {
			continue
		}
		key, required := resolveFieldKey(sf)
		if key == "-" {
			continue
		}
		fs := FieldSpec{
			Name:     sf.Name,
			Key:      key,
			Index:    i,
			Type:     sf.Type,
			Tag:      classify(sf.Type),
			Required: required,
		}
		fs.SubConfig = fs.Tag == TagSubConfig
		if dv, ok := sf.Tag.Lookup("default"); ok {
			if required {
				return nil, &Error{
					Code:    CodeInvalidTarget,
					Field:   sf.Name,
					Type:    t.Name(),
					Message: "field cannot be both required and defaulted",
				}
			}
			parsed, err := parseDefault(dv, sf.Type)
			if err != nil {
				return nil, &Error{
					Code:    CodeInvalidTarget,
					Field:   sf.Name,
					Type:    t.Name(),
					Value:   dv,
					Message: "bad default tag",
					Cause:   err,
				}
			}
			fs.HasDefault = true
			fs.Default = parsed
		} else if !required {
			// Optional without a declared default: the zero value is the default.
			fs.HasDefault = true
		}
		ts.Fields = append(ts.Fields, fs)
	}
	return ts, nil
}

// resolveFieldKey resolves a struct field's mapping key.
// Priority: cascata tag name > json tag name > snake_case(field name);
// "-" disables the field. A ",required" tag item marks the field required.
func resolveFieldKey(sf reflect.StructField) (key string, required bool) {
	if ct, ok := sf.Tag.Lookup("cascata"); ok {
		parts := strings.Split(ct, ",")
		key = strings.TrimSpace(parts[0])
		for _, p := range parts[1:] {
			if strings.TrimSpace(p) == "required" {
				required = true
			}
		}
		if key != "" {
			return key, required
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		name := jt
		if i := strings.IndexByte(jt, ','); i >= 0 {
			name = jt[:i]
		}
		if name != "" {
			return name, required
		}
	}
	return snakeCase(sf.Name), required
}

func snakeCase(name string) string {
	b := &strings.Builder{}
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// classify maps a declared type to its TypeTag. Custom converters are a
// per-call concern and never influence the cached classification.
func classify(t reflect.Type) TypeTag {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch {
	case base == pathType:
		return TagPath
	case base == timeType:
		return TagTime
	case isMarkedSubConfig(base):
		return TagSubConfig
	default:
		return TagGeneric
	}
}

func isMarkedSubConfig(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	marker := reflect.TypeOf((*subConfigMarker)(nil)).Elem()
	return t.Implements(marker) || reflect.PointerTo(t).Implements(marker)
}

// parseDefault materializes a `default:"..."` tag value per the declared type.
func parseDefault(s string, t reflect.Type) (any, error) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch {
	case base == pathType:
		return Path(s), nil
	case base == timeType:
		return parseTimeString(s)
	}
	switch base.Kind() {
	case reflect.String:
		return reflect.ValueOf(s).Convert(base).Interface(), nil
	case reflect.Bool:
		return strconv.ParseBool(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(base).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(base).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(base).Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported default for %s", t)
	}
}
