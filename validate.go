package cascata

import "reflect"

// Validate runs post-construction validation over an instance graph:
// depth-first, children before the parent, fields in declaration order. The
// first failing hook aborts the walk; no aggregation happens here (a hook may
// aggregate internally if it wants to).
func Validate(instance any) error {
	if instance == nil {
		return nil
	}
	return validateValue(reflect.ValueOf(instance))
}

func validateValue(rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || (sf.Anonymous && sf.Type == reflect.TypeOf(Base{})) {
			continue
		}
		fv := rv.Field(i)
		if !validatable(fv) {
			continue
		}
		if err := validateValue(fv); err != nil {
			return err
		}
	}
	return runHook(rv)
}

// validatable reports whether a field value exposes the nested-validation
// capability, either through the Base marker or its own Validate hook.
func validatable(fv reflect.Value) bool {
	t := fv.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if isMarkedSubConfig(t) {
		return true
	}
	hook := reflect.TypeOf((*Validatable)(nil)).Elem()
	return t.Implements(hook) || reflect.PointerTo(t).Implements(hook)
}

func runHook(rv reflect.Value) error {
	v, ok := hookFor(rv)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		if _, already := err.(*Error); already {
			return err
		}
		return &Error{
			Code:    CodeValidation,
			Type:    rv.Type().Name(),
			Message: "validation hook failed",
			Cause:   err,
		}
	}
	return nil
}

func hookFor(rv reflect.Value) (Validatable, bool) {
	if v, ok := rv.Interface().(Validatable); ok {
		return v, true
	}
	if rv.CanAddr() {
		if v, ok := rv.Addr().Interface().(Validatable); ok {
			return v, true
		}
	}
	pv := reflect.New(rv.Type())
	pv.Elem().Set(rv)
	if v, ok := pv.Interface().(Validatable); ok {
		return v, true
	}
	return nil, false
}
