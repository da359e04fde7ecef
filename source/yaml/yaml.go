// Package yaml reads YAML sources into raw string-keyed mappings.
package yaml

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	yaml3 "gopkg.in/yaml.v3"
)

// Reader returns a mapping reader that fetches a YAML document through an afs
// service and decodes it, normalizing any map[any]any levels the decoder
// produces into string-keyed mappings.
func Reader() func(ctx context.Context, source string) (map[string]any, error) {
	fs := afs.New()
	return func(ctx context.Context, source string) (map[string]any, error) {
		data, err := fs.DownloadWithURL(ctx, source)
		if err != nil {
			return nil, errors.Wrapf(err, "download %v", source)
		}
		var node any
		if err := yaml3.Unmarshal(data, &node); err != nil {
			return nil, errors.Wrapf(err, "decode yaml %v", source)
		}
		m := anyToStringMap(node)
		if m == nil {
			return nil, errors.Errorf("yaml %v: document root is not a mapping", source)
		}
		return m, nil
	}
}

// anyToStringMap converts YAML-decoded values (which may contain map[any]any)
// into map[string]any recursively. Non-map roots return nil.
func anyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = normalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return anyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
