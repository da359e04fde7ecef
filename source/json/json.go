// Package json reads JSON sources into raw string-keyed mappings.
package json

import (
	"context"

	j "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/viant/afs"
)

// Reader returns a mapping reader that fetches a JSON document through an afs
// service (local paths or any registered URL scheme) and decodes it.
func Reader() func(ctx context.Context, source string) (map[string]any, error) {
	fs := afs.New()
	return func(ctx context.Context, source string) (map[string]any, error) {
		data, err := fs.DownloadWithURL(ctx, source)
		if err != nil {
			return nil, errors.Wrapf(err, "download %v", source)
		}
		m := map[string]any{}
		if err := j.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrapf(err, "decode json %v", source)
		}
		return m, nil
	}
}
