// Package toml reads TOML sources into raw string-keyed mappings.
package toml

import (
	"context"

	btoml "github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/viant/afs"
)

// Reader returns a mapping reader that fetches a TOML document through an afs
// service and decodes it. TOML date-times surface as time.Time values and pass
// through the date converter unchanged.
func Reader() func(ctx context.Context, source string) (map[string]any, error) {
	fs := afs.New()
	return func(ctx context.Context, source string) (map[string]any, error) {
		data, err := fs.DownloadWithURL(ctx, source)
		if err != nil {
			return nil, errors.Wrapf(err, "download %v", source)
		}
		m := map[string]any{}
		if err := btoml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrapf(err, "decode toml %v", source)
		}
		return m, nil
	}
}
