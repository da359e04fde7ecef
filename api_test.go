package cascata_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	cascata "github.com/cascata/cascata"
)

type serverConfig struct {
	cascata.Base
	Host    string       `cascata:"host,required"`
	Port    int          `cascata:"port" default:"8080"`
	Logs    cascata.Path `cascata:"logs"`
	Started time.Time    `cascata:"started"`
}

type appConfig struct {
	Name   string       `cascata:"name,required"`
	Server serverConfig `cascata:"server"`
}

func upload(t *testing.T, url, content string) {
	t.Helper()
	fs := afs.New()
	err := fs.Upload(context.Background(), url, file.DefaultFileOsMode, strings.NewReader(content))
	require.NoError(t, err)
}

func TestFromTOML_CascadeWithPointer(t *testing.T) {
	base := "mem://localhost/cascata/toml1/"
	upload(t, base+"base.toml", `
name = "svc"
server = "`+base+`server.toml"
`)
	upload(t, base+"site.toml", `
name = "svc-eu"
`)
	upload(t, base+"server.toml", `
host = "db.internal"
logs = "/var/log/svc"
started = 2024-06-01T10:00:00Z
`)
	cfg, err := cascata.FromTOML[appConfig](context.Background(), []string{base + "base.toml", base + "site.toml"})
	require.NoError(t, err)
	assert.Equal(t, "svc-eu", cfg.Name)
	assert.Equal(t, "db.internal", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port, "declared default applies")
	assert.Equal(t, cascata.Path("/var/log/svc"), cfg.Server.Logs)
	assert.True(t, cfg.Server.Started.Equal(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)))
}

func TestFromYAML_InlineSubConfig(t *testing.T) {
	base := "mem://localhost/cascata/yaml1/"
	upload(t, base+"app.yaml", `
name: svc
server:
  host: localhost
  port: 9090
  started: "2024-06-02"
`)
	cfg, err := cascata.FromYAML[appConfig](context.Background(), []string{base + "app.yaml"})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Started.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)),
		"date-only value widens to midnight UTC")
}

func TestFromJSON_DefaultsAndCascade(t *testing.T) {
	base := "mem://localhost/cascata/json1/"
	upload(t, base+"a.json", `{"name":"svc","server":{"host":"a","port":1}}`)
	upload(t, base+"b.json", `{"server":{"port":2}}`)
	cfg, err := cascata.FromJSON[appConfig](context.Background(), []string{base + "a.json", base + "b.json"})
	require.NoError(t, err)
	assert.Equal(t, "svc", cfg.Name)
	assert.Equal(t, "a", cfg.Server.Host)
	assert.Equal(t, 2, cfg.Server.Port, "nested cascade layers merge key by key")
}

func TestFromFiles_MissingSourceFails(t *testing.T) {
	_, err := cascata.FromTOML[appConfig](context.Background(), []string{"mem://localhost/cascata/nope.toml"})
	ce, ok := cascata.AsError(err)
	require.True(t, ok)
	assert.Equal(t, cascata.CodeSourceRead, ce.Code)
}

func TestFromFiles_EmptyCascadeFails(t *testing.T) {
	_, err := cascata.FromTOML[appConfig](context.Background(), nil)
	ce, ok := cascata.AsError(err)
	require.True(t, ok)
	assert.Equal(t, cascata.CodeEmptyCascade, ce.Code)
}

func TestFromFiles_NilReaderFails(t *testing.T) {
	_, err := cascata.FromFiles[appConfig](context.Background(), nil, []string{"x.toml"})
	ce, ok := cascata.AsError(err)
	require.True(t, ok)
	assert.Equal(t, cascata.CodeSourceRead, ce.Code)
}

func TestFromTOML_PathFieldIsNotAPointer(t *testing.T) {
	base := "mem://localhost/cascata/cycle1/"
	upload(t, base+"app.toml", `
name = "svc"
server = "`+base+`loop.toml"
`)
	upload(t, base+"loop.toml", `
host = "h"
logs = "`+base+`app.toml"
`)
	// logs is a Path field, not a sub-config, so this one resolves fine.
	cfg, err := cascata.FromTOML[appConfig](context.Background(), []string{base + "app.toml"})
	require.NoError(t, err)
	assert.Equal(t, cascata.Path(base+"app.toml"), cfg.Server.Logs)
}
