package json

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func TestReader_DecodesDocument(t *testing.T) {
	url := "mem://localhost/source/json/app.json"
	fs := afs.New()
	err := fs.Upload(context.Background(), url, file.DefaultFileOsMode,
		strings.NewReader(`{"title":"svc","server":{"host":"localhost","port":9090}}`))
	require.NoError(t, err)

	m, err := Reader()(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "svc", m["title"])
	server, ok := m["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(9090), server["port"])
}

func TestReader_MalformedDocument(t *testing.T) {
	url := "mem://localhost/source/json/bad.json"
	fs := afs.New()
	err := fs.Upload(context.Background(), url, file.DefaultFileOsMode, strings.NewReader(`{"title":`))
	require.NoError(t, err)
	_, err = Reader()(context.Background(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json")
}
