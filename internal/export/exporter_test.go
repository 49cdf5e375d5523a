package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sealevel-io/tidemark/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNew_NilLogger(t *testing.T) {
	exporter, err := New(FormatJSON, "", Options{}, nil)
	require.Error(t, err)
	assert.Nil(t, exporter)
	assert.Contains(t, err.Error(), "logger cannot be nil")
}

func TestNew_UnsupportedFormat(t *testing.T) {
	exporter, err := New(Format("yaml"), "", Options{}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, exporter)
	assert.Contains(t, err.Error(), "unsupported output format: yaml")
}

func TestNew_StdoutCloseIsNoOp(t *testing.T) {
	for _, path := range []string{"", "stdout"} {
		exporter, err := New(FormatJSON, path, Options{}, zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, exporter)
		// Closing must not close the process's actual stdout.
		assert.NoError(t, exporter.Close())
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sbom.json")

	exporter, err := New(FormatJSON, path, Options{Deterministic: true}, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, exporter.Export(exampleGraph(t)))
	require.NoError(t, exporter.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bomFormat": "CycloneDX"`)
	assert.Contains(t, string(data), `"specVersion": "1.5"`)
}

func TestNewFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sbom.xml")

	cfg := config.ExportConfig{Format: "xml", Output: path, Deterministic: true}
	exporter, err := NewFromConfig(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, exporter.Export(exampleGraph(t)))
	require.NoError(t, exporter.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<bom xmlns="http://cyclonedx.org/schema/bom/1.5"`)

	_, err = NewFromConfig(config.ExportConfig{Format: "csv"}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestNew_FileCreateFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "sbom.json")

	exporter, err := New(FormatJSON, path, Options{}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, exporter)
	assert.Contains(t, err.Error(), "failed to create output file")
}
