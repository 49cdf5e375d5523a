package sbomdiff

import (
	"bytes"
	"testing"

	"github.com/sealevel-io/tidemark/api/schemas"
	"github.com/sealevel-io/tidemark/internal/export"
	"github.com/sealevel-io/tidemark/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestComparator(t *testing.T) *Comparator {
	t.Helper()
	return NewComparator(zaptest.NewLogger(t))
}

func TestCompare_IdenticalBytes(t *testing.T) {
	c := newTestComparator(t)
	doc := []byte(`{"bomFormat":"CycloneDX","components":[]}`)

	result, err := c.Compare(doc, doc)
	require.NoError(t, err)
	assert.True(t, result.Equivalent)
	assert.Empty(t, result.Diff)
	assert.True(t, result.IsJSON)
}

func TestCompare_IdenticalNonJSONBytes(t *testing.T) {
	c := newTestComparator(t)
	doc := []byte(`<bom xmlns="http://cyclonedx.org/schema/bom/1.5"/>`)

	result, err := c.Compare(doc, doc)
	require.NoError(t, err)
	assert.True(t, result.Equivalent)
	assert.False(t, result.IsJSON)
}

// Serial numbers and timestamps vary per export run and must not count as
// differences under the default options.
func TestCompare_DynamicValuesNormalized(t *testing.T) {
	c := newTestComparator(t)

	a := []byte(`{
		"serialNumber": "urn:uuid:0ea232f7-76fa-4479-9e24-6a1bb1be98b4",
		"metadata": {"timestamp": "2026-08-29T10:00:00Z"},
		"components": [{"bom-ref": "F1", "name": "libfoo.so"}]
	}`)
	b := []byte(`{
		"serialNumber": "urn:uuid:7c2b1f01-3a69-4a7e-9d40-2f3f9f6f16aa",
		"metadata": {"timestamp": "2026-08-30T23:59:59Z"},
		"components": [{"bom-ref": "F1", "name": "libfoo.so"}]
	}`)

	result, err := c.Compare(a, b)
	require.NoError(t, err)
	assert.True(t, result.Equivalent, "diff: %s", result.Diff)
}

// A bare UUID not in urn form is still a serial; a ref that merely looks
// UUID-ish but is not one must survive normalization.
func TestCompare_SerialDetection(t *testing.T) {
	c := newTestComparator(t)

	a := []byte(`{"id": "0ea232f7-76fa-4479-9e24-6a1bb1be98b4", "ref": "not-a-uuid"}`)
	b := []byte(`{"id": "7c2b1f01-3a69-4a7e-9d40-2f3f9f6f16aa", "ref": "not-a-uuid"}`)
	result, err := c.Compare(a, b)
	require.NoError(t, err)
	assert.True(t, result.Equivalent, "diff: %s", result.Diff)

	a = []byte(`{"ref": "component-one"}`)
	b = []byte(`{"ref": "component-two"}`)
	result, err = c.Compare(a, b)
	require.NoError(t, err)
	assert.False(t, result.Equivalent)
}

func TestCompare_RealDifferenceDetected(t *testing.T) {
	c := newTestComparator(t)

	a := []byte(`{"components": [{"bom-ref": "F1", "name": "libfoo.so"}]}`)
	b := []byte(`{"components": [{"bom-ref": "F1", "name": "libbar.so"}]}`)

	result, err := c.Compare(a, b)
	require.NoError(t, err)
	assert.False(t, result.Equivalent)
	assert.Contains(t, result.Diff, "libfoo.so")
	assert.Contains(t, result.Diff, "libbar.so")
}

func TestCompare_NonJSONDiffers(t *testing.T) {
	c := newTestComparator(t)

	result, err := c.Compare([]byte(`<bom version="1"/>`), []byte(`<bom version="2"/>`))
	require.NoError(t, err)
	assert.False(t, result.Equivalent)
	assert.False(t, result.IsJSON)
	assert.Contains(t, result.Diff, "non-JSON")
}

func TestCompare_MixedJSONAndNot(t *testing.T) {
	c := newTestComparator(t)

	result, err := c.Compare([]byte(`{"bomFormat":"CycloneDX"}`), []byte(`<bom/>`))
	require.NoError(t, err)
	assert.False(t, result.Equivalent)
	assert.True(t, result.IsJSON)
}

func TestCompareWithOptions_ValuesToIgnore(t *testing.T) {
	c := newTestComparator(t)

	opts := DefaultOptions()
	opts.ValuesToIgnore = map[string]struct{}{
		"build-2026.08.29": {},
		"build-2026.08.30": {},
	}

	a := []byte(`{"metadata": {"tools": [{"name": "Tidemark", "version": "build-2026.08.29"}]}}`)
	b := []byte(`{"metadata": {"tools": [{"name": "Tidemark", "version": "build-2026.08.30"}]}}`)

	result, err := c.CompareWithOptions(a, b, opts)
	require.NoError(t, err)
	assert.True(t, result.Equivalent, "diff: %s", result.Diff)
}

func TestCompareWithOptions_ArrayOrder(t *testing.T) {
	c := newTestComparator(t)

	a := []byte(`{"refs": ["A", "B", "C"]}`)
	b := []byte(`{"refs": ["C", "A", "B"]}`)

	strict, err := c.Compare(a, b)
	require.NoError(t, err)
	assert.False(t, strict.Equivalent)

	opts := DefaultOptions()
	opts.IgnoreArrayOrder = true
	relaxed, err := c.CompareWithOptions(a, b, opts)
	require.NoError(t, err)
	assert.True(t, relaxed.Equivalent, "diff: %s", relaxed.Diff)
}

func TestCompareWithOptions_EquateEmpty(t *testing.T) {
	c := newTestComparator(t)

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"null vs empty object", `{"metadata": null}`, `{"metadata": {}}`, true},
		{"null vs empty array", `{"deps": null}`, `{"deps": []}`, true},
		{"empty object vs empty array", `{"x": {}}`, `{"x": []}`, false},
		{"null vs populated", `{"deps": null}`, `{"deps": ["A"]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Compare([]byte(tt.a), []byte(tt.b))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Equivalent, "diff: %s", result.Diff)
		})
	}
}

func TestCompareWithOptions_TimestampsOnlyWhenEnabled(t *testing.T) {
	c := newTestComparator(t)

	a := []byte(`{"timestamp": "2026-08-29T10:00:00Z"}`)
	b := []byte(`{"timestamp": "2026-08-30T10:00:00Z"}`)

	opts := DefaultOptions()
	opts.IgnoreTimestamps = false
	result, err := c.CompareWithOptions(a, b, opts)
	require.NoError(t, err)
	assert.False(t, result.Equivalent)
}

func TestNewComparator_NilLogger(t *testing.T) {
	c := NewComparator(nil)
	require.NotNil(t, c)

	result, err := c.Compare([]byte(`{}`), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Equivalent)
}

// exportDocument runs a full projection of a small reference graph and returns
// the serialized JSON document.
func exportDocument(t *testing.T, deterministic bool) []byte {
	t.Helper()

	g := graph.NewInMemoryGraph(zaptest.NewLogger(t))
	require.NoError(t, g.AddSystem(schemas.System{
		UUID:         "S1",
		OfficialName: "Widget OS",
		Vendor:       []string{"Acme"},
	}))
	require.NoError(t, g.AddSoftware(schemas.Software{
		UUID:          "F1",
		FileName:      []string{"libfoo.so"},
		ContainerPath: []string{"S1/libfoo.so"},
		SHA256:        "abc123",
	}))
	require.NoError(t, g.AddRelationship("S1", "F1", "Contains"))

	var buf bytes.Buffer
	exporter := export.NewCycloneDXExporter(
		nopCloser{&buf},
		export.FormatJSON,
		export.Options{Deterministic: deterministic},
		zaptest.NewLogger(t),
	)
	require.NoError(t, exporter.Export(g))
	return buf.Bytes()
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

// Regression baseline check: two exports of the same graph must be equivalent
// under the default options even when serials and timestamps differ, and
// deterministic exports must be byte-identical outright.
func TestCompare_RepeatedExports(t *testing.T) {
	c := newTestComparator(t)

	liveA := exportDocument(t, false)
	liveB := exportDocument(t, false)
	require.False(t, bytes.Equal(liveA, liveB), "serial numbers should differ between live exports")

	result, err := c.Compare(liveA, liveB)
	require.NoError(t, err)
	assert.True(t, result.Equivalent, "diff: %s", result.Diff)

	detA := exportDocument(t, true)
	detB := exportDocument(t, true)
	assert.True(t, bytes.Equal(detA, detB))
}
