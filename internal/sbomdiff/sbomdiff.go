// Package sbomdiff compares two serialized SBOM documents for regression
// runs. Dynamic values that legitimately differ between exports of the same
// graph (serial numbers, timestamps) are normalized to placeholders before a
// structural diff, so the comparison answers "did the projection change", not
// "are the bytes equal".
package sbomdiff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Placeholders substituted for normalized dynamic values.
const (
	PlaceholderSerial    = "__SERIAL__"
	PlaceholderTimestamp = "__TIMESTAMP__"
	PlaceholderIgnored   = "__IGNORED__"
)

// Result reports the outcome of one comparison.
type Result struct {
	// Equivalent is true when the documents agree after normalization.
	Equivalent bool
	// Diff is a human-readable description of the difference, empty when
	// the documents are equivalent.
	Diff string
	// IsJSON reports whether at least one input parsed as JSON.
	IsJSON bool
}

// Options controls which value classes are normalized away before diffing.
type Options struct {
	// IgnoreSerialNumbers normalizes RFC 4122 identifiers, bare or in urn
	// form, to a placeholder.
	IgnoreSerialNumbers bool
	// IgnoreTimestamps normalizes values parseable by any of the timestamp
	// formats to a placeholder.
	IgnoreTimestamps bool
	// TimestampFormats lists the layouts tried by IgnoreTimestamps.
	TimestampFormats []string
	// IgnoreArrayOrder sorts arrays before comparison.
	IgnoreArrayOrder bool
	// EquateEmpty treats null, {} and [] of matching kinds as equal.
	EquateEmpty bool
	// ValuesToIgnore normalizes exact string matches to a placeholder.
	ValuesToIgnore map[string]struct{}
}

// DefaultOptions matches the needs of CycloneDX regression runs: serials and
// timestamps are noise, element order is meaningful.
func DefaultOptions() Options {
	return Options{
		IgnoreSerialNumbers: true,
		IgnoreTimestamps:    true,
		TimestampFormats:    []string{time.RFC3339, time.RFC3339Nano},
		EquateEmpty:         true,
	}
}

// Comparator performs semantic SBOM comparisons.
type Comparator struct {
	logger *zap.Logger
}

// NewComparator creates a comparator with the given logger.
func NewComparator(logger *zap.Logger) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Comparator{logger: logger.Named("sbomdiff")}
}

// Compare performs a comparison using default options.
func (c *Comparator) Compare(a, b []byte) (*Result, error) {
	return c.CompareWithOptions(a, b, DefaultOptions())
}

// CompareWithOptions performs a full semantic comparison using the specified
// options.
func (c *Comparator) CompareWithOptions(a, b []byte, opts Options) (*Result, error) {
	// Identical bytes are always equivalent, JSON or not.
	if bytes.Equal(a, b) {
		return &Result{Equivalent: true, IsJSON: json.Valid(a) && len(a) > 0}, nil
	}

	var dataA, dataB interface{}

	// UseNumber keeps numeric precision stable through the normalization pass.
	decoderA := json.NewDecoder(bytes.NewReader(a))
	decoderA.UseNumber()
	errA := decoderA.Decode(&dataA)

	decoderB := json.NewDecoder(bytes.NewReader(b))
	decoderB.UseNumber()
	errB := decoderB.Decode(&dataB)

	if errA != nil || errB != nil {
		return c.compareOpaque(a, b, errA == nil, errB == nil), nil
	}

	normalizedA := c.normalize(dataA, opts)
	normalizedB := c.normalize(dataB, opts)

	diff := cmp.Diff(normalizedA, normalizedB, c.cmpOptions(opts)...)

	return &Result{
		Equivalent: diff == "",
		Diff:       diff,
		IsJSON:     true,
	}, nil
}

// compareOpaque handles inputs that are not both valid JSON, e.g. XML
// exports. They already failed the byte-equality test, so all that is left is
// describing the mismatch.
func (c *Comparator) compareOpaque(a, b []byte, jsonA, jsonB bool) *Result {
	c.logger.Debug("Comparison involves non-JSON data",
		zap.Bool("json_a", jsonA),
		zap.Bool("json_b", jsonB),
	)
	return &Result{
		Equivalent: false,
		Diff: fmt.Sprintf("content differs (non-JSON or mixed types); length A: %d (JSON: %v), length B: %d (JSON: %v)",
			len(a), jsonA, len(b), jsonB),
		IsJSON: jsonA || jsonB,
	}
}

func (c *Comparator) normalize(data interface{}, opts Options) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = c.normalize(val, opts)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = c.normalize(val, opts)
		}
		return out
	case string:
		return c.normalizeString(v, opts)
	default:
		return data
	}
}

func (c *Comparator) normalizeString(s string, opts Options) string {
	if _, ignored := opts.ValuesToIgnore[s]; ignored {
		return PlaceholderIgnored
	}

	if opts.IgnoreSerialNumbers && isSerialNumber(s) {
		return PlaceholderSerial
	}

	if opts.IgnoreTimestamps {
		for _, format := range opts.TimestampFormats {
			if _, err := time.Parse(format, s); err == nil {
				return PlaceholderTimestamp
			}
		}
	}

	return s
}

// isSerialNumber recognizes RFC 4122 identifiers, with or without the
// "urn:uuid:" prefix CycloneDX serial numbers carry.
func isSerialNumber(s string) bool {
	trimmed := strings.TrimPrefix(s, "urn:uuid:")
	// A canonical textual UUID is exactly 36 characters; uuid.Parse also
	// accepts other encodings we do not want to normalize away.
	if len(trimmed) != 36 {
		return false
	}
	_, err := uuid.Parse(trimmed)
	return err == nil
}

func (c *Comparator) cmpOptions(opts Options) cmp.Options {
	var cmpOpts cmp.Options

	if opts.EquateEmpty {
		cmpOpts = append(cmpOpts, equateEmptyOption())
	}
	if opts.IgnoreArrayOrder {
		cmpOpts = append(cmpOpts, cmpopts.SortSlices(sliceLess))
	}

	return cmpOpts
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	}
	return false
}

// equateEmptyOption treats JSON null as equal to any empty structure, and
// empty structures as equal only when their kinds match ({} != []). Stock
// cmpopts.EquateEmpty does not consider a nil interface{} empty.
func equateEmptyOption() cmp.Option {
	return cmp.FilterValues(
		func(x, y interface{}) bool {
			return isEmpty(x) && isEmpty(y)
		},
		cmp.Comparer(func(x, y interface{}) bool {
			if x == nil || y == nil {
				return true
			}
			return reflect.ValueOf(x).Kind() == reflect.ValueOf(y).Kind()
		}),
	)
}

// sliceLess orders arbitrary decoded JSON values deterministically so
// SortSlices is a valid total order.
func sliceLess(x, y interface{}) bool {
	nx, okX := x.(json.Number)
	ny, okY := y.(json.Number)
	if okX && okY {
		fx, errX := nx.Float64()
		fy, errY := ny.Float64()
		if errX == nil && errY == nil {
			return fx < fy
		}
		return nx.String() < ny.String()
	}

	vx := reflect.ValueOf(x)
	vy := reflect.ValueOf(y)
	if !vx.IsValid() {
		return vy.IsValid()
	}
	if !vy.IsValid() {
		return false
	}
	if vx.Type() != vy.Type() {
		return vx.Type().String() < vy.Type().String()
	}

	switch vx.Kind() {
	case reflect.String:
		return vx.String() < vy.String()
	case reflect.Float64:
		return vx.Float() < vy.Float()
	case reflect.Bool:
		return !vx.Bool() && vy.Bool()
	default:
		return fmt.Sprint(x) < fmt.Sprint(y)
	}
}
