package export

import (
	"fmt"
	"io"
	"os"

	"github.com/sealevel-io/tidemark/api/schemas"
	"github.com/sealevel-io/tidemark/internal/config"
	"go.uber.org/zap"
)

// Constants for tool identification in the exported document metadata.
const (
	ToolName    = "Tidemark"
	ToolVersion = "0.4.1"
)

// Format selects the serialization of the CycloneDX document.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Exporter writes a fully built SBOM graph to an output sink as a single
// document. Export is all-or-nothing: if serialization fails no partial
// document is written beyond what the underlying writer already flushed.
type Exporter interface {
	// Export projects the graph and writes the resulting document.
	Export(graph schemas.GraphReader) error
	// Close finalizes the export and closes any underlying resources (e.g.
	// file handles).
	Close() error
}

// Options tunes document assembly. The zero value is a valid production
// configuration.
type Options struct {
	// ToolVersion overrides the version recorded in metadata.tools. Empty
	// means the package default.
	ToolVersion string
	// Deterministic pins the document timestamp and serial number so that
	// identical graphs serialize to identical bytes, for regression runs.
	Deterministic bool
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates an exporter for the given format and output path. An empty path
// or "stdout" targets standard output, which Close leaves open.
func New(format Format, outputPath string, opts Options, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	cleanup := func() {
		if !isStdOut {
			writer.Close()
		}
	}

	switch format {
	case FormatJSON, FormatXML:
		// NewCycloneDXExporter takes ownership of the writer.
		return NewCycloneDXExporter(writer, format, opts, logger), nil
	default:
		cleanup()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// NewFromConfig creates an exporter from a validated export configuration
// section.
func NewFromConfig(cfg config.ExportConfig, logger *zap.Logger) (Exporter, error) {
	opts := Options{
		ToolVersion:   cfg.ToolVersion,
		Deterministic: cfg.Deterministic,
	}
	return New(Format(cfg.Format), cfg.Output, opts, logger)
}
