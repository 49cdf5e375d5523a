package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sealevel-io/tidemark/api/schemas"
	"github.com/sealevel-io/tidemark/internal/export/cdx"
	"go.uber.org/zap"
)

// deterministicEpoch is the pinned document timestamp for deterministic
// exports: Friday, January 1, 2021 12:00:00 AM UTC.
const deterministicEpoch = 1609459200

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// CycloneDXExporter projects an SBOM graph into a CycloneDX 1.5 document and
// serializes it as JSON or XML. It makes a best-effort mapping from the graph
// model; it does not validate the result against the CycloneDX schema beyond
// what the mapping rules guarantee.
type CycloneDXExporter struct {
	writer io.WriteCloser
	format Format
	opts   Options
	logger *zap.Logger
}

var _ Exporter = (*CycloneDXExporter)(nil)

// NewCycloneDXExporter creates an exporter that takes ownership of the writer.
func NewCycloneDXExporter(writer io.WriteCloser, format Format, opts Options, logger *zap.Logger) *CycloneDXExporter {
	if opts.ToolVersion == "" {
		opts.ToolVersion = ToolVersion
	}
	return &CycloneDXExporter{
		writer: writer,
		format: format,
		opts:   opts,
		logger: logger.Named("cyclonedx_exporter"),
	}
}

// Export assembles the document and writes it to the sink in one pass.
func (e *CycloneDXExporter) Export(graph schemas.GraphReader) error {
	startTime := time.Now()

	bom := e.BuildBOM(graph)

	var err error
	switch e.format {
	case FormatXML:
		err = writeXML(bom, e.writer)
	default:
		encoder := jsonAPI.NewEncoder(e.writer)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(bom)
	}
	if err != nil {
		e.logger.Error("Failed to serialize CycloneDX document", zap.Error(err))
		return fmt.Errorf("failed to serialize CycloneDX output: %w", err)
	}

	e.logger.Info("Wrote CycloneDX document",
		zap.String("format", string(e.format)),
		zap.Int("components", len(bom.Components)),
		zap.Int("dependencies", len(bom.Dependencies)),
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// Close closes the underlying writer.
func (e *CycloneDXExporter) Close() error {
	if err := e.writer.Close(); err != nil {
		e.logger.Error("Failed to close output writer", zap.Error(err))
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}

// BuildBOM performs the projection without serializing, which is what the
// regression tooling hooks into.
func (e *CycloneDXExporter) BuildBOM(graph schemas.GraphReader) *cdx.BOM {
	bom := &cdx.BOM{
		BOMFormat:    cdx.BOMFormat,
		SpecVersion:  cdx.SpecVersion,
		SerialNumber: e.serialNumber(),
		Version:      1,
		Metadata: &cdx.Metadata{
			Timestamp: e.timestamp().Format(time.RFC3339),
			Tools:     []*cdx.Tool{{Name: ToolName, Version: e.opts.ToolVersion}},
		},
	}

	for _, system := range graph.Systems() {
		bom.Components = append(bom.Components, systemComponent(system))
	}

	// containerParents records, per file software UUID, the container UUID
	// derived from its container paths. The first path wins when paths
	// disagree; the table drives CONTAINS edge deduplication below.
	containerParents := make(map[string]string)

	for _, software := range graph.SoftwareEntries() {
		if len(graph.Children(software.UUID, schemas.RelationContains)) > 0 {
			bom.Components = append(bom.Components, containerComponents(software)...)
			continue
		}
		components, parentUUID := fileComponents(software)
		bom.Components = append(bom.Components, components...)
		if parentUUID != "" {
			containerParents[software.UUID] = parentUUID
		}
	}

	bom.Dependencies = buildDependencies(graph, containerParents)
	return bom
}

func (e *CycloneDXExporter) timestamp() time.Time {
	if e.opts.Deterministic {
		return time.Unix(deterministicEpoch, 0).UTC()
	}
	return time.Now().UTC()
}

// serialNumber returns an RFC 4122 urn. Deterministic exports derive it from
// the tool identity so repeated runs agree; production exports get a random
// one per document.
func (e *CycloneDXExporter) serialNumber() string {
	if e.opts.Deterministic {
		seed := fmt.Sprintf("%s/%s", ToolName, e.opts.ToolVersion)
		return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	}
	return "urn:uuid:" + uuid.New().String()
}

// systemComponent maps a system entry to a container-type component. The
// official name is preferred, the short name is the fallback, and only the
// first vendor is reported as supplier.
func systemComponent(system schemas.System) *cdx.Component {
	return &cdx.Component{
		BOMRef:      system.UUID,
		Type:        cdx.TypeContainer,
		Name:        system.BestName(),
		Supplier:    supplier(system.Vendor),
		Description: optional(system.Description),
	}
}

// containerComponents maps a software entry that contains other entries to one
// container-type component per file-name alias. Every emitted component shares
// the software's UUID as its bom-ref; multi-alias containers therefore produce
// duplicate bom-refs, a known degenerate case callers should avoid triggering.
func containerComponents(software schemas.Software) []*cdx.Component {
	components := make([]*cdx.Component, 0, len(software.FileName))
	for _, fname := range software.FileName {
		name := software.Name
		if name == "" {
			// No name, fall back to the file name.
			name = fname
		}
		components = append(components, &cdx.Component{
			BOMRef:      software.UUID,
			Type:        cdx.TypeContainer,
			Name:        name,
			Version:     optional(software.Version),
			Supplier:    supplier(software.Vendor),
			Description: optional(software.Description),
			Hashes:      hashes(software),
		})
	}
	return components
}

// fileComponents maps a leaf software entry to one file-type component per
// container path; the first path segment is the parent container's UUID and
// the remainder, rejoined with "/", names the file within it. When the entry
// has no container paths at all, one component per file-name alias is emitted
// instead and no parent is reported. The returned parent UUID is the one
// derived from the first multi-segment container path, or "" when none exists.
func fileComponents(software schemas.Software) ([]*cdx.Component, string) {
	var components []*cdx.Component
	var parentUUID string

	for _, cpath := range software.ContainerPath {
		parts := strings.Split(cpath, "/")
		// A single segment is just the container UUID, or a bare file name;
		// neither names a file inside a container.
		if len(parts) < 2 {
			continue
		}
		if parentUUID == "" {
			parentUUID = parts[0]
		}
		components = append(components, fileComponent(strings.Join(parts[1:], "/"), software))
	}

	if len(software.ContainerPath) == 0 {
		for _, fname := range software.FileName {
			components = append(components, fileComponent(fname, software))
		}
	}

	return components, parentUUID
}

// fileComponent builds one file-type component named by its path relative to
// the parent container. Copyright is recovered, best effort, from the
// FileInfo/LegalCopyright metadata field.
func fileComponent(filePath string, software schemas.Software) *cdx.Component {
	component := &cdx.Component{
		BOMRef:      software.UUID,
		Type:        cdx.TypeFile,
		Name:        filePath,
		Version:     optional(software.Version),
		Supplier:    supplier(software.Vendor),
		Description: optional(software.Description),
		Hashes:      hashes(software),
	}
	if copyright, ok := software.FileInfoField(schemas.MetadataFieldLegalCopyright); ok {
		component.Copyright = cdx.PString(copyright)
	}
	return component
}

// buildDependencies walks every edge of the graph and groups children into one
// dependency record per parent. A CONTAINS edge is suppressed when path
// parsing already assigned the child a different parent, so the same
// containment is never expressed twice from two sources. Records are sorted by
// ref for stable output; children keep edge order.
func buildDependencies(graph schemas.GraphReader, containerParents map[string]string) []*cdx.Dependency {
	records := make(map[string]*cdx.Dependency)

	for _, rel := range graph.Relationships() {
		if rel.Type == schemas.RelationContains {
			if pathParent, ok := containerParents[rel.ChildUUID]; ok && pathParent != rel.ParentUUID {
				continue
			}
		}

		record, ok := records[rel.ParentUUID]
		if !ok {
			record = &cdx.Dependency{Ref: rel.ParentUUID}
			records[rel.ParentUUID] = record
		}

		ref := &cdx.DependencyRef{Ref: rel.ChildUUID}
		switch {
		case rel.Type == schemas.RelationContains:
			// Structural containment stays untagged.
		case rel.Type.Runtime():
			ref.Scope = cdx.ScopeRuntime
		default:
			ref.Scope = cdx.ScopeUnknown
		}
		record.DependsOn = append(record.DependsOn, ref)
	}

	if len(records) == 0 {
		return nil
	}

	dependencies := make([]*cdx.Dependency, 0, len(records))
	for _, record := range records {
		dependencies = append(dependencies, record)
	}
	sort.Slice(dependencies, func(i, j int) bool {
		return dependencies[i].Ref < dependencies[j].Ref
	})
	return dependencies
}

// supplier maps a vendor list to an organizational entity using only the first
// vendor. Multi-vendor information is intentionally lossy here.
func supplier(vendors []string) *cdx.OrganizationalEntity {
	if len(vendors) == 0 {
		return nil
	}
	return &cdx.OrganizationalEntity{Name: vendors[0]}
}

// hashes builds the hash list from whichever digests are present, or nil when
// there are none, so the output omits the list entirely.
func hashes(software schemas.Software) []*cdx.Hash {
	var out []*cdx.Hash
	if software.SHA1 != "" {
		out = append(out, &cdx.Hash{Alg: cdx.AlgSHA1, Content: software.SHA1})
	}
	if software.SHA256 != "" {
		out = append(out, &cdx.Hash{Alg: cdx.AlgSHA256, Content: software.SHA256})
	}
	if software.MD5 != "" {
		out = append(out, &cdx.Hash{Alg: cdx.AlgMD5, Content: software.MD5})
	}
	return out
}

// optional normalizes an empty string to an absent field.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return cdx.PString(s)
}
