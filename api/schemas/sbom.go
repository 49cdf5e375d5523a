package schemas

// -- Canonical SBOM Entity Model --
//
// Systems and Software are the two node kinds of the SBOM graph. Both are
// materialized by an upstream ingestion pipeline before projection begins and
// are treated as read-only by everything in this module.

// System represents a top-level grouping entity, such as a device, appliance,
// or operating system image, that software entries are collected under.
type System struct {
	// UUID uniquely identifies the system and doubles as the bom-ref of the
	// CycloneDX component it projects to.
	UUID string `json:"UUID"`
	// Name is a short name used when no official name is available.
	Name string `json:"name,omitempty"`
	// OfficialName is the preferred display name for the system.
	OfficialName string `json:"officialName,omitempty"`
	Description  string `json:"description,omitempty"`
	// Vendor lists vendor names in priority order; the first entry is treated
	// as the authoritative supplier.
	Vendor []string `json:"vendor,omitempty"`
}

// Software represents a single discovered unit of code. One entry may be known
// under several file-name aliases and may appear at several container-relative
// paths.
type Software struct {
	// UUID uniquely identifies the entry and doubles as the bom-ref of every
	// CycloneDX component it projects to.
	UUID        string `json:"UUID"`
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	// Vendor lists vendor names in priority order; the first entry is treated
	// as the authoritative supplier.
	Vendor []string `json:"vendor,omitempty"`
	// FileName lists the file-name aliases this entry is known under.
	FileName []string `json:"fileName,omitempty"`
	// ContainerPath lists container-relative locations of this entry. The
	// first path segment is the UUID of the containing entity, the remainder
	// is the path of the file inside that container.
	ContainerPath []string `json:"containerPath,omitempty"`
	SHA1          string   `json:"sha1,omitempty"`
	SHA256        string   `json:"sha256,omitempty"`
	MD5           string   `json:"md5,omitempty"`
	// Metadata holds open-ended records recovered during extraction, keyed by
	// category ("FileInfo", "OS", ...) and then by field name. No schema is
	// enforced beyond key presence.
	Metadata []Metadata `json:"metadata,omitempty"`
}

// Metadata is a single open-ended metadata record: category name to field name
// to value.
type Metadata map[string]map[string]string

// MetadataCategoryFileInfo is the record category populated from file-format
// version resources (e.g. Windows PE VS_VERSIONINFO blocks).
const MetadataCategoryFileInfo = "FileInfo"

// MetadataFieldLegalCopyright is the FileInfo field holding free-form
// copyright text extracted from the file itself.
const MetadataFieldLegalCopyright = "LegalCopyright"

// FileInfoField scans the software's metadata records for a "FileInfo"
// category and returns the value of the named field. The boolean reports
// whether the field was present in any record; the first match wins.
func (s *Software) FileInfoField(field string) (string, bool) {
	for _, record := range s.Metadata {
		fields, ok := record[MetadataCategoryFileInfo]
		if !ok {
			continue
		}
		if value, ok := fields[field]; ok {
			return value, true
		}
	}
	return "", false
}

// BestName returns the preferred display name for the system: the official
// name when present, otherwise the short name.
func (s *System) BestName() string {
	if s.OfficialName != "" {
		return s.OfficialName
	}
	return s.Name
}

// Supplier returns the authoritative supplier name for the system, or "" when
// no vendor is recorded. Multi-vendor information is intentionally lossy here:
// only the first vendor is reported.
func (s *System) Supplier() string {
	if len(s.Vendor) > 0 {
		return s.Vendor[0]
	}
	return ""
}

// Supplier returns the authoritative supplier name for the software entry, or
// "" when no vendor is recorded.
func (s *Software) Supplier() string {
	if len(s.Vendor) > 0 {
		return s.Vendor[0]
	}
	return ""
}
