package cdx

// This file defines the Go structs for the CycloneDX 1.5 document shape used
// by the export layer. Pointers are used for optional fields. Required fields
// use value types.

// BOMFormat and SpecVersion identify the document flavor; XMLNamespace is the
// schema namespace used by the XML rendering.
const (
	BOMFormat    = "CycloneDX"
	SpecVersion  = "1.5"
	XMLNamespace = "http://cyclonedx.org/schema/bom/1.5"
)

type BOM struct {
	BOMFormat    string        `json:"bomFormat"`
	SpecVersion  string        `json:"specVersion"`
	SerialNumber string        `json:"serialNumber,omitempty"`
	Version      int           `json:"version"`
	Metadata     *Metadata     `json:"metadata,omitempty"`
	Components   []*Component  `json:"components,omitempty"`
	Dependencies []*Dependency `json:"dependencies,omitempty"`
}

type Metadata struct {
	Timestamp string  `json:"timestamp,omitempty"`
	Tools     []*Tool `json:"tools,omitempty"`
}

type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ComponentType distinguishes the two element kinds this projection emits.
type ComponentType string

const (
	TypeContainer ComponentType = "container"
	TypeFile      ComponentType = "file"
)

// Component is a single entry of the components array. BOMRef always equals
// the UUID of the graph entity it was projected from.
type Component struct {
	BOMRef      string                `json:"bom-ref"`
	Type        ComponentType         `json:"type"`
	Name        string                `json:"name"`
	Version     *string               `json:"version,omitempty"`
	Supplier    *OrganizationalEntity `json:"supplier,omitempty"`
	Description *string               `json:"description,omitempty"`
	Hashes      []*Hash               `json:"hashes,omitempty"`
	Copyright   *string               `json:"copyright,omitempty"`
}

type OrganizationalEntity struct {
	Name string `json:"name"`
}

// HashAlgorithm names follow the CycloneDX spelling, hyphens included.
type HashAlgorithm string

const (
	AlgSHA1   HashAlgorithm = "SHA-1"
	AlgSHA256 HashAlgorithm = "SHA-256"
	AlgMD5    HashAlgorithm = "MD5"
)

type Hash struct {
	Alg     HashAlgorithm `json:"alg"`
	Content string        `json:"content"`
}

// Scope tags the nature of a parent to child dependency edge. The zero value
// marks structural containment and is omitted from output.
type Scope string

const (
	ScopeRuntime Scope = "runtime"
	ScopeUnknown Scope = "unknown"
)

// Dependency groups every child of one parent into a single record.
type Dependency struct {
	Ref       string           `json:"ref"`
	DependsOn []*DependencyRef `json:"dependsOn,omitempty"`
}

// DependencyRef is one child entry of a dependency record. Scoped entries
// carry their scope tag; structural containment entries are untagged.
type DependencyRef struct {
	Ref   string `json:"ref"`
	Scope Scope  `json:"scope,omitempty"`
}

// PString returns a pointer to the given string value. Helper for optional
// fields.
func PString(s string) *string {
	return &s
}
