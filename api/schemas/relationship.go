package schemas

import "strings"

// RelationType is the closed enumeration of relationship kinds between SBOM
// graph nodes. Labels observed in the wild vary in casing and separator style
// ("DependsOn", "DEPENDS_ON", "dependson"), so raw labels are folded into this
// enum exactly once, by ParseRelationType.
type RelationType string

const (
	// RelationContains is structural containment: the parent archive, package,
	// or system holds the child.
	RelationContains RelationType = "CONTAINS"
	// RelationUses, RelationDependsOn and RelationRequires all express a
	// runtime dependency of the parent on the child.
	RelationUses      RelationType = "USES"
	RelationDependsOn RelationType = "DEPENDS_ON"
	RelationRequires  RelationType = "REQUIRES"
	// RelationOther covers any label outside the known set; the raw label is
	// preserved on the Relationship for logging.
	RelationOther RelationType = "OTHER"
)

// ParseRelationType folds a raw relationship label into the closed enum.
// Matching is case-insensitive and tolerates a missing underscore in
// "DEPENDS_ON".
func ParseRelationType(label string) RelationType {
	switch strings.ToUpper(label) {
	case "CONTAINS":
		return RelationContains
	case "USES":
		return RelationUses
	case "DEPENDS_ON", "DEPENDSON":
		return RelationDependsOn
	case "REQUIRES":
		return RelationRequires
	default:
		return RelationOther
	}
}

// Runtime reports whether the relation expresses a runtime dependency.
func (r RelationType) Runtime() bool {
	switch r {
	case RelationUses, RelationDependsOn, RelationRequires:
		return true
	}
	return false
}

// Relationship is one directed edge of the SBOM multigraph. Multiple edges
// between the same pair of nodes with different types are permitted.
type Relationship struct {
	// ParentUUID and ChildUUID reference System or Software nodes.
	ParentUUID string       `json:"xUUID"`
	ChildUUID  string       `json:"yUUID"`
	Type       RelationType `json:"relationship"`
	// RawLabel is the label as supplied by the upstream collaborator, kept for
	// diagnostics when Type is RelationOther.
	RawLabel string `json:"rawLabel,omitempty"`
}

// NewRelationship builds an edge from a raw label, folding the label into the
// closed relation enum.
func NewRelationship(parentUUID, childUUID, label string) Relationship {
	return Relationship{
		ParentUUID: parentUUID,
		ChildUUID:  childUUID,
		Type:       ParseRelationType(label),
		RawLabel:   label,
	}
}
