package schemas

import "context"

// -- Graph Interfaces --

// GraphReader is the read-only view of a fully built SBOM graph that the
// export layer consumes. Implementations must return entities in a stable,
// deterministic order so that repeated projections of the same graph produce
// identical documents.
type GraphReader interface {
	// Systems returns every system node in insertion order.
	Systems() []System
	// SoftwareEntries returns every software node in insertion order.
	SoftwareEntries() []Software
	// Children returns the UUIDs of nodes reachable from parentUUID over
	// edges of the given relation type, in insertion order.
	Children(parentUUID string, rel RelationType) []string
	// Relationships returns every edge of the multigraph in insertion order.
	Relationships() []Relationship
}

// GraphStore persists a complete SBOM graph and restores it later.
// Implementations own their transactional semantics; Persist must be
// all-or-nothing.
type GraphStore interface {
	Persist(ctx context.Context, graph GraphReader) error
	Load(ctx context.Context) (GraphReader, error)
}
