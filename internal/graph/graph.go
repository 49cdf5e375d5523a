package graph

import (
	"fmt"
	"sync"

	"github.com/sealevel-io/tidemark/api/schemas"
	"go.uber.org/zap"
)

// InMemoryGraph is the canonical in-memory implementation of the SBOM graph: a
// directed multigraph whose nodes are System and Software entries and whose
// edges carry a relation kind. Entities and edges are kept in insertion order
// so that repeated projections of the same graph are byte-identical.
type InMemoryGraph struct {
	systems  []schemas.System
	software []schemas.Software
	// nodes indexes every known UUID so edge endpoints can be validated.
	nodes map[string]struct{}
	edges []schemas.Relationship
	// outgoing maps a parent UUID to the indexes of its edges, preserving
	// insertion order for Children lookups.
	outgoing map[string][]int
	mu       sync.RWMutex
	log      *zap.Logger
}

// Ensures InMemoryGraph satisfies the reader contract at compile time.
var _ schemas.GraphReader = (*InMemoryGraph)(nil)

// NewInMemoryGraph creates a new, empty SBOM graph.
func NewInMemoryGraph(logger *zap.Logger) *InMemoryGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryGraph{
		nodes:    make(map[string]struct{}),
		outgoing: make(map[string][]int),
		log:      logger.Named("sbomgraph"),
	}
}

// AddSystem registers a system node. UUIDs are unique across both node kinds.
func (g *InMemoryGraph) AddSystem(system schemas.System) error {
	if system.UUID == "" {
		return fmt.Errorf("system is missing a UUID")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[system.UUID]; exists {
		return fmt.Errorf("node with UUID '%s' already exists", system.UUID)
	}
	g.nodes[system.UUID] = struct{}{}
	g.systems = append(g.systems, system)
	g.log.Debug("System added", zap.String("uuid", system.UUID), zap.String("name", system.BestName()))
	return nil
}

// AddSoftware registers a software node. UUIDs are unique across both node kinds.
func (g *InMemoryGraph) AddSoftware(software schemas.Software) error {
	if software.UUID == "" {
		return fmt.Errorf("software is missing a UUID")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[software.UUID]; exists {
		return fmt.Errorf("node with UUID '%s' already exists", software.UUID)
	}
	g.nodes[software.UUID] = struct{}{}
	g.software = append(g.software, software)
	g.log.Debug("Software added", zap.String("uuid", software.UUID), zap.String("name", software.Name))
	return nil
}

// AddRelationship adds a directed edge between two existing nodes. The raw
// label is folded into the closed relation enum. Both endpoints must already
// be registered; rejecting dangling edges here keeps the export layer free of
// referential-integrity checks. Duplicate (parent, child, type) triples are
// permitted, since the graph is a multigraph.
func (g *InMemoryGraph) AddRelationship(parentUUID, childUUID, label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[parentUUID]; !exists {
		return fmt.Errorf("parent node with UUID '%s' not found for relationship", parentUUID)
	}
	if _, exists := g.nodes[childUUID]; !exists {
		return fmt.Errorf("child node with UUID '%s' not found for relationship", childUUID)
	}

	rel := schemas.NewRelationship(parentUUID, childUUID, label)
	if rel.Type == schemas.RelationOther {
		g.log.Debug("Unrecognized relationship label",
			zap.String("label", label),
			zap.String("parent", parentUUID),
			zap.String("child", childUUID),
		)
	}

	g.edges = append(g.edges, rel)
	g.outgoing[parentUUID] = append(g.outgoing[parentUUID], len(g.edges)-1)
	return nil
}

// HasNode reports whether a node with the given UUID is registered.
func (g *InMemoryGraph) HasNode(uuid string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[uuid]
	return exists
}

// Systems returns every system node in insertion order.
func (g *InMemoryGraph) Systems() []schemas.System {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]schemas.System, len(g.systems))
	copy(out, g.systems)
	return out
}

// SoftwareEntries returns every software node in insertion order.
func (g *InMemoryGraph) SoftwareEntries() []schemas.Software {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]schemas.Software, len(g.software))
	copy(out, g.software)
	return out
}

// Children returns the UUIDs of nodes reachable from parentUUID over edges of
// the given relation type, in insertion order. A child linked through several
// matching edges appears once per edge.
func (g *InMemoryGraph) Children(parentUUID string, rel schemas.RelationType) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	indexes, ok := g.outgoing[parentUUID]
	if !ok {
		return nil
	}

	var children []string
	for _, i := range indexes {
		if g.edges[i].Type == rel {
			children = append(children, g.edges[i].ChildUUID)
		}
	}
	return children
}

// Relationships returns every edge of the multigraph in insertion order.
func (g *InMemoryGraph) Relationships() []schemas.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]schemas.Relationship, len(g.edges))
	copy(out, g.edges)
	return out
}
