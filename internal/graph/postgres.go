package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sealevel-io/tidemark/api/schemas"
	"go.uber.org/zap"
)

// DBPool abstracts the pgxpool.Pool so the store can be mocked in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists a complete SBOM graph to PostgreSQL and restores it
// later. A store holds exactly one graph; Persist replaces any previously
// stored one.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.GraphStore = (*PostgresStore)(nil)

// NewPostgresStore creates a new store instance and verifies the connection.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{
		pool: pool,
		log:  logger.Named("sbomstore"),
	}, nil
}

// Persist writes the whole graph in one transaction, replacing the previously
// stored graph. Insertion order is preserved through an explicit position
// column so a Load/Persist round trip keeps projections byte-identical.
func (s *PostgresStore) Persist(ctx context.Context, g schemas.GraphReader) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback on an already committed tx returns pgx.ErrTxClosed; that is
		// the normal path, not an error worth logging.
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	for _, table := range []string{"sbom_relationships", "sbom_software", "sbom_systems"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	if err := s.persistSystems(ctx, tx, g.Systems()); err != nil {
		return err
	}
	if err := s.persistSoftware(ctx, tx, g.SoftwareEntries()); err != nil {
		return err
	}
	if err := s.persistRelationships(ctx, tx, g.Relationships()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info("Persisted SBOM graph",
		zap.Int("systems", len(g.Systems())),
		zap.Int("software", len(g.SoftwareEntries())),
		zap.Int("relationships", len(g.Relationships())),
	)
	return nil
}

func (s *PostgresStore) persistSystems(ctx context.Context, tx pgx.Tx, systems []schemas.System) error {
	if len(systems) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(systems))
	for i, sys := range systems {
		rows[i] = []interface{}{sys.UUID, sys.Name, sys.OfficialName, sys.Description, sys.Vendor, i}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"sbom_systems"},
		[]string{"uuid", "name", "official_name", "description", "vendor", "position"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy systems: %w", err)
	}
	if int(copyCount) != len(systems) {
		return fmt.Errorf("mismatch in copied systems count: expected %d, got %d", len(systems), copyCount)
	}
	return nil
}

func (s *PostgresStore) persistSoftware(ctx context.Context, tx pgx.Tx, software []schemas.Software) error {
	if len(software) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(software))
	for i, sw := range software {
		metadata, err := json.Marshal(sw.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for '%s': %w", sw.UUID, err)
		}
		rows[i] = []interface{}{
			sw.UUID, sw.Name, sw.Version, sw.Description,
			sw.Vendor, sw.FileName, sw.ContainerPath,
			sw.SHA1, sw.SHA256, sw.MD5,
			metadata, i,
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"sbom_software"},
		[]string{
			"uuid", "name", "version", "description",
			"vendor", "file_name", "container_path",
			"sha1", "sha256", "md5",
			"metadata", "position",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy software: %w", err)
	}
	if int(copyCount) != len(software) {
		return fmt.Errorf("mismatch in copied software count: expected %d, got %d", len(software), copyCount)
	}
	return nil
}

func (s *PostgresStore) persistRelationships(ctx context.Context, tx pgx.Tx, relationships []schemas.Relationship) error {
	if len(relationships) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(relationships))
	for i, rel := range relationships {
		rows[i] = []interface{}{rel.ParentUUID, rel.ChildUUID, string(rel.Type), rel.RawLabel, i}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"sbom_relationships"},
		[]string{"parent_uuid", "child_uuid", "relationship", "raw_label", "position"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy relationships: %w", err)
	}
	if int(copyCount) != len(relationships) {
		return fmt.Errorf("mismatch in copied relationships count: expected %d, got %d", len(relationships), copyCount)
	}
	return nil
}

// Load rebuilds the stored graph, returning an InMemoryGraph with the original
// insertion order restored.
func (s *PostgresStore) Load(ctx context.Context) (schemas.GraphReader, error) {
	g := NewInMemoryGraph(s.log)

	if err := s.loadSystems(ctx, g); err != nil {
		return nil, err
	}
	if err := s.loadSoftware(ctx, g); err != nil {
		return nil, err
	}
	if err := s.loadRelationships(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}

func (s *PostgresStore) loadSystems(ctx context.Context, g *InMemoryGraph) error {
	rows, err := s.pool.Query(ctx, `
        SELECT uuid, name, official_name, description, vendor
        FROM sbom_systems ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to query systems: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sys schemas.System
		if err := rows.Scan(&sys.UUID, &sys.Name, &sys.OfficialName, &sys.Description, &sys.Vendor); err != nil {
			return fmt.Errorf("failed to scan system row: %w", err)
		}
		if err := g.AddSystem(sys); err != nil {
			return fmt.Errorf("failed to restore system '%s': %w", sys.UUID, err)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) loadSoftware(ctx context.Context, g *InMemoryGraph) error {
	rows, err := s.pool.Query(ctx, `
        SELECT uuid, name, version, description, vendor, file_name, container_path, sha1, sha256, md5, metadata
        FROM sbom_software ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to query software: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sw schemas.Software
		var metadata []byte
		if err := rows.Scan(
			&sw.UUID, &sw.Name, &sw.Version, &sw.Description,
			&sw.Vendor, &sw.FileName, &sw.ContainerPath,
			&sw.SHA1, &sw.SHA256, &sw.MD5,
			&metadata,
		); err != nil {
			return fmt.Errorf("failed to scan software row: %w", err)
		}
		if len(metadata) > 0 && string(metadata) != "null" {
			if err := json.Unmarshal(metadata, &sw.Metadata); err != nil {
				return fmt.Errorf("failed to unmarshal metadata for '%s': %w", sw.UUID, err)
			}
		}
		if err := g.AddSoftware(sw); err != nil {
			return fmt.Errorf("failed to restore software '%s': %w", sw.UUID, err)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) loadRelationships(ctx context.Context, g *InMemoryGraph) error {
	rows, err := s.pool.Query(ctx, `
        SELECT parent_uuid, child_uuid, raw_label
        FROM sbom_relationships ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var parentUUID, childUUID, rawLabel string
		if err := rows.Scan(&parentUUID, &childUUID, &rawLabel); err != nil {
			return fmt.Errorf("failed to scan relationship row: %w", err)
		}
		if err := g.AddRelationship(parentUUID, childUUID, rawLabel); err != nil {
			return fmt.Errorf("failed to restore relationship %s -> %s: %w", parentUUID, childUUID, err)
		}
	}
	return rows.Err()
}
