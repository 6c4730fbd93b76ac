package docgen

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for document metadata.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores document metadata and returns the ID.
func (r *Repository) Insert(ctx context.Context, doc Document) (int64, error) {
	const query = `INSERT INTO documents (entity_type, entity_id, filename, path, size_bytes, created_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, doc.EntityType, doc.EntityID, doc.Filename, doc.Path, doc.SizeBytes).Scan(&id)
	return id, err
}

// Get returns document metadata by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Document, error) {
	const query = `SELECT id, entity_type, entity_id, filename, path, size_bytes, created_at FROM documents WHERE id = $1`
	var doc Document
	err := r.pool.QueryRow(ctx, query, id).Scan(&doc.ID, &doc.EntityType, &doc.EntityID, &doc.Filename, &doc.Path, &doc.SizeBytes, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}
