package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// Record is one translated message with its source embedding.
type Record struct {
	Hash        string
	Catalog     string
	Language    string
	Context     string
	Source      string
	Comment     string
	Translation string
	Vector      []float32
}

// Match is a similarity search hit.
type Match struct {
	Catalog     string
	Context     string
	Source      string
	Comment     string
	Translation string
	Score       float64
}

// VectorStore keeps translation memory embeddings in pgvector.
type VectorStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewVectorStore creates a vector store for vectors of the given size.
func NewVectorStore(pool *pgxpool.Pool, dimensions int) *VectorStore {
	return &VectorStore{pool: pool, dimensions: dimensions}
}

// EnsureSchema creates the vector extension and memory table.
func (vs *VectorStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tm_entries (
			hash        TEXT PRIMARY KEY,
			catalog     TEXT NOT NULL,
			language    TEXT NOT NULL,
			context     TEXT NOT NULL,
			source      TEXT NOT NULL,
			comment     TEXT NOT NULL DEFAULT '',
			translation TEXT NOT NULL,
			embedding   vector(%d) NOT NULL
		)`, vs.dimensions),
		`CREATE INDEX IF NOT EXISTS tm_entries_language_idx ON tm_entries (language)`,
		`CREATE INDEX IF NOT EXISTS tm_entries_embedding_idx ON tm_entries USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range statements {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create memory schema: %w", err)
		}
	}
	log.Debug().Int("dimensions", vs.dimensions).Msg("Memory schema ensured")
	return nil
}

// Store upserts records in one batch.
func (vs *VectorStore) Store(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO tm_entries (hash, catalog, language, context, source, comment, translation, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (hash) DO UPDATE
			SET catalog = EXCLUDED.catalog,
			    translation = EXCLUDED.translation,
			    embedding = EXCLUDED.embedding
		`, r.Hash, r.Catalog, r.Language, r.Context, r.Source, r.Comment, r.Translation, pgvector.NewVector(r.Vector))
	}

	if err := vs.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("store embeddings: %w", err)
	}

	log.Info().Int("count", len(records)).Msg("Stored embeddings")
	return nil
}

// Search returns the topK entries in language closest to queryVector.
func (vs *VectorStore) Search(ctx context.Context, language string, queryVector []float32, topK int) ([]Match, error) {
	rows, err := vs.pool.Query(ctx, `
		SELECT catalog, context, source, comment, translation, 1 - (embedding <=> $1) AS similarity
		FROM tm_entries
		WHERE language = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(queryVector), language, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
		var m Match
		err := row.Scan(&m.Catalog, &m.Context, &m.Source, &m.Comment, &m.Translation, &m.Score)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan matches: %w", err)
	}
	return matches, nil
}
