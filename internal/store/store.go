package store

import (
	"context"
	"errors"
	"fmt"

	"ts-catalog/internal/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no catalog has the requested name.
var ErrNotFound = errors.New("catalog not found")

const schema = `
CREATE TABLE IF NOT EXISTS ts_catalogs (
	name            TEXT PRIMARY KEY,
	version         TEXT NOT NULL DEFAULT '',
	language        TEXT NOT NULL DEFAULT '',
	source_language TEXT NOT NULL DEFAULT '',
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE ts_catalogs ADD COLUMN IF NOT EXISTS relative_locations BOOLEAN NOT NULL DEFAULT false;

CREATE TABLE IF NOT EXISTS ts_contexts (
	id       BIGSERIAL PRIMARY KEY,
	catalog  TEXT NOT NULL REFERENCES ts_catalogs(name) ON DELETE CASCADE,
	position INT NOT NULL,
	name     TEXT NOT NULL,
	comment  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ts_messages (
	id                 BIGSERIAL PRIMARY KEY,
	context_id         BIGINT NOT NULL REFERENCES ts_contexts(id) ON DELETE CASCADE,
	position           INT NOT NULL,
	msg_id             TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL,
	old_source         TEXT NOT NULL DEFAULT '',
	comment            TEXT NOT NULL DEFAULT '',
	old_comment        TEXT NOT NULL DEFAULT '',
	extra_comment      TEXT NOT NULL DEFAULT '',
	translator_comment TEXT NOT NULL DEFAULT '',
	translation        TEXT NOT NULL DEFAULT '',
	numerus            BOOLEAN NOT NULL DEFAULT false,
	numerus_forms      TEXT[] NOT NULL DEFAULT '{}',
	type               TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ts_locations (
	message_id BIGINT NOT NULL REFERENCES ts_messages(id) ON DELETE CASCADE,
	position   INT NOT NULL,
	file       TEXT NOT NULL,
	line       INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS ts_contexts_catalog_idx ON ts_contexts (catalog, position);
CREATE INDEX IF NOT EXISTS ts_messages_context_idx ON ts_messages (context_id, position);
CREATE INDEX IF NOT EXISTS ts_locations_message_idx ON ts_locations (message_id, position);
`

// Store persists catalogs in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store on an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CatalogInfo summarises a stored catalog.
type CatalogInfo struct {
	Name     string
	Language string
	Messages int
}

// EnsureSchema creates the catalog tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create catalog schema: %w", err)
	}
	log.Debug().Msg("Catalog schema ensured")
	return nil
}

// SaveCatalog stores c under name, replacing any catalog of that name in
// a single transaction.
func (s *Store) SaveCatalog(ctx context.Context, name string, c *catalog.Catalog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ts_catalogs WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete catalog %s: %w", name, err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO ts_catalogs (name, version, language, source_language, relative_locations)
		VALUES ($1, $2, $3, $4, $5)
	`, name, c.Version, c.Language, c.SourceLanguage, c.RelativeLocations)
	if err != nil {
		return fmt.Errorf("insert catalog %s: %w", name, err)
	}

	var locations [][]any
	messages := 0
	for ci, cx := range c.Contexts {
		var contextID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO ts_contexts (catalog, position, name, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, name, ci, cx.Name, cx.Comment).Scan(&contextID)
		if err != nil {
			return fmt.Errorf("insert context %s: %w", cx.Name, err)
		}

		for mi, m := range cx.Messages {
			forms := m.NumerusForms
			if forms == nil {
				forms = []string{}
			}
			var messageID int64
			err := tx.QueryRow(ctx, `
				INSERT INTO ts_messages (
					context_id, position, msg_id, source, old_source, comment, old_comment,
					extra_comment, translator_comment, translation, numerus, numerus_forms, type
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				RETURNING id
			`, contextID, mi, m.ID, m.Source, m.OldSource, m.Comment, m.OldComment,
				m.ExtraComment, m.TranslatorComment, m.Translation, m.Numerus, forms, string(m.Type),
			).Scan(&messageID)
			if err != nil {
				return fmt.Errorf("insert message %q: %w", m.Source, err)
			}
			messages++

			for li, loc := range m.Locations {
				locations = append(locations, []any{messageID, li, loc.File, loc.Line})
			}
		}
	}

	if len(locations) > 0 {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"ts_locations"},
			[]string{"message_id", "position", "file", "line"},
			pgx.CopyFromRows(locations),
		)
		if err != nil {
			return fmt.Errorf("copy locations: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit catalog %s: %w", name, err)
	}

	log.Info().
		Str("catalog", name).
		Int("contexts", len(c.Contexts)).
		Int("messages", messages).
		Int("locations", len(locations)).
		Msg("Saved catalog")
	return nil
}

// LoadCatalog reads the catalog stored under name.
func (s *Store) LoadCatalog(ctx context.Context, name string) (*catalog.Catalog, error) {
	c := &catalog.Catalog{}
	err := s.pool.QueryRow(ctx, `
		SELECT version, language, source_language, relative_locations FROM ts_catalogs WHERE name = $1
	`, name).Scan(&c.Version, &c.Language, &c.SourceLanguage, &c.RelativeLocations)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query catalog %s: %w", name, err)
	}

	contexts := make(map[int64]*catalog.Context)
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, comment FROM ts_contexts WHERE catalog = $1 ORDER BY position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query contexts: %w", err)
	}
	for rows.Next() {
		var id int64
		cx := &catalog.Context{}
		if err := rows.Scan(&id, &cx.Name, &cx.Comment); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan context: %w", err)
		}
		contexts[id] = cx
		c.Contexts = append(c.Contexts, cx)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read contexts: %w", err)
	}

	messages := make(map[int64]*catalog.Message)
	rows, err = s.pool.Query(ctx, `
		SELECT m.id, m.context_id, m.msg_id, m.source, m.old_source, m.comment, m.old_comment,
		       m.extra_comment, m.translator_comment, m.translation, m.numerus, m.numerus_forms, m.type
		FROM ts_messages m
		JOIN ts_contexts x ON x.id = m.context_id
		WHERE x.catalog = $1
		ORDER BY x.position, m.position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	for rows.Next() {
		var id, contextID int64
		var typ string
		m := &catalog.Message{}
		err := rows.Scan(&id, &contextID, &m.ID, &m.Source, &m.OldSource, &m.Comment, &m.OldComment,
			&m.ExtraComment, &m.TranslatorComment, &m.Translation, &m.Numerus, &m.NumerusForms, &typ)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = catalog.TranslationType(typ)
		if len(m.NumerusForms) == 0 {
			m.NumerusForms = nil
		}
		messages[id] = m
		if cx, ok := contexts[contextID]; ok {
			cx.Messages = append(cx.Messages, m)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT l.message_id, l.file, l.line
		FROM ts_locations l
		JOIN ts_messages m ON m.id = l.message_id
		JOIN ts_contexts x ON x.id = m.context_id
		WHERE x.catalog = $1
		ORDER BY l.message_id, l.position
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	for rows.Next() {
		var messageID int64
		var loc catalog.Location
		if err := rows.Scan(&messageID, &loc.File, &loc.Line); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan location: %w", err)
		}
		if m, ok := messages[messageID]; ok {
			m.Locations = append(m.Locations, loc)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}

	log.Debug().Str("catalog", name).Int("messages", len(messages)).Msg("Loaded catalog")
	return c, nil
}

// ListCatalogs returns every stored catalog ordered by name.
func (s *Store) ListCatalogs(ctx context.Context) ([]CatalogInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.name, c.language, COUNT(m.id)
		FROM ts_catalogs c
		LEFT JOIN ts_contexts x ON x.catalog = c.name
		LEFT JOIN ts_messages m ON m.context_id = x.id
		GROUP BY c.name, c.language
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}

	infos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CatalogInfo, error) {
		var info CatalogInfo
		var count int64
		err := row.Scan(&info.Name, &info.Language, &count)
		info.Messages = int(count)
		return info, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan catalogs: %w", err)
	}
	return infos, nil
}

// DeleteCatalog removes the catalog stored under name.
func (s *Store) DeleteCatalog(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ts_catalogs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete catalog %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
