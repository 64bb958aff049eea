package graph

import (
	"context"
	"fmt"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/textutil"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// GraphBuilder writes catalogs into the Neo4j source-location graph:
//
//	(:Context)-[:CONTAINS]->(:Message)-[:LOCATED_IN {line}]->(:SourceFile)
//	(:Message)-[:TRANSLATED_AS {language}]->(:Translation)
type GraphBuilder struct {
	driver neo4j.DriverWithContext
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder(driver neo4j.DriverWithContext) *GraphBuilder {
	return &GraphBuilder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (gb *GraphBuilder) EnsureSchema(ctx context.Context) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Context) REQUIRE c.name IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (m:Message) REQUIRE m.key IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:SourceFile) REQUIRE f.path IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Translation) REQUIRE t.key IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// MessageKey identifies a message node independently of language.
func MessageKey(k catalog.Key) string {
	return textutil.Hash(k.Context, k.Source, k.Comment)
}

// messageRows flattens the live messages of c into UNWIND parameters.
func messageRows(c *catalog.Catalog) []any {
	var rows []any
	for cx, m := range c.Messages() {
		if m.Type.Retired() {
			continue
		}
		key := m.Key(cx.Name)

		locations := make([]any, 0, len(m.Locations))
		for _, loc := range m.Locations {
			locations = append(locations, map[string]any{
				"file": loc.File,
				"line": int64(loc.Line),
			})
		}

		translation := ""
		if c.Language != "" && m.Translated() {
			translation = m.Text()
		}

		rows = append(rows, map[string]any{
			"context":        cx.Name,
			"key":            MessageKey(key),
			"source":         m.Source,
			"comment":        m.Comment,
			"locations":      locations,
			"language":       c.Language,
			"translation":    translation,
			"translationKey": textutil.Hash(c.Language, key.Context, key.Source, key.Comment),
			"type":           string(m.Type),
		})
	}
	return rows
}

const upsertMessages = `
	UNWIND $rows AS row
	MERGE (c:Context {name: row.context})
	MERGE (m:Message {key: row.key})
	SET m.source = row.source, m.comment = row.comment
	MERGE (c)-[:CONTAINS]->(m)
	WITH m, row
	OPTIONAL MATCH (m)-[old:LOCATED_IN]->(:SourceFile)
	DELETE old
	WITH DISTINCT m, row
	FOREACH (loc IN row.locations |
		MERGE (f:SourceFile {path: loc.file})
		MERGE (m)-[:LOCATED_IN {line: loc.line}]->(f)
	)
	FOREACH (_ IN CASE WHEN row.translation <> '' THEN [1] ELSE [] END |
		MERGE (t:Translation {key: row.translationKey})
		SET t.text = row.translation, t.language = row.language, t.type = row.type
		MERGE (m)-[:TRANSLATED_AS {language: row.language}]->(t)
	)
`

// UpsertCatalog merges the live messages of c into the graph in one write
// transaction. Retired messages are left out.
func (gb *GraphBuilder) UpsertCatalog(ctx context.Context, c *catalog.Catalog) error {
	rows := messageRows(c)
	if len(rows) == 0 {
		return nil
	}

	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, upsertMessages, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("upsert catalog graph: %w", err)
	}

	log.Info().
		Str("language", c.Language).
		Int("messages", len(rows)).
		Msg("Upserted catalog graph")
	return nil
}
