package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Reference is a message located in a source file.
type Reference struct {
	File         string
	Line         int
	Context      string
	Source       string
	Comment      string
	Translations map[string]string // language → text
}

// FileInfo counts the messages located in one source file.
type FileInfo struct {
	Path     string
	Messages int
}

// GraphQuerier reads the source-location graph.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a new graph querier.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// MessagesInFile returns the messages located in path, ordered by line.
// A path also matches any recorded path ending in "/"+path, so
// "fileoperation.cpp" finds "../fileoperation.cpp".
func (gq *GraphQuerier) MessagesInFile(ctx context.Context, path string) ([]Reference, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (c:Context)-[:CONTAINS]->(m:Message)-[r:LOCATED_IN]->(f:SourceFile)
		WHERE f.path = $path OR f.path ENDS WITH $suffix
		OPTIONAL MATCH (m)-[:TRANSLATED_AS]->(t:Translation)
		RETURN f.path AS file, r.line AS line, c.name AS context, m.source AS source,
		       m.comment AS comment, collect(t.language) AS languages, collect(t.text) AS texts
		ORDER BY line, source
	`, map[string]any{
		"path":   path,
		"suffix": "/" + strings.TrimPrefix(path, "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("query messages in file: %w", err)
	}

	var refs []Reference
	for result.Next(ctx) {
		record := result.Record()
		file, _ := record.Get("file")
		line, _ := record.Get("line")
		ctxName, _ := record.Get("context")
		source, _ := record.Get("source")
		comment, _ := record.Get("comment")
		languages, _ := record.Get("languages")
		texts, _ := record.Get("texts")

		ref := Reference{
			File:         asString(file),
			Line:         asInt(line),
			Context:      asString(ctxName),
			Source:       asString(source),
			Comment:      asString(comment),
			Translations: zipTranslations(languages, texts),
		}
		refs = append(refs, ref)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read messages in file: %w", err)
	}

	log.Debug().Str("path", path).Int("references", len(refs)).Msg("Graph query complete")
	return refs, nil
}

// SourceFiles lists every source file with its message count.
func (gq *GraphQuerier) SourceFiles(ctx context.Context) ([]FileInfo, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (m:Message)-[:LOCATED_IN]->(f:SourceFile)
		RETURN f.path AS path, count(DISTINCT m) AS messages
		ORDER BY path
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("query source files: %w", err)
	}

	var files []FileInfo
	for result.Next(ctx) {
		record := result.Record()
		path, _ := record.Get("path")
		messages, _ := record.Get("messages")
		files = append(files, FileInfo{Path: asString(path), Messages: asInt(messages)})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read source files: %w", err)
	}
	return files, nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func zipTranslations(languages, texts any) map[string]string {
	ls, _ := languages.([]any)
	ts, _ := texts.([]any)
	out := make(map[string]string)
	for i := range min(len(ls), len(ts)) {
		lang, text := asString(ls[i]), asString(ts[i])
		if lang != "" {
			out[lang] = text
		}
	}
	return out
}
