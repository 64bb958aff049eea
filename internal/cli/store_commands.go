package cli

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/config"
	"ts-catalog/internal/format"
	"ts-catalog/internal/graph"
	"ts-catalog/internal/memory"
	"ts-catalog/internal/store"
	"ts-catalog/internal/textutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newStoreSource(pool *pgxpool.Pool, domain string) *store.Source {
	return store.NewSource(store.New(pool), domain)
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Store catalogs in PostgreSQL, index translation memory and build the source graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skipGraph, _ := cmd.Flags().GetBool("skip-graph")
			skipMemory, _ := cmd.Flags().GetBool("skip-memory")
			return runImport(args[0], skipGraph, skipMemory)
		},
	}

	cmd.Flags().Bool("skip-graph", false, "Do not write the Neo4j source-location graph")
	cmd.Flags().Bool("skip-memory", false, "Do not index translation memory")

	return cmd
}

// runImport handles the `import` command.
func runImport(root string, skipGraph, skipMemory bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	// 1. Decode catalogs.
	loaded, failures, err := loadCatalogs(ctx, format.Default(), root, cfg.WorkerCount)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		return fmt.Errorf("decode catalogs: %w", failures[0])
	}

	// 2. Connect.
	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	var graphBuilder *graph.GraphBuilder
	if !skipGraph {
		neo4jDriver, err := connectNeo4j(ctx, cfg)
		if err != nil {
			return err
		}
		defer neo4jDriver.Close(ctx)

		graphBuilder = graph.NewGraphBuilder(neo4jDriver)
		if err := graphBuilder.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	catalogStore := store.New(pgPool)
	if err := catalogStore.EnsureSchema(ctx); err != nil {
		return err
	}

	var mem *memory.Memory
	if !skipMemory {
		vectorStore := memory.NewVectorStore(pgPool, cfg.EmbeddingDimensions)
		if err := vectorStore.EnsureSchema(ctx); err != nil {
			return err
		}
		mem = memory.New(vectorStore, cfg.EmbeddingDimensions, cfg.SuggestMinScore, cfg.WorkerCount)
	}

	// 3. Store, index and link each catalog.
	for _, lc := range loaded {
		if err := catalogStore.SaveCatalog(ctx, lc.Name, lc.Catalog); err != nil {
			return err
		}
		if mem != nil {
			if _, err := mem.Index(ctx, lc.Name, lc.Catalog); err != nil {
				log.Warn().Err(err).Str("catalog", lc.Name).Msg("Skipping translation memory")
			}
		}
		if graphBuilder != nil {
			if err := graphBuilder.UpsertCatalog(ctx, lc.Catalog); err != nil {
				return err
			}
		}
	}

	log.Info().Int("catalogs", len(loaded)).Msg("Import complete")
	return nil
}

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <catalog>",
		Short: "Propose translations for untranslated messages from translation memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apply, _ := cmd.Flags().GetBool("apply")
			output, _ := cmd.Flags().GetString("output")
			topK, _ := cmd.Flags().GetInt("top-k")
			return runSuggest(cmd.OutOrStdout(), args[0], apply, output, topK)
		},
	}

	cmd.Flags().Bool("apply", false, "Write suggestions into the catalog as unfinished translations")
	cmd.Flags().String("output", "", "Where to write the catalog with --apply (default: overwrite input)")
	cmd.Flags().Int("top-k", 0, "Candidates per message (default: SUGGEST_TOP_K)")

	return cmd
}

// runSuggest handles the `suggest` command.
func runSuggest(out io.Writer, path string, apply bool, output string, topK int) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if topK <= 0 {
		topK = cfg.SuggestTopK
	}

	registry := format.Default()
	c, err := registry.DecodeFile(path)
	if err != nil {
		return err
	}

	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	vectorStore := memory.NewVectorStore(pgPool, cfg.EmbeddingDimensions)
	mem := memory.New(vectorStore, cfg.EmbeddingDimensions, cfg.SuggestMinScore, cfg.WorkerCount)

	suggestions, err := mem.Fill(ctx, c, topK)
	if err != nil {
		return fmt.Errorf("fill from memory: %w", err)
	}

	for cx, m := range c.Messages() {
		if text, ok := suggestions[m.Key(cx.Name)]; ok {
			fmt.Fprintf(out, "%s / %s => %s\n", cx.Name, textutil.SingleLine(m.Source), textutil.SingleLine(text))
		}
	}

	if !apply || len(suggestions) == 0 {
		return nil
	}

	if output == "" {
		output = path
	}
	codec, err := registry.ForPath(output)
	if err != nil {
		return err
	}
	changed := c.ApplyAs(suggestions, catalog.Unfinished)
	if err := format.EncodeFile(output, codec, c); err != nil {
		return err
	}

	log.Info().Int("applied", changed).Str("output", output).Msg("Applied suggestions")
	return nil
}

func whereCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where [source-file]",
		Short: "List the messages extracted from a source file, with their translations",
		Long:  "Without an argument, lists every source file in the graph with its message count.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runWhere(cmd.OutOrStdout(), "")
			}
			return runWhere(cmd.OutOrStdout(), args[0])
		},
	}
}

// runWhere handles the `where` command.
func runWhere(out io.Writer, sourceFile string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	neo4jDriver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer neo4jDriver.Close(ctx)

	querier := graph.NewGraphQuerier(neo4jDriver)

	if sourceFile == "" {
		files, err := querier.SourceFiles(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%d\n", f.Path, f.Messages)
		}
		return tw.Flush()
	}

	refs, err := querier.MessagesInFile(ctx, sourceFile)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		fmt.Fprintf(out, "%s:%d\t%s\t%s\n", ref.File, ref.Line, ref.Context, textutil.Truncate(textutil.SingleLine(ref.Source), 60))
		langs := lo.Keys(ref.Translations)
		slices.Sort(langs)
		for _, lang := range langs {
			fmt.Fprintf(out, "\t%s: %s\n", lang, textutil.Truncate(textutil.SingleLine(ref.Translations[lang]), 60))
		}
	}
	return nil
}

func catalogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogs",
		Short: "List catalogs stored in PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetString("delete")
			return runCatalogs(cmd.OutOrStdout(), remove)
		},
	}

	cmd.Flags().String("delete", "", "Remove the named catalog instead of listing")

	return cmd
}

// runCatalogs handles the `catalogs` command.
func runCatalogs(out io.Writer, remove string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	catalogStore := store.New(pgPool)

	if remove != "" {
		if err := catalogStore.DeleteCatalog(ctx, remove); err != nil {
			return err
		}
		log.Info().Str("catalog", remove).Msg("Deleted catalog")
		return nil
	}

	infos, err := catalogStore.ListCatalogs(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLANGUAGE\tMESSAGES")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", info.Name, info.Language, info.Messages)
	}
	return tw.Flush()
}
