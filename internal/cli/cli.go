package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/config"
	"ts-catalog/internal/filewalker"
	"ts-catalog/internal/format"
	"ts-catalog/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "tscatalog",
		Short:        "Qt Linguist translation catalog toolkit",
		Long:         "Look up, check, convert and diff Qt Linguist .ts catalogs, and index them into PostgreSQL, pgvector and Neo4j.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(config.Load().LogLevel)
		},
	}

	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(trCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(whereCmd())
	rootCmd.AddCommand(catalogsCmd())

	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// connectPostgres opens and pings the PostgreSQL pool.
func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pgPool, nil
}

// connectNeo4j opens the Neo4j driver and verifies connectivity.
func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := neo4jDriver.VerifyConnectivity(ctx); err != nil {
		neo4jDriver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return neo4jDriver, nil
}

// loadedCatalog is a decoded catalog file.
type loadedCatalog struct {
	Path    string
	Name    string
	Catalog *catalog.Catalog
}

// catalogName derives the storage name of a catalog from its file name,
// e.g. translations/libfm-qt_he.ts → libfm-qt_he.
func catalogName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadCatalogs walks root and decodes every catalog found in parallel.
// Files that fail to decode are returned as failures next to the rest.
func loadCatalogs(ctx context.Context, registry *format.Registry, root string, workers int) ([]loadedCatalog, []error, error) {
	walker := filewalker.NewWalker(registry)
	entries, err := walker.Walk(root)
	if err != nil {
		return nil, nil, fmt.Errorf("walk catalogs: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("%w: no catalogs under %s", format.ErrUnknownFormat, root)
	}

	pool := worker.NewPool(workers, func(_ context.Context, e filewalker.FileEntry) (*catalog.Catalog, error) {
		return walker.Decode(e)
	})
	tasks := pool.Execute(ctx, entries)

	var loaded []loadedCatalog
	var failures []error
	for _, task := range tasks {
		if task.Err != nil {
			failures = append(failures, task.Err)
			continue
		}
		loaded = append(loaded, loadedCatalog{
			Path:    task.Input.Path,
			Name:    catalogName(task.Input.Path),
			Catalog: task.Result,
		})
	}

	if len(failures) > 0 {
		log.Warn().Int("failed", len(failures)).Msg("Some catalogs could not be decoded")
	}
	return loaded, failures, nil
}
