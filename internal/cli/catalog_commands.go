package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/config"
	"ts-catalog/internal/format"
	"ts-catalog/internal/interpolation"
	"ts-catalog/internal/lint"
	"ts-catalog/internal/revision"
	"ts-catalog/internal/translator"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <catalog> <context> <source>",
		Short: "Translate one message, falling back to the source text",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			comment, _ := cmd.Flags().GetString("comment")
			qtFallback, _ := cmd.Flags().GetBool("qt-fallback")
			skipUnfinished, _ := cmd.Flags().GetBool("skip-unfinished")
			return runLookup(cmd.OutOrStdout(), args[0], args[1], args[2], comment, qtFallback, skipUnfinished)
		},
	}

	cmd.Flags().String("comment", "", "Disambiguation comment")
	cmd.Flags().Bool("qt-fallback", false, "Retry without the comment on a miss, like the Qt runtime")
	cmd.Flags().Bool("skip-unfinished", false, "Ignore translations marked unfinished")

	return cmd
}

func runLookup(out io.Writer, path, context, source, comment string, qtFallback, skipUnfinished bool) error {
	c, err := format.Default().DecodeFile(path)
	if err != nil {
		return err
	}

	var opts []catalog.IndexOption
	if qtFallback {
		opts = append(opts, catalog.WithCommentFallback())
	}
	if skipUnfinished {
		opts = append(opts, catalog.WithoutUnfinished())
	}

	_, err = fmt.Fprintln(out, catalog.NewIndex(c, opts...).Translate(context, source, comment))
	return err
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Check catalogs for duplicate keys, missing locations and placeholder mismatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minSeverity, _ := cmd.Flags().GetString("min-severity")
			return runCheck(cmd.OutOrStdout(), args[0], minSeverity)
		},
	}

	cmd.Flags().String("min-severity", "warning", "Lowest severity to print: info, warning or error")

	return cmd
}

func runCheck(out io.Writer, root, minSeverity string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	severity, err := lint.ParseSeverity(minSeverity)
	if err != nil {
		return err
	}

	loaded, failures, err := loadCatalogs(ctx, format.Default(), root, cfg.WorkerCount)
	if err != nil {
		return err
	}

	failed := len(failures)
	for _, f := range failures {
		fmt.Fprintf(out, "error: %v\n", f)
	}

	for _, lc := range loaded {
		report := lint.Check(lc.Catalog, lint.Options{ExemptLocations: cfg.ExemptLocations})
		fmt.Fprintf(out, "%s: %d errors, %d warnings, %d info\n",
			lc.Path, report.Count(lint.Error), report.Count(lint.Warning), report.Count(lint.Info))
		for _, f := range report.Findings {
			if f.Severity >= severity {
				fmt.Fprintf(out, "  %s\n", f)
			}
		}
		if report.HasErrors() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d catalogs failed the check", failed, len(loaded)+len(failures))
	}
	return nil
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a catalog to ts, json, po or csv",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			return runConvert(args[0], args[1], formatName)
		},
	}

	cmd.Flags().String("format", "", "Output format (default: from the output extension)")

	return cmd
}

func runConvert(input, output, formatName string) error {
	registry := format.Default()

	c, err := registry.DecodeFile(input)
	if err != nil {
		return err
	}

	var codec format.Codec
	if formatName != "" {
		codec, err = registry.ByName(formatName)
	} else {
		codec, err = registry.ForPath(output)
	}
	if err != nil {
		return err
	}

	if err := format.EncodeFile(output, codec, c); err != nil {
		return err
	}

	log.Info().Str("input", input).Str("output", output).Str("format", codec.Name()).Msg("Converted catalog")
	return nil
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <path>",
		Short: "Show translation progress per catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.OutOrStdout(), args[0])
		},
	}
}

func runStats(out io.Writer, root string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	loaded, failures, err := loadCatalogs(ctx, format.Default(), root, cfg.WorkerCount)
	if err != nil {
		return err
	}
	if len(loaded) == 0 && len(failures) > 0 {
		return failures[0]
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATALOG\tLANGUAGE\tCONTEXTS\tMESSAGES\tFINISHED\tUNFINISHED\tEMPTY\tOBSOLETE\tDONE")
	for _, lc := range loaded {
		s := lc.Catalog.Stats()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			lc.Name, lc.Catalog.Language, s.Contexts, s.Messages,
			s.Finished, s.Unfinished, s.Empty, s.Obsolete, progress(s))
	}
	return tw.Flush()
}

func progress(s catalog.Stats) string {
	live := s.Messages - s.Obsolete
	if live == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Finished)*100/float64(live))
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <base-rev> <target-rev> <path>",
		Short: "Show message changes to catalogs between two git revisions",
		Long: `Compares catalogs as they were at two git revisions. <path> may be a
single catalog or a directory, in which case every changed catalog under it
is compared.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), args[0], args[1], args[2])
		},
	}
}

func runDiff(out io.Writer, base, target, path string) error {
	ctx, cancel := setupContext()
	defer cancel()

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	loader := revision.NewGitLoader(format.Default())

	files := []string{path}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		files, err = loader.ChangedCatalogs(ctx, dir, base, target, path)
		if err != nil {
			return err
		}
	}

	for _, file := range files {
		changes, err := loader.DiffFile(ctx, dir, base, target, file)
		if err != nil {
			return fmt.Errorf("diff %s: %w", file, err)
		}
		summary := revision.Summary(changes)
		fmt.Fprintf(out, "== %s (%d added, %d removed, %d retranslated, %d relocated)\n", file,
			summary[revision.Added], summary[revision.Removed],
			summary[revision.Retranslated], summary[revision.Relocated])
		for _, c := range changes {
			fmt.Fprintln(out, c)
		}
	}
	return nil
}

func trCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tr <context> <source> [args...]",
		Short: "Translate a message through the runtime translator and fill in %N arguments",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			dir, _ := cmd.Flags().GetString("dir")
			domain, _ := cmd.Flags().GetString("domain")
			comment, _ := cmd.Flags().GetString("comment")
			fromDB, _ := cmd.Flags().GetBool("from-db")
			return runTr(cmd.OutOrStdout(), trOptions{
				lang:    lang,
				dir:     dir,
				domain:  domain,
				comment: comment,
				fromDB:  fromDB,
			}, args[0], args[1], args[2:])
		},
	}

	cmd.Flags().String("lang", "", "Language to load (default: DEFAULT_LANGUAGE)")
	cmd.Flags().String("dir", "", "Catalog directory (default: CATALOG_DIR)")
	cmd.Flags().String("domain", "", "Catalog file prefix (default: CATALOG_DOMAIN)")
	cmd.Flags().String("comment", "", "Disambiguation comment")
	cmd.Flags().Bool("from-db", false, "Load catalogs from PostgreSQL instead of the directory")

	return cmd
}

type trOptions struct {
	lang    string
	dir     string
	domain  string
	comment string
	fromDB  bool
}

func runTr(out io.Writer, opts trOptions, context, source string, args []string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if opts.lang == "" {
		opts.lang = cfg.DefaultLanguage
	}
	if opts.dir == "" {
		opts.dir = cfg.CatalogDir
	}
	if opts.domain == "" {
		opts.domain = cfg.CatalogDomain
	}

	src, closeSource, err := translationSource(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer closeSource()

	tr := translator.New(src, translator.WithFallback(cfg.FallbackLanguage))
	if err := tr.Use(ctx, opts.lang); err != nil {
		if !errors.Is(err, translator.ErrNoCatalog) {
			return err
		}
		log.Warn().Err(err).Str("lang", opts.lang).Msg("No catalog, showing source text")
	}

	text := tr.Tr(context, source, args...)
	if opts.comment != "" {
		text = interpolation.Arg(tr.Translate(context, source, opts.comment), args...)
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func translationSource(ctx context.Context, cfg *config.Config, opts trOptions) (translator.Source, func(), error) {
	if !opts.fromDB {
		return translator.NewDirSource(opts.dir, opts.domain, format.Default()), func() {}, nil
	}
	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return newStoreSource(pgPool, opts.domain), pgPool.Close, nil
}
