package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codemap/internal/cache"
	"codemap/internal/config"
	"codemap/internal/crawler"
	"codemap/internal/export"
	"codemap/internal/parser"
	"codemap/internal/queries"
	"codemap/internal/rank"
	"codemap/internal/repomap"
)

var (
	rootCmd = &cobra.Command{
		Use:   "codemap",
		Short: "Importance-ranked code maps from tree-sitter tags",
	}

	configPath string
	logLevel   string

	mentionFiles  []string
	mentionIdents []string
	maxTokens     int
	noCache       bool
	outPath       string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "codemap.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		chosen := logLevel
		if f := cmd.Flag("log-level"); f != nil && !f.Changed {
			if cfg, err := config.Load(configPath); err == nil && cfg.LogLevel != "" {
				chosen = cfg.LogLevel
			}
		}
		level, err := zerolog.ParseLevel(chosen)
		if err != nil {
			level = zerolog.WarnLevel
		}
		zerolog.SetGlobalLevel(level)
	}

	mapCmd.Flags().StringSliceVar(&mentionFiles, "mention-file", nil, "File to bias ranking toward (repeatable)")
	mapCmd.Flags().StringSliceVar(&mentionIdents, "mention-ident", nil, "Identifier to bias ranking toward (repeatable)")
	mapCmd.Flags().IntVar(&maxTokens, "tokens", 1024, "Approximate token budget for the map (0 = unbounded)")
	mapCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the persistent tag cache")

	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the persistent tag cache")

	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the JSON index to this file instead of stdout")
	exportCmd.Flags().StringSliceVar(&mentionFiles, "mention-file", nil, "File to bias ranking toward (repeatable)")
	exportCmd.Flags().StringSliceVar(&mentionIdents, "mention-ident", nil, "Identifier to bias ranking toward (repeatable)")

	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(scanCmd, mapCmd, sexpCmd, exportCmd, cacheCmd)
}

// initBuilder wires the pipeline from configuration. The cache may be nil
// when opening it fails; extraction then just runs uncached.
func initBuilder() (*repomap.Builder, *cache.TagCache) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Warn().Err(err).Str("config", configPath).Msg("bad config, using defaults")
		cfg = config.Default()
	}

	var tagCache *cache.TagCache
	if cfg.Cache.Location != "" {
		tagCache, err = cache.Open(cfg.Cache.Location)
		if err != nil {
			log.Warn().Err(err).Str("location", cfg.Cache.Location).Msg("cache unavailable, parsing fresh")
			tagCache = nil
		}
	}

	p := parser.New(queries.NewCatalog(), tagCache)
	c := crawler.New(p, cfg.Crawl.Workers, cfg.Crawl.Ignore...)
	r := rank.New(cfg.Rank)
	return repomap.NewBuilder(c, r), tagCache
}

func openCache() (*cache.TagCache, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.Default()
	}
	return cache.Open(cfg.Cache.Location)
}

func argRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Extract tags for the whole repository and warm the cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, tagCache := initBuilder()
		if tagCache != nil {
			defer tagCache.Close()
		}

		ranked, err := builder.RankedTags(cmd.Context(), argRoot(args), repomap.Options{
			UseCache: !noCache,
		})
		if err != nil {
			return err
		}

		files := make(map[string]struct{})
		for i := range ranked {
			files[ranked[i].File] = struct{}{}
		}
		fmt.Printf("%d tags across %d files\n", len(ranked), len(files))
		if tagCache != nil {
			st := tagCache.GetStats()
			fmt.Printf("cache: %d files, %d tags at %s\n", st.CachedFiles, st.TotalTags, st.Location)
		}
		return nil
	},
}

var mapCmd = &cobra.Command{
	Use:   "map [path]",
	Short: "Print the ranked repository map",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, tagCache := initBuilder()
		if tagCache != nil {
			defer tagCache.Close()
		}

		root := argRoot(args)
		text, err := builder.Build(cmd.Context(), root, repomap.Options{
			ContextFiles:    mentionFiles,
			MentionedIdents: mentionIdents,
			MaxTokens:       maxTokens,
			UseCache:        !noCache,
		})
		if err != nil {
			return err
		}
		repomap.LogSummary(root, text)
		fmt.Print(text)
		return nil
	},
}

var sexpCmd = &cobra.Command{
	Use:   "sexp <file>",
	Short: "Dump a file's syntax tree as an S-expression (debugging)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := parser.New(queries.NewCatalog(), nil)
		out, err := p.ParseFileToSexp(args[0])
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the ranked index as validated JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		builder, tagCache := initBuilder()
		if tagCache != nil {
			defer tagCache.Close()
		}

		root := argRoot(args)
		ranked, err := builder.RankedTags(cmd.Context(), root, repomap.Options{
			ContextFiles:    mentionFiles,
			MentionedIdents: mentionIdents,
			UseCache:        true,
		})
		if err != nil {
			return err
		}

		doc := export.BuildDocument(root, ranked)
		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return export.Write(out, doc)
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent tag cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache contents and size",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		st := c.GetStats()
		fmt.Printf("location:    %s\n", st.Location)
		fmt.Printf("files:       %d\n", st.CachedFiles)
		fmt.Printf("tags:        %d\n", st.TotalTags)
		fmt.Printf("size bytes:  %d\n", st.SizeBytes)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Clear(); err != nil {
			return err
		}
		fmt.Println("cache cleared")
		return nil
	},
}
