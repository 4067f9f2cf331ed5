// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubgrab CLI: it compiles an
// HTML bibliography from the CRISTIN registry for a list of authors.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nmbu-cigene/pubgrab/internal/bibliography"
	"github.com/nmbu-cigene/pubgrab/internal/cache"
	"github.com/nmbu-cigene/pubgrab/internal/registry"
	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pubgrab [authors...]",
	Short: "Compile an HTML bibliography from CRISTIN for a list of authors",
	Long: `pubgrab queries the CRISTIN database of Norwegian scientific publications
for each author name, removes duplicate records, groups them by category and
year, and writes a complete HTML document to standard output.

An author may also be given as a numeric CRISTIN person ID. When no authors
appear on the command line they are read one per line from standard input:

  pubgrab 'Dag Inge Våge' 'Sigbjørn Lien' > publications.html
  pubgrab < people.txt > publications.html

Registry responses are cached on disk between runs. --clear empties the cache
before anything else; with no authors given the command exits right after
clearing, without reading standard input.

Diagnostics go to standard error so the HTML payload on standard output stays
clean. A failing author query is logged and skipped; the remaining authors'
publications are still rendered.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubgrab.yaml or ~/.config/pubgrab/config.yaml)")

	rootCmd.Flags().BoolP("debug", "d", false, "log debug messages to standard error")
	rootCmd.Flags().Int("fra", 0, "earliest publication year to include (0 = no lower bound)")
	rootCmd.Flags().Int("til", 0, "latest publication year to include (0 = no upper bound)")
	rootCmd.Flags().String("hovedkategori", "TIDSSKRIFTPUBL", "CRISTIN hovedkategori code to fetch")
	rootCmd.Flags().Bool("clear", false, "clear the response cache before running")
	rootCmd.Flags().Bool("json", false, "output deduplicated records as JSON instead of HTML")
	rootCmd.Flags().String("save", "", "also write the run (query, summary, records) to a YAML file")
	rootCmd.Flags().Int("workers", 0, "concurrent author queries (0 = config default)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubgrab")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubgrab"))
		}
	}

	viper.SetEnvPrefix("PUBGRAB")
	viper.AutomaticEnv()

	viper.SetDefault("registry.person_base_url", "https://api.cristin.no/v1/persons")
	viper.SetDefault("registry.results_base_url", "http://www.cristin.no/ws/hentVarbeiderPerson")
	viper.SetDefault("registry.timeout", "30s")
	viper.SetDefault("registry.user_agent", "pubgrab/"+version)
	viper.SetDefault("registry.workers", 4)
	viper.SetDefault("registry.max_retries", 3)
	viper.SetDefault("registry.per_page", 50)
	viper.SetDefault("cache.dir", filepath.Join(os.TempDir(), "pubgrab-cache"))
	viper.SetDefault("render.title", "Publications")
	viper.SetDefault("render.category_order", []string{
		"TIDSSKRIFTPUBL", "BOK", "BOKRAPPORTDEL", "RAPPORT", "FOREDRAG", "MEDIEBIDRAG",
	})

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func loadConfig() types.Config {
	return types.Config{
		Registry: types.RegistryConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("registry.timeout"),
				UserAgent: viper.GetString("registry.user_agent"),
			},
			PersonBaseURL:  viper.GetString("registry.person_base_url"),
			ResultsBaseURL: viper.GetString("registry.results_base_url"),
			Workers:        viper.GetInt("registry.workers"),
			MaxRetries:     viper.GetInt("registry.max_retries"),
			PerPage:        viper.GetInt("registry.per_page"),
		},
		Cache: types.CacheConfig{
			Dir:      viper.GetString("cache.dir"),
			Disabled: viper.GetBool("cache.disabled"),
		},
		Render: types.RenderConfig{
			Title:            viper.GetString("render.title"),
			CategoryOrder:    viper.GetStringSlice("render.category_order"),
			CitationTemplate: viper.GetString("render.citation_template"),
		},
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg := loadConfig()

	fra, _ := cmd.Flags().GetInt("fra")
	til, _ := cmd.Flags().GetInt("til")
	category, _ := cmd.Flags().GetString("hovedkategori")
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Registry.Workers = workers
	}

	// Reject bad input before any cache or network activity.
	if fra > 0 && til > 0 && fra > til {
		return fmt.Errorf("invalid year range: --fra %d is after --til %d", fra, til)
	}

	var store *cache.Store
	if !cfg.Cache.Disabled {
		s, err := cache.Open(cfg.Cache.Dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.Cache.Dir).Msg("cache unavailable, falling back to direct network calls")
		} else {
			store = s
			defer store.Close()
		}
	}

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		if store != nil {
			if err := store.Clear(); err != nil {
				log.Warn().Err(err).Msg("cache clear failed")
			} else {
				log.Debug().Msg("cache cleared")
			}
		}
		if len(args) == 0 {
			return nil
		}
	}

	authors := args
	if len(authors) == 0 {
		var err error
		authors, err = readAuthors(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading authors from stdin: %w", err)
		}
	}
	if len(authors) == 0 {
		log.Warn().Msg("no authors given")
		return nil
	}
	log.Debug().Strs("authors", authors).Msg("author list")

	queries := make([]registry.Query, 0, len(authors))
	for _, a := range authors {
		q := registry.Query{Author: a, FromYear: fra, ToYear: til, Category: category}
		if err := q.Validate(); err != nil {
			return err
		}
		queries = append(queries, q)
	}

	var rc registry.ResponseCache
	if store != nil {
		rc = store
	}
	client := registry.NewClient(cfg.Registry, rc, log)

	out := registry.FetchAll(cmd.Context(), client, queries, cfg.Registry.Workers)
	for _, f := range out.Failures {
		log.Warn().Str("author", f.Author).Err(f.Err).Msg("skipping author")
	}

	deduped, removed := bibliography.Deduplicate(out.Publications)
	log.Debug().
		Int("records", len(deduped)).
		Int("duplicates_removed", removed).
		Int("failures", len(out.Failures)).
		Msg("fetch complete")

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		failures := make([]string, 0, len(out.Failures))
		for _, f := range out.Failures {
			failures = append(failures, fmt.Sprintf("%s: %v", f.Author, f.Err))
		}
		rq := bibliography.RunQuery{Authors: authors, FromYear: fra, ToYear: til, Category: category}
		if err := bibliography.WriteRunFile(save, rq, deduped, removed, failures); err != nil {
			return err
		}
		log.Debug().Str("path", save).Msg("run file written")
	}

	w := cmd.OutOrStdout()
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(deduped)
	}

	renderer, err := bibliography.NewRenderer(cfg.Render)
	if err != nil {
		return err
	}
	doc, err := renderer.Render(bibliography.Aggregate(deduped, cfg.Render.CategoryOrder))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}

// readAuthors reads one author per line, skipping blanks. Input is
// treated as UTF-8 throughout.
func readAuthors(r io.Reader) ([]string, error) {
	var authors []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			authors = append(authors, line)
		}
	}
	return authors, sc.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
