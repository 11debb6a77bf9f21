package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ArxivReader/internal/config"
	"ArxivReader/internal/domain"
	"ArxivReader/internal/logging"
)

// cli carries flag values and the state resolved before a subcommand runs.
type cli struct {
	out io.Writer

	configPath string
	logLevel   string
	dateRange  string
	categories []string
	search     string
	quick      string
	limit      int
	asJSON     bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "arxivreader",
		Short: "Read the daily arXiv feeds from the terminal",
		Long: `arxivreader fetches the configured arXiv category feeds, merges and
deduplicates them, and prints the subset matching your filters.

Use "today" for the daily announcement feeds, or "week"/"month" for a
date-ranged query over the active categories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to YAML config (default $ARXIV_READER_CONFIG)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newFetchCmd(c),
		newWatchCmd(c),
		newBookmarksCmd(c),
		newRelayCmd(c),
	)
	return root
}

// addFilterFlags registers the filter flags shared by fetch and watch.
func (c *cli) addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.dateRange, "range", "r", "", "date range: today, week or month")
	cmd.Flags().StringSliceVarP(&c.categories, "category", "c", nil, "active categories (repeatable, default all)")
	cmd.Flags().StringVarP(&c.search, "search", "s", "", "free-text search over title, abstract and authors")
	cmd.Flags().StringVarP(&c.quick, "quick", "q", "", "quick filter key (e.g. llm, agents, vision)")
	cmd.Flags().IntVarP(&c.limit, "limit", "n", 0, "print at most n papers (0 for all)")
	cmd.Flags().BoolVar(&c.asJSON, "json", false, "print papers as JSON")
}

func (c *cli) setup() error {
	path := c.configPath
	if path == "" {
		path = os.Getenv("ARXIV_READER_CONFIG")
	}
	c.cfg = config.LoadFrom(path)

	if c.logLevel != "" {
		c.cfg.Logging.Level = c.logLevel
	}
	c.logger = logging.New(c.cfg.Logging.Level, c.cfg.Logging.Format)

	if c.dateRange != "" {
		r, err := domain.ParseDateRange(c.dateRange)
		if err != nil {
			return fmt.Errorf("--range: %w", err)
		}
		c.cfg.Defaults.DateRange = string(r)
	}
	if len(c.categories) > 0 {
		if err := c.checkCategories(); err != nil {
			return err
		}
		c.cfg.Defaults.ActiveCategories = c.categories
	}
	if c.quick != "" {
		c.cfg.Defaults.QuickFilter = c.quick
	}
	return nil
}

func (c *cli) checkCategories() error {
	known := map[string]bool{}
	for _, s := range c.cfg.DomainSources() {
		known[s.ID] = true
	}
	for _, id := range c.categories {
		if !known[id] {
			return fmt.Errorf("--category: unknown category %q", id)
		}
	}
	return nil
}
