package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/communique/acebot/internal/app"
	"github.com/communique/acebot/internal/extract"
	"github.com/communique/acebot/internal/ingest"
)

var (
	flagCrawlSeed  string
	flagCrawlMax   int
	flagCrawlIndex bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover article URLs from a seed page",
	Long: `Crawl walks same-domain links breadth-first from the seed page and
prints the discovered article URLs. With --index, every discovered URL is
also ingested into the vector store.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVar(&flagCrawlSeed, "seed", "", "seed page URL (required)")
	crawlCmd.Flags().IntVar(&flagCrawlMax, "max", 0, "max links to discover (default: configured crawl budget)")
	crawlCmd.Flags().BoolVar(&flagCrawlIndex, "index", false, "ingest every discovered URL")
	_ = crawlCmd.MarkFlagRequired("seed")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	maxLinks := flagCrawlMax
	if maxLinks <= 0 {
		maxLinks = cfg.Crawl.MaxLinks
	}

	urls, err := a.Crawler.Discover(ctx, flagCrawlSeed, maxLinks)
	if err != nil {
		return fmt.Errorf("crawling %s: %w", flagCrawlSeed, err)
	}

	for _, u := range urls {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
	logger.Info("crawl complete", "discovered", len(urls))

	if !flagCrawlIndex {
		return nil
	}

	reqs := make([]ingest.Request, 0, len(urls))
	for _, u := range urls {
		reqs = append(reqs, ingest.Request{URL: u, Kind: extract.KindArticle})
	}
	results, err := a.Indexer.BulkIngest(ctx, reqs)
	if err != nil {
		return fmt.Errorf("indexing crawled URLs: %w", err)
	}

	for _, res := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.URL, res.Status)
	}
	return nil
}
