package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/communique/acebot/internal/app"
	"github.com/communique/acebot/internal/extract"
)

var (
	flagIngestURL   string
	flagIngestKind  string
	flagIngestForce bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index one document into the vector store",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&flagIngestURL, "url", "", "document URL (required)")
	ingestCmd.Flags().StringVar(&flagIngestKind, "kind", "article", "source type: article or pdf")
	ingestCmd.Flags().BoolVar(&flagIngestForce, "force", false, "re-index even if the URL is already registered")
	_ = ingestCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	kind, err := extract.ParseKind(flagIngestKind)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := a.Indexer.Ingest(ctx, flagIngestURL, kind, flagIngestForce)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", flagIngestURL, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d chunks\n", res.URL, res.Status, res.ChunksWritten)
	return nil
}
