package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/communique/acebot/internal/app"
)

var flagAskSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&flagAskSession, "session", "", "session id for conversation continuity")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	sessionID := flagAskSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	question := strings.Join(args, " ")
	resp, err := a.Answerer.Answer(ctx, question, sessionID)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Text)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, src := range resp.Sources {
			fmt.Fprintf(out, "  - %s (%s)\n", src.Source, src.URL)
		}
	}
	return nil
}
