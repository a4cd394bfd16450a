package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vaibhav2543/deep-researcher/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Ask a one-shot question against the index",
	Long: `Ask a question and wait for the answer, without starting the server.

Examples:
  deep-researcher query -q "what are the key risks?"
  deep-researcher query -q "summarize the budget" --top-k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "question", "q", "", "question to ask (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("question")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.answer.Answer(context.Background(), queryText, queryTopK)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyIndex) {
			return fmt.Errorf("no documents indexed. Upload documents or run 'deep-researcher reindex' first")
		}
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range result.Sources {
			fmt.Printf("  %s (dist %.4f)\n", s.Source, s.Dist)
		}
	}
	return nil
}
