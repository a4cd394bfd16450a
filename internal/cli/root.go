// Package cli wires the application together behind cobra commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vaibhav2543/deep-researcher/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "deep-researcher",
	Short: "Deep Researcher - upload documents and ask questions about them",
	Long: `Deep Researcher indexes uploaded documents into a local vector store
and answers natural-language questions about them using a generation
model, citing the passages each answer came from.

Example usage:
  deep-researcher serve                  # Start the HTTP API
  deep-researcher reindex                # Rebuild the index from the uploads directory
  deep-researcher query -q "key risks?"  # Ask a one-shot question`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(".")
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./researcher.yaml)")
}
