package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Vaibhav2543/deep-researcher/internal/adapter/fs"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/index"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the index from the uploads directory",
	Long: `Clear the existing index and re-ingest every document found in the
uploads directory. Use this after deleting uploaded files or changing
chunking settings.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	walker := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	files, err := walker.Walk(cfg.Server.UploadsDir)
	if err != nil {
		return fmt.Errorf("failed to scan uploads directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No documents found, index cleared.")
		return a.index.Reset(index.New(cfg.Index.Backend))
	}

	if err := a.index.Reset(index.New(cfg.Index.Backend)); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Indexing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var indexed, skipped, chunks int
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			skipped++
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", f.Name, err)
			bar.Add(1)
			continue
		}

		doc := domain.Document{
			ID:      uuid.NewString(),
			Name:    f.Name,
			Size:    f.Size,
			ModTime: time.Unix(f.ModTime, 0),
		}
		added, err := a.ingest.IngestFile(doc, data)
		if err != nil {
			skipped++
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", f.Name, err)
			bar.Add(1)
			continue
		}

		indexed++
		chunks += added
		bar.Add(1)
	}
	bar.Finish()

	fmt.Printf("Indexed %d documents (%d chunks), skipped %d.\n", indexed, chunks, skipped)
	return nil
}
