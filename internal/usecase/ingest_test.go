package usecase

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/internal/adapter/chunker"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/extract"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
)

func newTestIngest(t *testing.T) (*IngestUseCase, *IndexUseCase) {
	t.Helper()
	idx, _ := newTestIndex(t, filepath.Join(t.TempDir(), "index.db"))
	ing := NewIngestUseCase(extract.NewFileExtractor(), chunker.NewWindowChunker(100, 20), idx, zap.NewNop())
	return ing, idx
}

func testDoc(name string, data []byte) domain.Document {
	return domain.Document{
		ID:      name,
		Name:    name,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
}

func indexedNames(report IngestReport) []string {
	names := make([]string, 0, len(report.Indexed))
	for _, d := range report.Indexed {
		names = append(names, d.Name)
	}
	return names
}

func TestIngestFile(t *testing.T) {
	ing, idx := newTestIngest(t)

	data := []byte(strings.Repeat("Quarterly revenue grew. ", 20))
	added, err := ing.IngestFile(testDoc("report.txt", data), data)
	require.NoError(t, err)
	assert.Greater(t, added, 1)
	assert.Equal(t, added, idx.Count())
	assert.Equal(t, []string{"report.txt"}, idx.Sources())
}

func TestIngestFileEmpty(t *testing.T) {
	ing, idx := newTestIngest(t)

	data := []byte("   \n\t  ")
	_, err := ing.IngestFile(testDoc("blank.txt", data), data)
	assert.ErrorIs(t, err, extract.ErrNoText)
	assert.Zero(t, idx.Count())
}

func TestIngestBatchContinuesPastFailures(t *testing.T) {
	ing, idx := newTestIngest(t)

	good := []byte("The first document has useful content.")
	broken := []byte("not a zip archive")
	alsoGood := []byte("The second document also has content.")
	report := ing.IngestBatch([]FileInput{
		{Doc: testDoc("good.txt", good), Data: good},
		{Doc: testDoc("broken.docx", broken), Data: broken},
		{Doc: testDoc("also-good.txt", alsoGood), Data: alsoGood},
	})

	assert.Equal(t, []string{"good.txt", "also-good.txt"}, indexedNames(report))
	assert.Equal(t, []string{"broken.docx"}, report.Skipped)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, report.ChunksAdded, idx.Count())
	assert.ElementsMatch(t, []string{"good.txt", "also-good.txt"}, idx.Sources())
}

func TestIngestBatchReportsDocumentMetadata(t *testing.T) {
	ing, _ := newTestIngest(t)

	data := []byte("A memo about the merger timeline and its milestones.")
	doc := testDoc("memo.txt", data)
	report := ing.IngestBatch([]FileInput{{Doc: doc, Data: data}})

	require.Len(t, report.Indexed, 1)
	assert.Equal(t, doc.ID, report.Indexed[0].ID)
	assert.Equal(t, int64(len(data)), report.Indexed[0].Size)
	assert.False(t, report.Indexed[0].ModTime.IsZero())
}
