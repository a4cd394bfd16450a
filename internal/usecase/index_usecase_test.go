package usecase

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/internal/adapter/embedding"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/index"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/store"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
)

func newTestIndex(t *testing.T, path string) (*IndexUseCase, *store.BoltStore) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	u, err := NewIndexUseCase(embedding.NewMockEmbedder(64), index.NewBruteForce(), st, zap.NewNop())
	require.NoError(t, err)
	return u, st
}

func chunksFor(source string, texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, txt := range texts {
		out[i] = domain.Chunk{ID: source + "-" + txt[:3], Source: source, Seq: i, Text: txt}
	}
	return out
}

func TestIndexAddAndSearch(t *testing.T) {
	u, _ := newTestIndex(t, filepath.Join(t.TempDir(), "index.db"))

	n, err := u.Add(chunksFor("notes.txt",
		"cats sleep most of the day",
		"dogs enjoy long walks outside",
		"the stock market closed higher today"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, u.Count())

	results, err := u.Search("cats sleep most of the day", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "cats sleep most of the day", results[0].Chunk.Text)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
	}
}

func TestIndexSearchEmpty(t *testing.T) {
	u, _ := newTestIndex(t, filepath.Join(t.TempDir(), "index.db"))

	_, err := u.Search("anything", 3)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestIndexSearchDeduplicatesTexts(t *testing.T) {
	u, _ := newTestIndex(t, filepath.Join(t.TempDir(), "index.db"))

	_, err := u.Add([]domain.Chunk{
		{ID: "a1", Source: "a.txt", Seq: 0, Text: "identical passage"},
		{ID: "b1", Source: "b.txt", Seq: 0, Text: "identical passage"},
	})
	require.NoError(t, err)

	results, err := u.Search("identical passage", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIndexSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	u, err := NewIndexUseCase(embedding.NewMockEmbedder(64), index.NewBruteForce(), st, zap.NewNop())
	require.NoError(t, err)
	_, err = u.Add(chunksFor("doc.txt", "persisted content about whales"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reloaded, _ := newTestIndex(t, path)
	assert.Equal(t, 1, reloaded.Count())
	assert.Equal(t, []string{"doc.txt"}, reloaded.Sources())

	results, err := reloaded.Search("persisted content about whales", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted content about whales", results[0].Chunk.Text)
}

func TestIndexCorruptStoreStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	st, recreated, err := store.OpenOrRecreate(path)
	require.NoError(t, err)
	defer st.Close()
	assert.True(t, recreated)

	u, err := NewIndexUseCase(embedding.NewMockEmbedder(64), index.NewBruteForce(), st, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, u.Count())
}

func TestIndexSourcesFirstSeenOrder(t *testing.T) {
	u, _ := newTestIndex(t, filepath.Join(t.TempDir(), "index.db"))

	_, err := u.Add([]domain.Chunk{
		{ID: "b1", Source: "beta.txt", Seq: 0, Text: "beta one"},
		{ID: "a1", Source: "alpha.txt", Seq: 0, Text: "alpha one"},
		{ID: "b2", Source: "beta.txt", Seq: 1, Text: "beta two"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"beta.txt", "alpha.txt"}, u.Sources())
}

func TestIndexReset(t *testing.T) {
	u, st := newTestIndex(t, filepath.Join(t.TempDir(), "index.db"))

	_, err := u.Add(chunksFor("old.txt", "stale content"))
	require.NoError(t, err)
	require.NoError(t, u.Reset(index.NewBruteForce()))

	assert.Zero(t, u.Count())
	assert.Empty(t, u.Sources())
	count, err := st.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = u.Add(chunksFor("new.txt", "fresh content"))
	require.NoError(t, err)
	assert.Equal(t, 1, u.Count())
}

func TestIndexConcurrentAddAndSearch(t *testing.T) {
	u, _ := newTestIndex(t, filepath.Join(t.TempDir(), "index.db"))

	_, err := u.Add(chunksFor("seed.txt", "seed passage for queries"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			texts := []string{
				"first concurrent passage variation",
				"second concurrent passage variation",
			}
			_, err := u.Add([]domain.Chunk{
				{ID: string(rune('a'+i)) + "0", Source: "w.txt", Seq: 0, Text: texts[0] + string(rune('a'+i))},
				{ID: string(rune('a'+i)) + "1", Source: "w.txt", Seq: 1, Text: texts[1] + string(rune('a'+i))},
			})
			assert.NoError(t, err)
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := u.Search("seed passage for queries", 3)
			if assert.NoError(t, err) {
				// Every surfaced id resolves to a complete chunk.
				for _, r := range results {
					assert.NotEmpty(t, r.Chunk.Text)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 9, u.Count())
}
