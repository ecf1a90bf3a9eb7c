package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "guides.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestIndexAndSearch(t *testing.T) {
	ix := testIndex(t)

	require.NoError(t, ix.IndexDocument("guides/lisbon.md", "Lisbon",
		"Alfama is the oldest district, full of fado houses.\n\nBelem holds the tower and the monastery."))
	require.NoError(t, ix.IndexDocument("guides/kyoto.md", "Kyoto",
		"Fushimi Inari has thousands of torii gates."))

	hits, err := ix.Search(context.Background(), "fado houses", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "guides/lisbon.md", hits[0].Source)
	assert.Equal(t, "Lisbon", hits[0].Title)
	assert.Contains(t, hits[0].Snippet, "fado")
}

func TestReindexReplacesChunks(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.IndexDocument("g.md", "G", "old content about castles"))
	require.NoError(t, ix.IndexDocument("g.md", "G", "new content about beaches"))

	hits, err := ix.Search(ctx, "castles", 5)
	require.NoError(t, err)
	assert.Empty(t, hits, "stale chunks must be gone after reindex")

	hits, err = ix.Search(ctx, "beaches", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestDeleteDocument(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.IndexDocument("g.md", "G", "content about volcanoes"))
	require.NoError(t, ix.DeleteDocument("g.md"))

	hits, err := ix.Search(ctx, "volcanoes", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "porto.md"), []byte("Port wine cellars line the Douro."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.bin"), []byte("not a guide"), 0644))

	ix := testIndex(t)
	require.NoError(t, ix.IndexDir(dir))

	hits, err := ix.Search(context.Background(), "port wine", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "porto", hits[0].Title)

	hits, err = ix.Search(context.Background(), "guide", 5)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotContains(t, h.Source, "notes.bin")
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("one\n\n\n\ntwo\n\n  \n\nthree")
	assert.Equal(t, []string{"one", "two", "three"}, got)
}
