package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, path string) *LibraryManager {
	t.Helper()
	seed := testSeed()
	lm, err := NewLibraryManager(Options{DBPath: path, Seed: &seed, Store: []StoreOption{WithClock(fixedClock)}})
	require.NoError(t, err)
	t.Cleanup(func() { lm.Close() })
	return lm
}

func TestManagerPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "air.db")

	lm := newTestManager(t, path)
	c := lm.Controller()
	require.NoError(t, c.Register(NewUser{Username: "ana", Password: "pw"}))
	_, err := c.ToggleFavorite(3)
	require.NoError(t, err)
	require.NoError(t, lm.Close())

	lm = newTestManager(t, path)
	c = lm.Controller()
	assert.Equal(t, ViewHome, c.View().Kind)
	u, ok := c.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, []int64{3}, u.Favorites)
}

func TestHeadlessManager(t *testing.T) {
	lm, err := NewLibraryManager(Options{Headless: true})
	require.NoError(t, err)
	defer lm.Close()

	assert.True(t, lm.Storage().Headless())
	// Headless runs start from the shipped catalog.
	assert.Len(t, lm.Store().Books(), 5)

	c := lm.Controller()
	require.NoError(t, c.Login("admingab", "12345admin"))
	assert.True(t, c.IsAdmin())
}

func TestImportBooks(t *testing.T) {
	lm := newTestManager(t, filepath.Join(t.TempDir(), "air.db"))

	added, err := lm.ImportBooks(strings.NewReader(`[
		{"id": 1, "title": "Imported", "author": "A", "genres": ["Poetry"], "rating": 5, "pages": "44"},
		{"title": "Paged", "pageImages": ["/p/1.jpg"]}
	]`))
	require.NoError(t, err)
	require.Len(t, added, 2)

	assert.NotEqual(t, int64(1), added[0].ID)
	assert.Zero(t, added[0].Rating)
	assert.Equal(t, PageCount(44), added[0].Pages)
	assert.Equal(t, ContentImagePages, added[1].Content.Kind())
	assert.Len(t, lm.Store().Books(), 7)
}

func TestImportBooksStopsAtInvalidEntry(t *testing.T) {
	lm := newTestManager(t, filepath.Join(t.TempDir(), "air.db"))

	added, err := lm.ImportBooks(strings.NewReader(`[{"title":"Ok"},{"title":""}]`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "[1].title", ve.Field)
	assert.Len(t, added, 1)

	_, err = lm.ImportBooks(strings.NewReader(`{"title":"not a list"}`))
	require.Error(t, err)
}

func TestImportBooksFromFile(t *testing.T) {
	lm := newTestManager(t, filepath.Join(t.TempDir(), "air.db"))
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"From disk"}]`), 0o600))

	added, err := lm.ImportBooksFromFile(path)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "From disk", added[0].Title)

	_, err = lm.ImportBooksFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "Chronic...", TruncateString("Chronicles of Aether", 10))
	assert.Equal(t, "Ação", TruncateString("Ação", 4))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestPrettyBook(t *testing.T) {
	line := PrettyBook(Book{ID: 4, Title: "Turf Wars", Author: "DiMartino", Genres: []string{"Comics", "HQ"}, Content: ImagePagesContent([]string{"/1.jpg"})})
	assert.Contains(t, line, "Turf Wars")
	assert.Contains(t, line, "images")
	assert.True(t, strings.HasSuffix(line, "Comics, HQ"))
}
