package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/foodgram/internal/shell/store"
)

func setupStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadIngredients_JSON(t *testing.T) {
	s := setupStore(t)
	path := writeFixture(t, "ingredients.json", `[
		{"name": "flour", "measurement_unit": "g"},
		{"name": "milk", "measurement_unit": "ml"}
	]`)

	result, err := LoadIngredients(context.Background(), s, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)

	ingredients, err := s.ListIngredients(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "flour", ingredients[0].Name)
	assert.Equal(t, "g", ingredients[0].MeasurementUnit)
}

func TestLoadIngredients_CSV(t *testing.T) {
	s := setupStore(t)
	path := writeFixture(t, "ingredients.csv", "flour,g\nmilk,ml\nsugar,g\n")

	result, err := LoadIngredients(context.Background(), s, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
}

func TestLoadIngredients_SkipsDuplicates(t *testing.T) {
	s := setupStore(t)
	path := writeFixture(t, "ingredients.json", `[
		{"name": "flour", "measurement_unit": "g"}
	]`)

	_, err := LoadIngredients(context.Background(), s, path, quietLogger())
	require.NoError(t, err)

	result, err := LoadIngredients(context.Background(), s, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestLoadIngredients_UnsupportedFormat(t *testing.T) {
	s := setupStore(t)
	path := writeFixture(t, "ingredients.txt", "flour g")

	_, err := LoadIngredients(context.Background(), s, path, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported fixture format")
}

func TestLoadIngredients_InvalidRow(t *testing.T) {
	s := setupStore(t)
	path := writeFixture(t, "ingredients.json", `[{"name": "flour"}]`)

	_, err := LoadIngredients(context.Background(), s, path, quietLogger())
	require.Error(t, err)
}

func TestLoadIngredients_MissingFile(t *testing.T) {
	s := setupStore(t)
	_, err := LoadIngredients(context.Background(), s, "/nonexistent/ingredients.json", quietLogger())
	require.Error(t, err)
}

func TestLoadTags_YAML(t *testing.T) {
	s := setupStore(t)
	path := writeFixture(t, "tags.yaml", `
- name: Breakfast
  slug: breakfast
- name: Dinner
  slug: dinner
`)

	result, err := LoadTags(context.Background(), s, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	tags, err := s.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "breakfast", tags[0].Slug)
}

func TestLoadTags_SkipsDuplicates(t *testing.T) {
	s := setupStore(t)
	path := writeFixture(t, "tags.yaml", "- name: Breakfast\n  slug: breakfast\n")

	_, err := LoadTags(context.Background(), s, path, quietLogger())
	require.NoError(t, err)

	result, err := LoadTags(context.Background(), s, path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
}
