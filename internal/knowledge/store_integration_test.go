package knowledge

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldeialab/sage/internal/log"
	"github.com/aldeialab/sage/internal/testutil"
)

// basisVector returns a 768-dim unit vector along the given axis, so two
// different axes have cosine similarity 0 and equal axes 1.
func basisVector(axis int) []float32 {
	vec := make([]float32, 768)
	vec[axis%768] = 1
	return vec
}

func integrationItem(axis int, source Source, category Category) Item {
	return Item{
		Title:     fmt.Sprintf("Item %d", axis),
		Content:   fmt.Sprintf("Conteúdo de teste número %d sobre altas habilidades.", axis),
		Source:    source,
		Category:  category,
		Embedding: basisVector(axis),
		Metadata:  map[string]string{"axis": fmt.Sprint(axis)},
		CreatedBy: "integration",
	}
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewStore(testDB.Pool, log.NewNop())

	t.Run("add and get roundtrip", func(t *testing.T) {
		item := integrationItem(0, SourceAldeia, CategoryIdentificacao)
		id, err := store.Add(ctx, item)
		require.NoError(t, err)

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, item.Title, got.Title)
		assert.Equal(t, item.Content, got.Content)
		assert.Equal(t, item.Source, got.Source)
		assert.Equal(t, item.Category, got.Category)
		assert.Equal(t, "text", got.DocumentType)
		assert.Equal(t, item.Metadata, got.Metadata)
		assert.Len(t, got.Embedding, 768)
		assert.False(t, got.CreatedAt.IsZero())

		require.NoError(t, store.Delete(ctx, id))
	})

	t.Run("search ranks by similarity and honors threshold", func(t *testing.T) {
		// Perfect match on axis 1, orthogonal items elsewhere.
		idMatch, err := store.Add(ctx, integrationItem(1, SourceAldeia, CategoryEducacao))
		require.NoError(t, err)
		idOther, err := store.Add(ctx, integrationItem(2, SourceVirgolim, CategoryEducacao))
		require.NoError(t, err)
		defer func() {
			_ = store.Delete(ctx, idMatch)
			_ = store.Delete(ctx, idOther)
		}()

		results, err := store.Search(ctx, basisVector(1), SearchParams{Threshold: 0.7, Count: 10})
		require.NoError(t, err)

		require.Len(t, results, 1, "orthogonal item must fall below threshold")
		assert.Equal(t, idMatch, results[0].Item.ID)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)

		// With threshold below zero both qualify, sorted descending.
		results, err = store.Search(ctx, basisVector(1), SearchParams{Threshold: -1, Count: 10})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, idMatch, results[0].Item.ID)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
		}

		// Count limits the result set.
		results, err = store.Search(ctx, basisVector(1), SearchParams{Threshold: -1, Count: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)

		// Source filter excludes the perfect match.
		results, err = store.Search(ctx, basisVector(1), SearchParams{
			Threshold: -1, Count: 10, Source: SourceVirgolim,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, idOther, results[0].Item.ID)
	})

	t.Run("update merges partial fields and refreshes updated_at", func(t *testing.T) {
		id, err := store.Add(ctx, integrationItem(3, SourceInstituto, CategoryMetodologias))
		require.NoError(t, err)
		defer func() { _ = store.Delete(ctx, id) }()

		before, err := store.Get(ctx, id)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		// Empty patch only touches updated_at.
		require.NoError(t, store.Update(ctx, id, Patch{}))
		after, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, before.Content, after.Content)
		assert.Equal(t, before.Embedding, after.Embedding)
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

		newContent := "Conteúdo atualizado."
		require.NoError(t, store.Update(ctx, id, Patch{Content: &newContent}))
		after, err = store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, newContent, after.Content)
		assert.Equal(t, before.Title, after.Title)
	})

	t.Run("update missing id fails with not found", func(t *testing.T) {
		err := store.Update(ctx, uuid.New(), Patch{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list paginates ordered by creation time", func(t *testing.T) {
		var ids []uuid.UUID
		for i := 0; i < 25; i++ {
			id, err := store.Add(ctx, integrationItem(10+i, SourceOutros, CategoryRecursos))
			require.NoError(t, err)
			ids = append(ids, id)
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		page, err := store.List(ctx, 2, 20, ListFilters{Source: SourceOutros})
		require.NoError(t, err)

		assert.Len(t, page.Items, 5)
		assert.Equal(t, 25, page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("stats aggregates by source and category", func(t *testing.T) {
		var ids []uuid.UUID
		add := func(source Source, category Category, axis int) {
			id, err := store.Add(ctx, integrationItem(axis, source, category))
			require.NoError(t, err)
			ids = append(ids, id)
		}
		add(SourceAldeia, CategoryCasos, 100)
		add(SourceAldeia, CategoryCasos, 101)
		add(SourceAldeia, CategoryPesquisas, 102)
		add(SourceVirgolim, CategoryPesquisas, 103)
		add(SourceVirgolim, CategoryPesquisas, 104)
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		stats, err := store.Stats(ctx)
		require.NoError(t, err)

		assert.Equal(t, 5, stats.Total)
		assert.Equal(t, 3, stats.BySource[SourceAldeia])
		assert.Equal(t, 2, stats.BySource[SourceVirgolim])
		assert.Equal(t, 2, stats.ByCategory[CategoryCasos])
		assert.Equal(t, 3, stats.ByCategory[CategoryPesquisas])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		id, err := store.Add(ctx, integrationItem(200, SourceAldeia, CategoryFamilia))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, id))
		require.NoError(t, store.Delete(ctx, id), "second delete must be a no-op")
	})
}
