package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farzalfian/bumdes/internal/db/dbtest"
)

func TestRepository_Integration(t *testing.T) {
	repo := NewRepository(dbtest.Setup(t))
	ctx := context.Background()

	seed := []Product{
		{ID: "prod_1", Name: "Kopi Robusta", Category: "Minuman", ThumbnailURL: "/a.webp", Price: 40000, StockStatus: true, StockAmount: 5},
		{ID: "prod_2", Name: "Gula Aren", Description: "Untuk kopi", Category: "Bahan", ThumbnailURL: "/b.webp", Price: 25000},
		{ID: "prod_3", Name: "Kain Tenun", Category: "Kerajinan 100%", ThumbnailURL: "/c.webp", ImageURLs: []string{"/c1.webp", "/c2.webp"}},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
		assert.False(t, seed[i].CreatedAt.IsZero())
	}

	got, err := repo.GetByID(ctx, "prod_3")
	require.NoError(t, err)
	assert.Equal(t, []string{"/c1.webp", "/c2.webp"}, got.ImageURLs)

	list, total, err := repo.List(ctx, ListParams{Search: "KOPI", Page: 1, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, ListParams{Category: "minum", Page: 1, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "prod_1", list[0].ID)

	_, total, err = repo.List(ctx, ListParams{Search: "%", Page: 1, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "wildcards are matched literally")

	list, total, err = repo.List(ctx, ListParams{Page: 2, Max: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)

	got.Name = "Kain Tenun Ikat"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, "prod_3")
	require.NoError(t, err)
	assert.Equal(t, "Kain Tenun Ikat", got.Name)

	assert.ErrorIs(t, repo.Update(ctx, &Product{ID: "prod_missing", ImageURLs: []string{}}), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "prod_1"))
	assert.ErrorIs(t, repo.Delete(ctx, "prod_1"), ErrNotFound)
	_, err = repo.GetByID(ctx, "prod_1")
	assert.ErrorIs(t, err, ErrNotFound)
}
