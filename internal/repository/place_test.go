package repository

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/crazyskateface/workbrew-backend/internal/cache"
	"github.com/crazyskateface/workbrew-backend/internal/geo"
	"github.com/crazyskateface/workbrew-backend/internal/models"
	"github.com/crazyskateface/workbrew-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how often the backing store is read by key.
type countingStore struct {
	store.Store
	gets atomic.Int32
}

func (s *countingStore) Get(ctx context.Context, table, key string) (store.Item, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, table, key)
}

func newTestRepository(t *testing.T) (*PlaceRepository, *countingStore) {
	t.Helper()
	db := &countingStore{Store: store.NewMemoryStore()}
	return NewPlaceRepository(db, cache.NewMemoryBackend(cache.DefaultTTL), "places", "geohash-index"), db
}

func place(id, name string, lat, lng float64) *models.Place {
	return &models.Place{
		ID:        id,
		Name:      name,
		Location:  &models.Location{Latitude: lat, Longitude: lng},
		Amenities: []string{"wifi"},
	}
}

func seed(t *testing.T, r *PlaceRepository) {
	t.Helper()
	for _, p := range []*models.Place{
		place("b", "Sightglass", 37.7750, -122.4183),
		place("a", "Ritual", 37.7760, -122.4170),
		place("c", "Blue Bottle", 37.7790, -122.4140),
		place("d", "Oakland Roasters", 37.8044, -122.2712),
	} {
		require.NoError(t, r.Save(context.Background(), p))
	}
}

func TestPlaceRepository_SaveDerivesGeohash(t *testing.T) {
	r, _ := newTestRepository(t)
	p := place("b", "Sightglass", 37.7750, -122.4183)
	d := 3.2
	p.Distance = &d

	require.NoError(t, r.Save(context.Background(), p))
	assert.Equal(t, "9q8yyk9xq", p.Geohash)
	assert.Equal(t, "9q8", p.GeohashPrefix)

	got, err := r.GetByID(context.Background(), "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sightglass", got.Name)
	assert.Equal(t, "9q8yyk9xq", got.Geohash)
	assert.Equal(t, []string{"wifi"}, got.Amenities)
	assert.Nil(t, got.Distance)
}

func TestPlaceRepository_SaveValidation(t *testing.T) {
	r, _ := newTestRepository(t)

	tests := []struct {
		name  string
		place *models.Place
	}{
		{name: "missing id", place: place("", "x", 1, 1)},
		{name: "missing location", place: &models.Place{ID: "x", Name: "x"}},
		{name: "latitude out of range", place: place("x", "x", 91, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, r.Save(context.Background(), tt.place))
		})
	}

	err := r.Save(context.Background(), place("x", "x", 0, 200))
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestPlaceRepository_FindByGeohashPrefix(t *testing.T) {
	r, _ := newTestRepository(t)
	seed(t, r)

	tests := []struct {
		name     string
		cell     string
		expected []string
	}{
		{name: "precision 6 cell", cell: "9q8yyk", expected: []string{"b", "a"}},
		{name: "neighbor cell", cell: "9q8yym", expected: []string{"c"}},
		{name: "partition only", cell: "9q9", expected: []string{"d"}},
		{name: "coarser than partition", cell: "9q", expected: []string{"b", "a", "c", "d"}},
		{name: "empty cell", cell: "9q8yyt", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places, err := r.FindByGeohashPrefix(context.Background(), tt.cell)
			require.NoError(t, err)
			ids := make([]string, 0, len(places))
			for _, p := range places {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.expected, ids)
		})
	}
}

func TestPlaceRepository_GetByIDUsesCache(t *testing.T) {
	r, db := newTestRepository(t)
	seed(t, r)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := r.GetByID(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, got)
	}
	assert.Equal(t, int32(1), db.gets.Load())

	updated := place("a", "Ritual Roasters", 37.7760, -122.4170)
	require.NoError(t, r.Save(ctx, updated))

	got, err := r.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ritual Roasters", got.Name)
	assert.Equal(t, int32(2), db.gets.Load())
}

func TestPlaceRepository_Delete(t *testing.T) {
	r, _ := newTestRepository(t)
	seed(t, r)
	ctx := context.Background()

	_, err := r.GetByID(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "a"))
	got, err := r.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, r.Delete(ctx, "a"))

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
