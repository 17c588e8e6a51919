package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crazyskateface/workbrew-backend/internal/cache"
	"github.com/crazyskateface/workbrew-backend/internal/geo"
	"github.com/crazyskateface/workbrew-backend/internal/models"
	"github.com/crazyskateface/workbrew-backend/internal/store"
)

const (
	GeohashAttribute       = "geohash"
	GeohashPrefixAttribute = "geohashPrefix"
	distanceAttribute      = "distance"

	// GeohashPrefixLength is the length of the index partition key. It equals
	// the coarsest search precision, so every candidate cell maps to one partition.
	GeohashPrefixLength = 3
)

// PlaceRepository persists places through a Store and serves reads by id
// through a PointLookupCache. Every write invalidates the cached entry.
type PlaceRepository struct {
	table string
	db    store.Store
	index string
	cache *cache.PointLookupCache
}

// NewPlaceRepository creates a repository over table, using index for geohash lookups.
func NewPlaceRepository(db store.Store, backend cache.Backend, table, index string) *PlaceRepository {
	r := &PlaceRepository{table: table, db: db, index: index}
	r.cache = cache.NewPointLookupCache(backend, r.fetch)
	return r
}

// IndexSpec describes the geohash index for stores that create their own.
func IndexSpec(name string) store.IndexSpec {
	return store.IndexSpec{Name: name, PartitionKey: GeohashPrefixAttribute, SortKey: GeohashAttribute}
}

// GetByID returns the place or nil when it does not exist.
func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*models.Place, error) {
	place, err := r.cache.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to get place: %w", err)
	}
	return place, nil
}

func (r *PlaceRepository) fetch(ctx context.Context, id string) (*models.Place, error) {
	item, err := r.db.Get(ctx, r.table, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return fromItem(item)
}

// FindByGeohashPrefix returns every place whose geohash begins with cell.
func (r *PlaceRepository) FindByGeohashPrefix(ctx context.Context, cell string) ([]models.Place, error) {
	if len(cell) < GeohashPrefixLength {
		return r.scanPrefix(ctx, cell)
	}

	items, err := r.db.QueryByIndex(ctx, r.table, r.index, store.KeyCondition{
		PartitionKey:   GeohashPrefixAttribute,
		PartitionValue: cell[:GeohashPrefixLength],
		SortKey:        GeohashAttribute,
		SortPrefix:     cell,
	})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cell %s: %w", cell, err)
	}
	return fromItems(items)
}

// scanPrefix serves cells coarser than the index partition.
func (r *PlaceRepository) scanPrefix(ctx context.Context, cell string) ([]models.Place, error) {
	items, err := r.db.Scan(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan for cell %s: %w", cell, err)
	}
	matched := items[:0]
	for _, item := range items {
		if strings.HasPrefix(item.StringAttr(GeohashAttribute), cell) {
			matched = append(matched, item)
		}
	}
	return fromItems(matched)
}

// List returns every place.
func (r *PlaceRepository) List(ctx context.Context) ([]models.Place, error) {
	items, err := r.db.Scan(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list places: %w", err)
	}
	return fromItems(items)
}

// Save writes the place, recomputing its geohash fields from its location.
// It is used for both create and update.
func (r *PlaceRepository) Save(ctx context.Context, place *models.Place) error {
	if place.ID == "" {
		return fmt.Errorf("repository: place id is required")
	}
	if err := derive(place); err != nil {
		return err
	}
	item, err := toItem(place)
	if err != nil {
		return err
	}
	if err := r.db.Put(ctx, r.table, item); err != nil {
		return fmt.Errorf("repository: failed to save place %s: %w", place.ID, err)
	}
	if err := r.cache.Invalidate(ctx, place.ID); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	return nil
}

// Delete removes the place. Deleting a missing place is not an error.
func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.Delete(ctx, r.table, id); err != nil {
		return fmt.Errorf("repository: failed to delete place %s: %w", id, err)
	}
	if err := r.cache.Invalidate(ctx, id); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	return nil
}

func derive(place *models.Place) error {
	if place.Location == nil {
		return fmt.Errorf("repository: place %s has no location: %w", place.ID, geo.ErrInvalidCoordinate)
	}
	hash, err := geo.Encode(place.Location.Latitude, place.Location.Longitude, geo.FullPrecision)
	if err != nil {
		return fmt.Errorf("repository: failed to encode place %s: %w", place.ID, err)
	}
	place.Geohash = hash
	place.GeohashPrefix = hash[:GeohashPrefixLength]
	return nil
}

func toItem(place *models.Place) (store.Item, error) {
	raw, err := json.Marshal(place)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to encode place: %w", err)
	}
	var item store.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("repository: failed to encode place: %w", err)
	}
	delete(item, distanceAttribute)
	return item, nil
}

func fromItem(item store.Item) (*models.Place, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to decode place: %w", err)
	}
	var place models.Place
	if err := json.Unmarshal(raw, &place); err != nil {
		return nil, fmt.Errorf("repository: failed to decode place: %w", err)
	}
	place.Distance = nil
	return &place, nil
}

func fromItems(items []store.Item) ([]models.Place, error) {
	places := make([]models.Place, 0, len(items))
	for _, item := range items {
		place, err := fromItem(item)
		if err != nil {
			return nil, err
		}
		places = append(places, *place)
	}
	return places, nil
}
