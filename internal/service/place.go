package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crazyskateface/workbrew-backend/internal/geo"
	"github.com/crazyskateface/workbrew-backend/internal/models"

	"github.com/google/uuid"
)

// PlaceRepository is the persistence the place service needs.
type PlaceRepository interface {
	GetByID(ctx context.Context, id string) (*models.Place, error)
	List(ctx context.Context) ([]models.Place, error)
	Save(ctx context.Context, place *models.Place) error
	Delete(ctx context.Context, id string) error
}

// PlaceService manages places and exposes the geohash codec.
type PlaceService struct {
	repo PlaceRepository
	now  func() time.Time
	id   func() string
}

// NewPlaceService creates a new place service
func NewPlaceService(repo PlaceRepository) *PlaceService {
	return &PlaceService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
		id:   uuid.NewString,
	}
}

// Get returns the place with id, or ErrNotFound.
func (s *PlaceService) Get(ctx context.Context, id string) (*models.Place, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id cannot be empty", ErrInvalidArgument)
	}
	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get place: %w", err)
	}
	if place == nil {
		return nil, fmt.Errorf("%w: place %s", ErrNotFound, id)
	}
	return place, nil
}

// List returns every place.
func (s *PlaceService) List(ctx context.Context) ([]models.Place, error) {
	places, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list places: %w", err)
	}
	return places, nil
}

// Create stores a new place under a generated id.
func (s *PlaceService) Create(ctx context.Context, place *models.Place) (*models.Place, error) {
	if err := validatePlace(place); err != nil {
		return nil, err
	}
	created := place.Clone()
	created.ID = s.id()
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	created.Distance = nil

	if err := s.repo.Save(ctx, created); err != nil {
		return nil, fmt.Errorf("service: failed to create place: %w", err)
	}
	return created, nil
}

// Update replaces the place with id, keeping its creation time.
func (s *PlaceService) Update(ctx context.Context, id string, place *models.Place) (*models.Place, error) {
	if err := validatePlace(place); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := place.Clone()
	updated.ID = id
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()
	updated.Distance = nil

	if err := s.repo.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("service: failed to update place: %w", err)
	}
	return updated, nil
}

// Delete removes the place with id, or returns ErrNotFound.
func (s *PlaceService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete place: %w", err)
	}
	return nil
}

// EncodeGeohash returns the geohash of lat/lng at precision and its eight neighbors.
func (s *PlaceService) EncodeGeohash(lat, lng float64, precision int) (string, []string, error) {
	hash, err := geo.Encode(lat, lng, precision)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	neighbors, err := geo.Neighbors(hash)
	if err != nil {
		return "", nil, fmt.Errorf("service: failed to compute neighbors: %w", err)
	}
	return hash, neighbors, nil
}

func validatePlace(place *models.Place) error {
	if place == nil {
		return fmt.Errorf("%w: place is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(place.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}
	if place.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidArgument)
	}
	if err := geo.ValidateCoordinate(place.Location.Latitude, place.Location.Longitude); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}
