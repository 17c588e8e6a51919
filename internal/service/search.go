package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/crazyskateface/workbrew-backend/internal/geo"
	"github.com/crazyskateface/workbrew-backend/internal/metrics"
	"github.com/crazyskateface/workbrew-backend/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// CellRepository looks places up by geohash cell.
type CellRepository interface {
	FindByGeohashPrefix(ctx context.Context, cell string) ([]models.Place, error)
}

// SearchService answers proximity queries over the geohash index.
type SearchService struct {
	repo        CellRepository
	maxRadiusKm float64
}

// NewSearchService creates a search service. A non-positive maxRadiusKm disables the cap.
func NewSearchService(repo CellRepository, maxRadiusKm float64) *SearchService {
	return &SearchService{repo: repo, maxRadiusKm: maxRadiusKm}
}

// FindNearby returns every place within radiusKm of lat/lng, nearest first,
// each carrying its distance in km. Equal distances keep their lookup order.
//
// One lookup is issued per candidate cell. If any lookup fails the whole
// search fails with ErrSearchFailed and no results are returned.
func (s *SearchService) FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Place, error) {
	start := time.Now()
	metrics.SearchRequestsTotal.Inc()
	defer func() { metrics.SearchDurationMs.Observe(metrics.SinceMs(start)) }()

	if err := s.validate(lat, lng, radiusKm); err != nil {
		return nil, err
	}

	box := geo.ComputeBoundingBox(lat, lng, radiusKm)
	precision := geo.SelectPrecision(box)
	center, err := geo.Encode(lat, lng, precision)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	cells, err := geo.CandidateCells(center)
	if err != nil {
		return nil, fmt.Errorf("service: failed to expand cell %s: %w", center, err)
	}
	metrics.SearchPrecision.WithLabelValues(strconv.Itoa(precision)).Inc()
	metrics.SearchCandidateCells.Observe(float64(len(cells)))

	found, err := s.lookupCells(ctx, cells)
	if err != nil {
		metrics.SearchFailuresTotal.Inc()
		return nil, err
	}

	results := make([]models.Place, 0)
	seen := make(map[string]struct{})
	candidates := 0
	for _, places := range found {
		for _, place := range places {
			if _, dup := seen[place.ID]; dup {
				continue
			}
			seen[place.ID] = struct{}{}
			candidates++
			if place.Location == nil {
				continue
			}
			d := geo.Haversine(lat, lng, place.Location.Latitude, place.Location.Longitude)
			if d > radiusKm {
				continue
			}
			place.Distance = &d
			results = append(results, place)
		}
	}

	slices.SortStableFunc(results, func(a, b models.Place) int {
		return cmp.Compare(*a.Distance, *b.Distance)
	})

	log.Debug().
		Int("precision", precision).
		Int("cells", len(cells)).
		Int("candidates", candidates).
		Int("results", len(results)).
		Msg("nearby search")

	return results, nil
}

// lookupCells queries all cells concurrently. Results keep cell order.
func (s *SearchService) lookupCells(ctx context.Context, cells []string) ([][]models.Place, error) {
	found := make([][]models.Place, len(cells))
	g, gctx := errgroup.WithContext(ctx)
	for i, cell := range cells {
		g.Go(func() error {
			places, err := s.repo.FindByGeohashPrefix(gctx, cell)
			if err != nil {
				log.Error().Err(err).Str("cell", cell).Msg("cell lookup failed")
				return fmt.Errorf("%w: cell %s: %w", ErrSearchFailed, cell, err)
			}
			found[i] = places
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *SearchService) validate(lat, lng, radiusKm float64) error {
	if err := geo.ValidateCoordinate(lat, lng); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return fmt.Errorf("%w: radius must be a positive number of km, got %v", ErrInvalidArgument, radiusKm)
	}
	if s.maxRadiusKm > 0 && radiusKm > s.maxRadiusKm {
		return fmt.Errorf("%w: radius %v exceeds maximum of %v km", ErrInvalidArgument, radiusKm, s.maxRadiusKm)
	}
	return nil
}
