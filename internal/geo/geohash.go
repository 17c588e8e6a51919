// Package geo holds the spatial primitives behind proximity search: geohash
// encoding and neighbor expansion, bounding boxes, precision selection and
// great-circle distance.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mmcloughlin/geohash"
)

const (
	// Alphabet is the geohash base-32 symbol set. a, i, l and o are excluded.
	Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

	// FullPrecision is the precision stored on every persisted place.
	FullPrecision = 9

	MinPrecision = 1
	MaxPrecision = 12
)

var (
	ErrInvalidCoordinate = errors.New("geo: invalid coordinate")
	ErrInvalidPrecision  = errors.New("geo: invalid precision")
	ErrInvalidGeohash    = errors.New("geo: invalid geohash")
)

// Box is the lat/lng extent of a single geohash cell.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Center returns the midpoint of the cell.
func (b Box) Center() (lat, lng float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLng + b.MaxLng) / 2
}

// ValidateCoordinate reports whether lat/lng are finite and inside WGS84 bounds.
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, lng)
	}
	return nil
}

// Encode returns the geohash of lat/lng with exactly precision characters.
// Longitude takes the first bit; a coordinate on a midpoint falls in the upper half.
func Encode(lat, lng float64, precision int) (string, error) {
	if err := ValidateCoordinate(lat, lng); err != nil {
		return "", err
	}
	if precision < MinPrecision || precision > MaxPrecision {
		return "", fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}
	return encode(lat, lng, precision), nil
}

// edgeMargin pulls the inclusive upper bounds (lat 90, lng 180) into the last
// cell of each axis. It must survive the (x+r)/2r quantization inside the
// geohash package; one ulp below the bound rounds back up and wraps to cell 0.
// At precision 12 a cell is still ~1.7e-7 degrees tall.
const edgeMargin = 1e-9

// encode expects validated input.
func encode(lat, lng float64, precision int) string {
	if lat > 90-edgeMargin {
		lat = 90 - edgeMargin
	}
	if lng > 180-edgeMargin {
		lng = 180 - edgeMargin
	}
	return geohash.EncodeWithPrecision(lat, lng, uint(precision))
}

// ValidateHash checks that hash is a non-empty base-32 geohash of at most MaxPrecision characters.
func ValidateHash(hash string) error {
	if len(hash) < MinPrecision || len(hash) > MaxPrecision {
		return fmt.Errorf("%w: %q has length %d", ErrInvalidGeohash, hash, len(hash))
	}
	for i := 0; i < len(hash); i++ {
		if strings.IndexByte(Alphabet, hash[i]) < 0 {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidGeohash, hash, hash[i])
		}
	}
	return nil
}

// Bounds decodes a geohash into the box it covers.
func Bounds(hash string) (Box, error) {
	if err := ValidateHash(hash); err != nil {
		return Box{}, err
	}
	b := geohash.BoundingBox(hash)
	return Box{MinLat: b.MinLat, MaxLat: b.MaxLat, MinLng: b.MinLng, MaxLng: b.MaxLng}, nil
}

// neighborOffsets lists N, NE, E, SE, S, SW, W, NW as (lat, lng) cell steps.
var neighborOffsets = [8][2]float64{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Neighbors returns the 8 cells of the same precision surrounding hash, in the
// order N, NE, E, SE, S, SW, W, NW.
//
// Longitude wraps across the ±180° seam. There is no row beyond a pole, so a
// step past ±90° stays in the cell's own row: the northern neighbors of a
// polar cell repeat the cell itself and its east/west neighbors. Callers that
// need a set must deduplicate.
func Neighbors(hash string) ([]string, error) {
	box, err := Bounds(hash)
	if err != nil {
		return nil, err
	}

	lat, lng := box.Center()
	height := box.MaxLat - box.MinLat
	width := box.MaxLng - box.MinLng

	out := make([]string, 0, len(neighborOffsets))
	for _, off := range neighborOffsets {
		nlat := lat + off[0]*height
		if nlat > 90 || nlat < -90 {
			nlat = lat
		}
		out = append(out, encode(nlat, wrapLongitude(lng+off[1]*width), len(hash)))
	}
	return out, nil
}

// CandidateCells returns hash followed by its distinct neighbors.
func CandidateCells(hash string) ([]string, error) {
	neighbors, err := Neighbors(hash)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{hash: {}}
	cells := []string{hash}
	for _, n := range neighbors {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		cells = append(cells, n)
	}
	return cells, nil
}

func wrapLongitude(lng float64) float64 {
	for lng >= 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
