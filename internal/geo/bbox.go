package geo

import "math"

const (
	KmPerDegreeLat      = 110.574
	KmPerDegreeLngEquat = 111.320
)

// BoundingBox is an axis-aligned lat/lng rectangle around a search point.
// It is not clamped to WGS84 bounds; only its span is consumed.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Span is the larger of the box's latitude and longitude extents in degrees.
func (b BoundingBox) Span() float64 {
	return math.Max(b.MaxLat-b.MinLat, b.MaxLng-b.MinLng)
}

// ComputeBoundingBox returns the box covering radiusKm around lat/lng.
// Near the poles the longitude extent diverges and is widened to the whole globe.
func ComputeBoundingBox(lat, lng, radiusKm float64) BoundingBox {
	latDelta := radiusKm / KmPerDegreeLat

	box := BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: -180,
		MaxLng: 180,
	}

	kmPerDegLng := KmPerDegreeLngEquat * math.Cos(lat*math.Pi/180)
	if kmPerDegLng < 1e-9 {
		return box
	}
	lngDelta := radiusKm / kmPerDegLng
	if lngDelta > 180 {
		return box
	}
	box.MinLng = lng - lngDelta
	box.MaxLng = lng + lngDelta
	return box
}
