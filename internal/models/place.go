package models

import "time"

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place represents a spot people can work from (a café, a coworking space) with its position and descriptive attributes.
//
// Geohash and GeohashPrefix are derived from Location by the repository on every write.
// Distance is only populated on proximity search results and is never persisted.
type Place struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Address       string         `json:"address,omitempty"`
	Location      *Location      `json:"location"`
	Geohash       string         `json:"geohash,omitempty"`
	GeohashPrefix string         `json:"geohashPrefix,omitempty"`
	Amenities     []string       `json:"amenities,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	Distance      *float64       `json:"distance,omitempty"`
}

// Clone returns a deep copy of p.
func (p *Place) Clone() *Place {
	if p == nil {
		return nil
	}
	out := *p
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	if p.Amenities != nil {
		out.Amenities = append([]string(nil), p.Amenities...)
	}
	if p.Attributes != nil {
		out.Attributes = make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = v
		}
	}
	if p.Distance != nil {
		d := *p.Distance
		out.Distance = &d
	}
	return &out
}
