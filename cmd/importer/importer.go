package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/crazyskateface/workbrew-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Columns: name,address,latitude,longitude,amenities. Amenities are ';'-separated.
const csvColumns = 5

type placeWriter interface {
	Create(ctx context.Context, place *models.Place) (*models.Place, error)
	Get(ctx context.Context, id string) (*models.Place, error)
}

func parseCSV(r io.Reader) ([]models.Place, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // amenities may be omitted
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var places []models.Place
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if len(record) < csvColumns-1 {
			return nil, fmt.Errorf("line %d: invalid record length %d, expected at least %d columns", line, len(record), csvColumns-1)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %s", line, record[2])
		}

		lng, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %s", line, record[3])
		}

		place := models.Place{
			Name:     strings.TrimSpace(record[0]),
			Address:  strings.TrimSpace(record[1]),
			Location: &models.Location{Latitude: lat, Longitude: lng},
		}
		if len(record) >= csvColumns {
			place.Amenities = splitAmenities(record[4])
		}

		places = append(places, place)
	}

	return places, nil
}

func splitAmenities(field string) []string {
	var out []string
	for _, a := range strings.Split(field, ";") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// importPlaces creates every record and returns the assigned ids in order.
func importPlaces(ctx context.Context, svc placeWriter, records []models.Place) ([]string, error) {
	ids := make([]string, 0, len(records))
	for i := range records {
		created, err := svc.Create(ctx, &records[i])
		if err != nil {
			return ids, fmt.Errorf("record %d (%s): %w", i+1, records[i].Name, err)
		}
		ids = append(ids, created.ID)
	}
	return ids, nil
}

func verifyImport(ctx context.Context, svc placeWriter, ids []string) error {
	for _, id := range ids {
		place, err := svc.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read back %s: %w", id, err)
		}
		if place.Geohash == "" {
			return fmt.Errorf("place %s was stored without a geohash", id)
		}
	}

	if len(ids) > 0 {
		sample, err := svc.Get(ctx, ids[0])
		if err != nil {
			return err
		}
		log.Info().Str("id", sample.ID).Str("geohash", sample.Geohash).Msg("sample place")
	}
	return nil
}
