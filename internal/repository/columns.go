package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"
)

// collectionColumns lists the collections table columns in insert and scan order.
var collectionColumns = []string{
	"collection_code",
	"species_code",
	"common_name",
	"per_ounce",
	"weight",
	"chaff",
	"pls",
	"date_collected",
	"cords",
	"year_collected",
	"county",
	"formation",
	"elevation",
	"ran_out",
	"prairie_moon",
	"storage_code",
	"notes",
	"latitude",
	"longitude",
}

func collectionValues(c models.Collection) []any {
	return []any{
		c.CollectionCode,
		c.SpeciesCode,
		c.CommonName,
		c.PerOunce,
		c.Weight,
		c.Chaff,
		c.PLS,
		c.DateCollected,
		c.Cords,
		c.YearCollected,
		c.County,
		c.Formation,
		c.Elevation,
		c.RanOut,
		c.PrairieMoon,
		c.StorageCode,
		c.Notes,
		c.Latitude,
		c.Longitude,
	}
}

func collectionTargets(c *models.Collection) []any {
	return []any{
		&c.CollectionCode,
		&c.SpeciesCode,
		&c.CommonName,
		&c.PerOunce,
		&c.Weight,
		&c.Chaff,
		&c.PLS,
		&c.DateCollected,
		&c.Cords,
		&c.YearCollected,
		&c.County,
		&c.Formation,
		&c.Elevation,
		&c.RanOut,
		&c.PrairieMoon,
		&c.StorageCode,
		&c.Notes,
		&c.Latitude,
		&c.Longitude,
	}
}

// qualified prefixes every collection column with alias.
func qualified(alias string) string {
	cols := make([]string, len(collectionColumns))
	for i, c := range collectionColumns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// boundsPredicate builds the WHERE clause selecting positioned collections
// inside b. placeholder renders the n-th (1-based) bind parameter.
func boundsPredicate(b geo.Bounds, placeholder func(n int) string) (string, []any) {
	lng := fmt.Sprintf("longitude BETWEEN %s AND %s", placeholder(3), placeholder(4))
	if b.CrossesAntimeridian() {
		lng = fmt.Sprintf("(longitude >= %s OR longitude <= %s)", placeholder(3), placeholder(4))
	}
	where := fmt.Sprintf(
		"latitude IS NOT NULL AND longitude IS NOT NULL AND latitude BETWEEN %s AND %s AND %s",
		placeholder(1), placeholder(2), lng,
	)
	return where, []any{b.MinLat, b.MaxLat, b.MinLng, b.MaxLng}
}

func encodeAttributes(attrs map[string]*string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]*string{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to encode species attributes: %w", err)
	}
	return b, nil
}

// decodeSpecies rebuilds the joined species row. A nil code means the LEFT
// JOIN found no species.
func decodeSpecies(code *string, attrs []byte) (*models.Species, error) {
	if code == nil {
		return nil, nil
	}
	s := &models.Species{Code: *code, Attributes: map[string]*string{}}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &s.Attributes); err != nil {
			return nil, fmt.Errorf("repository: failed to decode species attributes: %w", err)
		}
	}
	return s, nil
}
