// Package ingest parses the species and collection spreadsheets exported as CSV.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"planttracker-api/internal/geo"
	"planttracker-api/internal/models"
)

// collectionColumns is the positional layout of the collection sheet. Header
// names in the file are ignored; the sheet is identified by position.
var collectionColumns = []string{
	models.FieldCollectionCode,
	models.FieldSpeciesCode,
	"Scientific Name",
	models.FieldCommonName,
	models.FieldPerOunce,
	models.FieldWeight,
	"Seed Count",
	models.FieldChaff,
	models.FieldPLS,
	models.FieldDateCollected,
	models.FieldCords,
	models.FieldYearCollected,
	models.FieldCounty,
	models.FieldFormation,
	models.FieldElevation,
	models.FieldRanOut,
	models.FieldPrairieMoon,
	models.FieldStorageCode,
	models.FieldNotes,
}

// dateLayouts are the date formats seen in spreadsheet exports, most specific first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/06",
	"2006/1/2",
	"1-2-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
}

// ParseSpecies reads the species sheet. The header must contain a Species Code
// column; every other column is kept as an open-ended attribute.
func ParseSpecies(r io.Reader) ([]models.Species, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, invalid(1, "failed to read species header: %v", err)
	}
	header = cleanHeader(header)

	codeIdx := -1
	for i, name := range header {
		if normalizeName(name) == normalizeName(models.FieldSpeciesCode) {
			codeIdx = i
			break
		}
	}
	if codeIdx < 0 {
		return nil, invalid(1, "species file has no %q column", models.FieldSpeciesCode)
	}

	var species []models.Species
	seen := make(map[string]int)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid(errLine(err), "failed to read species record: %v", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		code := cell(record, codeIdx)
		if code == nil {
			continue
		}
		if prev, dup := seen[*code]; dup {
			return nil, invalid(line, "duplicate species code %q (first seen on line %d)", *code, prev)
		}
		seen[*code] = line

		attrs := make(map[string]*string, len(header)-1)
		for i, name := range header {
			if i == codeIdx || name == "" {
				continue
			}
			attrs[name] = cell(record, i)
		}
		species = append(species, models.Species{Code: *code, Attributes: attrs})
	}

	return species, nil
}

// ParseCollections reads the collection sheet. Numeric and date columns are
// coerced, and values that cannot be coerced are stored as null. Rows without
// a collection code are skipped and counted.
func ParseCollections(r io.Reader) ([]models.Collection, int, error) {
	reader := newReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, 0, invalid(1, "failed to read collection header: %v", err)
	}
	if len(header) < len(collectionColumns) {
		return nil, 0, invalid(1, "collection file has %d columns, expected %d", len(header), len(collectionColumns))
	}

	var (
		collections []models.Collection
		skipped     int
	)
	seen := make(map[string]int)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, invalid(errLine(err), "failed to read collection record: %v", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		c, ok := parseCollection(record)
		if !ok {
			skipped++
			continue
		}
		if prev, dup := seen[c.CollectionCode]; dup {
			return nil, 0, invalid(line, "duplicate collection code %q (first seen on line %d)", c.CollectionCode, prev)
		}
		seen[c.CollectionCode] = line

		collections = append(collections, c)
	}

	return collections, skipped, nil
}

func parseCollection(record []string) (models.Collection, bool) {
	col := func(name string) *string {
		for i, n := range collectionColumns {
			if n == name {
				return cell(record, i)
			}
		}
		return nil
	}

	code := col(models.FieldCollectionCode)
	if code == nil {
		return models.Collection{}, false
	}

	c := models.Collection{
		CollectionCode: *code,
		SpeciesCode:    col(models.FieldSpeciesCode),
		CommonName:     col(models.FieldCommonName),
		PerOunce:       parseNumber(col(models.FieldPerOunce)),
		Weight:         parseNumber(col(models.FieldWeight)),
		Chaff:          parseNumber(col(models.FieldChaff)),
		PLS:            parseNumber(col(models.FieldPLS)),
		DateCollected:  parseDate(col(models.FieldDateCollected)),
		Cords:          col(models.FieldCords),
		YearCollected:  parseYear(col(models.FieldYearCollected)),
		County:         col(models.FieldCounty),
		Formation:      col(models.FieldFormation),
		Elevation:      col(models.FieldElevation),
		RanOut:         col(models.FieldRanOut),
		PrairieMoon:    col(models.FieldPrairieMoon),
		StorageCode:    col(models.FieldStorageCode),
		Notes:          col(models.FieldNotes),
	}

	if c.Cords != nil {
		if pos, ok := geo.ParseDMS(*c.Cords); ok {
			c.Latitude = &pos.Lat
			c.Longitude = &pos.Lng
		}
	}

	return c, true
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow ragged rows from spreadsheet exports
	reader.LazyQuotes = true
	return reader
}

// cleanHeader trims header names and drops a UTF-8 byte order mark.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// cell returns the trimmed value at i, or nil when it is empty or missing.
func cell(record []string, i int) *string {
	if i >= len(record) {
		return nil
	}
	v := strings.TrimSpace(record[i])
	if v == "" {
		return nil
	}
	return &v
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseNumber coerces a spreadsheet number, ignoring thousands separators.
func parseNumber(s *string) *float64 {
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(*s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseYear(s *string) *int64 {
	f := parseNumber(s)
	if f == nil || *f != float64(int64(*f)) {
		return nil
	}
	y := int64(*f)
	return &y
}

// parseDate normalizes a date cell to YYYY-MM-DD.
func parseDate(s *string) *string {
	if s == nil {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			d := t.Format("2006-01-02")
			return &d
		}
	}
	return nil
}

func errLine(err error) int {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return perr.Line
	}
	return 0
}

func invalid(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", models.ErrInvalidUpload, line, fmt.Sprintf(format, args...))
}
