// Package geo normalizes the coordinate representations found in collection
// records into validated decimal positions, and describes map viewports.
package geo

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Position is a validated WGS 84 coordinate in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RawPosition carries a record's position as found in the data: separate
// latitude/longitude values of any scalar type, and/or a combined DMS string.
type RawPosition struct {
	Lat      any
	Lng      any
	Combined string
}

// dmsComponent matches one `<deg>° <min>' <sec>" [H]` component.
const dmsComponent = `(\d+)\s*[°º]\s*(\d+)\s*['′]\s*(\d*\.?\d+)\s*["″]\s*([NSEWnsew])?`

// dmsPair matches a whole latitude/longitude string and nothing else, so a
// sign or stray text anywhere makes the string unparseable.
var dmsPair = regexp.MustCompile(`^\s*` + dmsComponent + `\s*,?\s*` + dmsComponent + `\s*$`)

// Record keys holding a position, most preferred first. Keys match case-insensitively.
var (
	latitudeKeys  = []string{"latitude", "lat"}
	longitudeKeys = []string{"longitude", "lng", "lon"}
	combinedKeys  = []string{"cords", "coordinates", "coords"}
)

// ValidLat reports whether lat is a finite latitude in [-90, 90].
func ValidLat(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLng reports whether lng is a finite longitude in [-180, 180].
func ValidLng(lng float64) bool {
	return !math.IsNaN(lng) && lng >= -180 && lng <= 180
}

// Normalize returns the validated position for raw, or false when raw holds
// no usable position. Explicit latitude/longitude values take precedence over
// the combined string. Both halves normalize or neither does.
func Normalize(raw RawPosition) (Position, bool) {
	if raw.Lat != nil && raw.Lng != nil {
		lat, okLat := toFloat(raw.Lat)
		lng, okLng := toFloat(raw.Lng)
		if okLat && okLng && ValidLat(lat) && ValidLng(lng) {
			return Position{Lat: lat, Lng: lng}, true
		}
		return Position{}, false
	}
	if strings.TrimSpace(raw.Combined) == "" {
		return Position{}, false
	}
	return ParseDMS(raw.Combined)
}

// ParseDMS parses a combined "latitude longitude" string in degrees, minutes
// and seconds. A missing hemisphere defaults to N for the first component and
// W for the second. Anything besides the two components rejects the string.
func ParseDMS(s string) (Position, bool) {
	m := dmsPair.FindStringSubmatch(s)
	if m == nil {
		return Position{}, false
	}

	lat, ok := dmsValue(m[1:5], "N")
	if !ok || !ValidLat(lat) {
		return Position{}, false
	}
	lng, ok := dmsValue(m[5:9], "W")
	if !ok || !ValidLng(lng) {
		return Position{}, false
	}
	return Position{Lat: lat, Lng: lng}, true
}

// dmsValue converts the degrees, minutes, seconds and hemisphere groups of one component.
func dmsValue(m []string, defaultHemisphere string) (float64, bool) {
	deg, err := strconv.Atoi(m[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	sec, err := strconv.ParseFloat(m[2], 64)
	if err != nil || math.IsInf(sec, 0) {
		return 0, false
	}

	v := float64(deg) + float64(minutes)/60 + sec/3600

	hemisphere := strings.ToUpper(m[3])
	if hemisphere == "" {
		hemisphere = defaultHemisphere
	}
	if hemisphere == "S" || hemisphere == "W" {
		v = -v
	}
	return v, true
}

// FromRecord finds a position in an open-ended record. It looks for
// latitude/longitude keys first (case-insensitive, common short forms
// accepted) and falls back to the combined coordinate string. Keys are
// consulted in a fixed order, so the result never depends on map iteration.
func FromRecord(rec map[string]any) (Position, bool) {
	lat, lng := lookup(rec, latitudeKeys), lookup(rec, longitudeKeys)
	if lat != nil && lng != nil {
		if p, ok := Normalize(RawPosition{Lat: lat, Lng: lng}); ok {
			return p, true
		}
	}
	combined, _ := lookup(rec, combinedKeys).(string)
	return Normalize(RawPosition{Combined: combined})
}

// lookup returns the first non-nil value whose key matches one of aliases,
// in alias order. Keys differing only in case resolve to the smallest one.
func lookup(rec map[string]any, aliases []string) any {
	for _, alias := range aliases {
		var (
			found    any
			foundKey string
		)
		for k, v := range rec {
			if v == nil || !strings.EqualFold(strings.TrimSpace(k), alias) {
				continue
			}
			if found == nil || k < foundKey {
				found, foundKey = v, k
			}
		}
		if found != nil {
			return found
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case *float64:
		if n == nil {
			return 0, false
		}
		f = *n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
