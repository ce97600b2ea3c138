package models

// Marker is the map-display projection of a collection.
type Marker struct {
	ID            string  `json:"id"`
	CommonName    *string `json:"common_name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	County        *string `json:"county"`
	DateCollected *string `json:"date_collected"`
}

// MarkerPage is one pagination window of markers inside a bounding box.
// Total counts every match for the bounding box regardless of the window.
type MarkerPage struct {
	Items  []Marker `json:"items"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// IngestSummary reports what an upload stored.
type IngestSummary struct {
	Species         int `json:"species"`
	Collections     int `json:"collections"`
	Skipped         int `json:"skipped"`
	WithoutPosition int `json:"without_position"`
}
