package models

// Record is the open-ended key/value form of a collection, as returned by the detail endpoint.
type Record map[string]any

// Collection represents a single seed collection event with its typed spreadsheet columns and the position derived from its coordinate string.
type Collection struct {
	CollectionCode string
	SpeciesCode    *string
	CommonName     *string
	PerOunce       *float64
	Weight         *float64
	Chaff          *float64
	PLS            *float64
	DateCollected  *string
	Cords          *string
	YearCollected  *int64
	County         *string
	Formation      *string
	Elevation      *string
	RanOut         *string
	PrairieMoon    *string
	StorageCode    *string
	Notes          *string
	Latitude       *float64
	Longitude      *float64
}

// Column names used as record keys. They match the headers of the collection sheet.
const (
	FieldCollectionCode = "Collection Code"
	FieldSpeciesCode    = "Species Code"
	FieldCommonName     = "Common Name"
	FieldPerOunce       = "Per Ounce"
	FieldWeight         = "Weight"
	FieldChaff          = "Chaff"
	FieldPLS            = "PLS"
	FieldDateCollected  = "Date Collected"
	FieldCords          = "Cords"
	FieldYearCollected  = "Year Collected"
	FieldCounty         = "County"
	FieldFormation      = "Formation"
	FieldElevation      = "Elevation"
	FieldRanOut         = "Ran Out"
	FieldPrairieMoon    = "Prairie Moon"
	FieldStorageCode    = "Storage Code"
	FieldNotes          = "Notes"
	FieldLatitude       = "Latitude"
	FieldLongitude      = "Longitude"
)

// Fields projects the collection to a Record. Null columns are kept as nil values.
func (c Collection) Fields() Record {
	return Record{
		FieldCollectionCode: c.CollectionCode,
		FieldSpeciesCode:    deref(c.SpeciesCode),
		FieldCommonName:     deref(c.CommonName),
		FieldPerOunce:       deref(c.PerOunce),
		FieldWeight:         deref(c.Weight),
		FieldChaff:          deref(c.Chaff),
		FieldPLS:            deref(c.PLS),
		FieldDateCollected:  deref(c.DateCollected),
		FieldCords:          deref(c.Cords),
		FieldYearCollected:  deref(c.YearCollected),
		FieldCounty:         deref(c.County),
		FieldFormation:      deref(c.Formation),
		FieldElevation:      deref(c.Elevation),
		FieldRanOut:         deref(c.RanOut),
		FieldPrairieMoon:    deref(c.PrairieMoon),
		FieldStorageCode:    deref(c.StorageCode),
		FieldNotes:          deref(c.Notes),
		FieldLatitude:       deref(c.Latitude),
		FieldLongitude:      deref(c.Longitude),
	}
}

// HasPosition reports whether a normalized position was derived for the collection.
func (c Collection) HasPosition() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// Species is one row of the species sheet. Attributes holds every column other than the species code.
type Species struct {
	Code       string
	Attributes map[string]*string
}

// MergeInto copies species attributes into rec without overwriting keys the collection already set.
func (s Species) MergeInto(rec Record) {
	for k, v := range s.Attributes {
		if _, exists := rec[k]; exists {
			continue
		}
		rec[k] = deref(v)
	}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// CollectionDetail is a collection joined with its species row, when one exists.
type CollectionDetail struct {
	Collection Collection
	Species    *Species
}

// Record flattens the detail into the key/value form served to clients.
func (d CollectionDetail) Record() Record {
	rec := d.Collection.Fields()
	if d.Species != nil {
		d.Species.MergeInto(rec)
	}
	return rec
}
