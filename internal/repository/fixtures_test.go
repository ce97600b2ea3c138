package repository

import "planttracker-api/internal/models"

func ptr[T any](v T) *T { return &v }

func fixtureSpecies() []models.Species {
	return []models.Species{
		{
			Code: "ASCSYR",
			Attributes: map[string]*string{
				"Scientific Name": ptr("Asclepias syriaca"),
				"Family":          ptr("Apocynaceae"),
				"Common Name":     ptr("milkweed (species sheet)"),
				"Stratification":  nil,
			},
		},
		{
			Code:       "RUDHIR",
			Attributes: map[string]*string{"Family": ptr("Asteraceae")},
		},
	}
}

func fixtureCollections() []models.Collection {
	return []models.Collection{
		{
			CollectionCode: "C-001",
			SpeciesCode:    ptr("ASCSYR"),
			CommonName:     ptr("Common Milkweed"),
			PerOunce:       ptr(4500.0),
			DateCollected:  ptr("2023-06-15"),
			Cords:          ptr(`40° 0' 0" N 83° 0' 0" W`),
			YearCollected:  ptr(int64(2023)),
			County:         ptr("Franklin"),
			Latitude:       ptr(40.0),
			Longitude:      ptr(-83.0),
		},
		{
			CollectionCode: "C-002",
			SpeciesCode:    ptr("RUDHIR"),
			CommonName:     ptr("Black-eyed Susan"),
			County:         ptr("Delaware"),
			Latitude:       ptr(39.5),
			Longitude:      ptr(-82.5),
		},
		{
			CollectionCode: "C-003",
			SpeciesCode:    ptr("UNKNWN"),
			Notes:          ptr("no coordinates recorded"),
		},
		{
			CollectionCode: "C-004",
			Latitude:       ptr(-17.0),
			Longitude:      ptr(179.5),
		},
		{
			CollectionCode: "C-005",
			Latitude:       ptr(-17.0),
			Longitude:      ptr(-179.5),
		},
	}
}
