package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBounds_Validate(t *testing.T) {
	tests := []struct {
		name        string
		bounds      Bounds
		expectError bool
	}{
		{name: "ohio", bounds: Bounds{MinLat: 38.4, MaxLat: 41.98, MinLng: -84.82, MaxLng: -80.52}},
		{name: "whole world", bounds: Bounds{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}},
		{name: "antimeridian", bounds: Bounds{MinLat: -10, MaxLat: 10, MinLng: 170, MaxLng: -170}},
		{name: "inverted latitude", bounds: Bounds{MinLat: 10, MaxLat: -10, MinLng: 0, MaxLng: 1}, expectError: true},
		{name: "latitude out of range", bounds: Bounds{MinLat: -91, MaxLat: 0, MinLng: 0, MaxLng: 1}, expectError: true},
		{name: "longitude out of range", bounds: Bounds{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 181}, expectError: true},
		{name: "nan", bounds: Bounds{MinLat: math.NaN(), MaxLat: 1, MinLng: 0, MaxLng: 1}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBounds_Contains(t *testing.T) {
	ohio := Bounds{MinLat: 38.4, MaxLat: 41.98, MinLng: -84.82, MaxLng: -80.52}
	assert.True(t, ohio.Contains(Position{Lat: 40, Lng: -83}))
	assert.True(t, ohio.Contains(Position{Lat: 38.4, Lng: -84.82}))
	assert.False(t, ohio.Contains(Position{Lat: 40, Lng: 83}))
	assert.False(t, ohio.Contains(Position{Lat: 42, Lng: -83}))

	pacific := Bounds{MinLat: -10, MaxLat: 10, MinLng: 170, MaxLng: -170}
	assert.True(t, pacific.CrossesAntimeridian())
	assert.True(t, pacific.Contains(Position{Lat: 0, Lng: 175}))
	assert.True(t, pacific.Contains(Position{Lat: 0, Lng: -175}))
	assert.False(t, pacific.Contains(Position{Lat: 0, Lng: 0}))
}
