package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFinite(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"integer", "12", 12, false},
		{"decimal", "12.5", 12.5, false},
		{"negative", "-45.25", -45.25, false},
		{"padded", "  3.0 ", 3, false},
		{"empty", "", 0, true},
		{"text", "north", 0, true},
		{"nan", "NaN", 0, true},
		{"inf", "Inf", 0, true},
		{"negative inf", "-Inf", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFinite(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCoordinates))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLatLon(t *testing.T) {
	lat, lon, err := ParseLatLon("12.5", "45.0")
	require.NoError(t, err)
	assert.Equal(t, 12.5, lat)
	assert.Equal(t, 45.0, lon)

	_, _, err = ParseLatLon("12.5", "")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, _, err = ParseLatLon("NaN", "2.0")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestValidateWGS84(t *testing.T) {
	assert.NoError(t, ValidateWGS84(0, 0))
	assert.NoError(t, ValidateWGS84(-90, 180))
	assert.NoError(t, ValidateWGS84(90, -180))

	assert.ErrorIs(t, ValidateWGS84(90.1, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateWGS84(0, -180.5), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateWGS84(math.NaN(), 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateWGS84(0, math.Inf(1)), ErrInvalidCoordinates)
}

func TestPoint3857From4326_Origin(t *testing.T) {
	point, err := Point3857From4326(0, 0)
	require.NoError(t, err)

	coords, ok := point.Coordinates()
	require.True(t, ok, "expected non-empty point")
	assert.InDelta(t, 0, coords.X, 1e-6)
	assert.InDelta(t, 0, coords.Y, 1e-6)
}

func TestPoint3857From4326_Antimeridian(t *testing.T) {
	point, err := Point3857From4326(180, 0)
	require.NoError(t, err)

	coords, ok := point.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 20037508.34, coords.X, 1)
	assert.InDelta(t, 0, coords.Y, 1e-6)
}

func TestPoint3857From4326_NorthIsPositiveY(t *testing.T) {
	point, err := Point3857From4326(45.0, 12.5)
	require.NoError(t, err)

	coords, ok := point.Coordinates()
	require.True(t, ok)
	assert.Greater(t, coords.X, 0.0)
	assert.Greater(t, coords.Y, 0.0)
}

func TestPoint3857From4326_OutOfRange(t *testing.T) {
	point, err := Point3857From4326(0, 95)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.True(t, point.IsEmpty())
}
