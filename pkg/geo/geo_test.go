package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		from     Coordinates
		to       Coordinates
		expected float64
		delta    float64
	}{
		{
			name:     "Same Point",
			from:     Coordinates{Latitude: 28.60, Longitude: 77.20},
			to:       Coordinates{Latitude: 28.60, Longitude: 77.20},
			expected: 0,
			delta:    0.0001,
		},
		{
			name:     "One Degree Longitude At Equator",
			from:     Coordinates{Latitude: 0, Longitude: 0},
			to:       Coordinates{Latitude: 0, Longitude: 1},
			expected: 111.19,
			delta:    0.1,
		},
		{
			name:     "One Degree Latitude",
			from:     Coordinates{Latitude: 0, Longitude: 0},
			to:       Coordinates{Latitude: 1, Longitude: 0},
			expected: 111.19,
			delta:    0.1,
		},
		{
			name:     "Across Delhi",
			from:     Coordinates{Latitude: 28.60, Longitude: 77.20},
			to:       Coordinates{Latitude: 28.61, Longitude: 77.21},
			expected: 1.48,
			delta:    0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Distance(tt.from, tt.to), tt.delta)
		})
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := Coordinates{Latitude: 28.6139, Longitude: 77.2090}
	b := Coordinates{Latitude: 19.0760, Longitude: 72.8777}

	assert.InDelta(t, Distance(a, b), Distance(b, a), 0.0001)
	assert.Greater(t, Distance(a, b), 1000.0)
}

func TestNewCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid delhi", 28.60, 77.20, false},
		{"valid boundary north", 90, 180, false},
		{"valid boundary south", -90, -180, false},
		{"latitude too high", 90.0001, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 181, true},
		{"longitude too low", 0, -180.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCoordinates(tt.lat, tt.lon)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCoordinates() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 1.48, RoundKm(1.4849))
	assert.Equal(t, 1.49, RoundKm(1.486))
	assert.Equal(t, 0.0, RoundKm(0))
}
