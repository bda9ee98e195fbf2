package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAircraftConfig_MapFormat(t *testing.T) {
	cfg, err := ParseAircraftConfig([]byte(`{
		"aircraft": {
			"A320": {
				"baggageCapacityKg": 5000,
				"passengerCapacity": 180,
				"waterCapacity": 300,
				"fuelCapacity": 20000,
				"seats": [
					{"seatNumber": "1A", "seatClass": "business"},
					{"seatNumber": "20F", "seatClass": "economy"}
				]
			}
		}
	}`))
	require.NoError(t, err)

	m, ok := cfg.Model("A320")
	require.True(t, ok)
	assert.Equal(t, "A320", m.Model)
	assert.Equal(t, 5000, m.BaggageCapacityKg)
	assert.Equal(t, 180, m.PassengerCapacity)
	assert.Equal(t, 300, m.WaterCapacity)
	assert.Equal(t, 20000, m.FuelCapacity)
	require.Len(t, m.Seats, 2)
	assert.Equal(t, SeatClassBusiness, m.Seats[0].SeatClass)

	assert.Equal(t, []string{"A320"}, cfg.ModelNames())
}

func TestParseAircraftConfig_LegacyListFormat(t *testing.T) {
	cfg, err := ParseAircraftConfig([]byte(`{
		"aircraft": [
			{
				"model": "A320",
				"baggageCapacityKg": 5000,
				"passengerCapacity": 180,
				"waterCapacity": 300,
				"fuelCapacity": 20000,
				"seats": [{"seatNumber": "1A", "seatClass": "first"}]
			},
			{
				"model": "B747",
				"baggageCapacityKg": 20000,
				"passengerCapacity": 400,
				"waterCapacity": 1000,
				"fuelCapacity": 180000,
				"seats": [{"seatNumber": "1A", "seatClass": "premium_economy"}]
			}
		]
	}`))
	require.NoError(t, err)

	// Legacy list is keyed by model name
	assert.Equal(t, []string{"A320", "B747"}, cfg.ModelNames())
	m, ok := cfg.Model("B747")
	require.True(t, ok)
	assert.Equal(t, 400, m.PassengerCapacity)
}

func TestParseAircraftConfig_UnknownModelLookup(t *testing.T) {
	cfg, err := ParseAircraftConfig([]byte(`{
		"aircraft": {"A320": {"baggageCapacityKg": 1, "passengerCapacity": 1, "waterCapacity": 1, "fuelCapacity": 1, "seats": []}}
	}`))
	require.NoError(t, err)

	_, ok := cfg.Model("Concorde")
	assert.False(t, ok)
}

func TestParseAircraftConfig_InvalidSeatClass(t *testing.T) {
	_, err := ParseAircraftConfig([]byte(`{
		"aircraft": {
			"A320": {
				"baggageCapacityKg": 5000,
				"passengerCapacity": 180,
				"waterCapacity": 300,
				"fuelCapacity": 20000,
				"seats": [{"seatNumber": "1A", "seatClass": "luxury"}]
			}
		}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid class")
}

func TestParseAircraftConfig_NegativeCapacity(t *testing.T) {
	_, err := ParseAircraftConfig([]byte(`{
		"aircraft": {"A320": {"baggageCapacityKg": -1, "passengerCapacity": 180, "waterCapacity": 300, "fuelCapacity": 20000, "seats": []}}
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestParseAircraftConfig_EmptyCatalog(t *testing.T) {
	_, err := ParseAircraftConfig([]byte(`{"aircraft": {}}`))
	require.Error(t, err)

	_, err = ParseAircraftConfig([]byte(`{}`))
	require.Error(t, err)
}

func TestParseAircraftConfig_MalformedJSON(t *testing.T) {
	_, err := ParseAircraftConfig([]byte(`{`))
	require.Error(t, err)
}

func TestLoadAircraftConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircraft_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"aircraft": {"A320": {"baggageCapacityKg": 5000, "passengerCapacity": 180, "waterCapacity": 300, "fuelCapacity": 20000, "seats": []}}
	}`), 0644))

	cfg, err := LoadAircraftConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A320"}, cfg.ModelNames())
}

func TestLoadAircraftConfig_MissingFile(t *testing.T) {
	_, err := LoadAircraftConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
