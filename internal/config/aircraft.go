package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// SeatClass is the cabin class of a seat.
type SeatClass string

const (
	SeatClassFirst          SeatClass = "first"
	SeatClassBusiness       SeatClass = "business"
	SeatClassPremiumEconomy SeatClass = "premium_economy"
	SeatClassEconomy        SeatClass = "economy"
)

var validSeatClasses = map[SeatClass]bool{
	SeatClassFirst:          true,
	SeatClassBusiness:       true,
	SeatClassPremiumEconomy: true,
	SeatClassEconomy:        true,
}

// Seat is one seat in an aircraft model's seat map.
type Seat struct {
	SeatNumber string    `json:"seatNumber"`
	SeatClass  SeatClass `json:"seatClass"`
}

// AircraftModel is the static configuration entry for one aircraft model.
type AircraftModel struct {
	Model             string `json:"model"`
	BaggageCapacityKg int    `json:"baggageCapacityKg"`
	PassengerCapacity int    `json:"passengerCapacity"`
	WaterCapacity     int    `json:"waterCapacity"`
	FuelCapacity      int    `json:"fuelCapacity"`
	Seats             []Seat `json:"seats"`
}

// AircraftConfig is the immutable model catalog, loaded once at startup and
// validated exhaustively at load time.
type AircraftConfig struct {
	aircraft map[string]AircraftModel
}

// rawAircraftConfig accepts both the current map format and the legacy
// list-of-aircraft format.
type rawAircraftConfig struct {
	Aircraft json.RawMessage `json:"aircraft"`
}

// LoadAircraftConfig reads the aircraft model catalog from a JSON file.
// A legacy list-of-aircraft document is transformed into the map keyed by
// model name.
func LoadAircraftConfig(path string) (*AircraftConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aircraft config %s: %w", path, err)
	}
	return ParseAircraftConfig(data)
}

// ParseAircraftConfig parses and validates an aircraft catalog document.
func ParseAircraftConfig(data []byte) (*AircraftConfig, error) {
	var raw rawAircraftConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid aircraft config: %w", err)
	}
	if len(raw.Aircraft) == 0 {
		return nil, fmt.Errorf("invalid aircraft config: missing \"aircraft\" section")
	}

	models := map[string]AircraftModel{}
	switch raw.Aircraft[0] {
	case '[':
		// Legacy format: a list of aircraft, keyed here by model name
		var list []AircraftModel
		if err := json.Unmarshal(raw.Aircraft, &list); err != nil {
			return nil, fmt.Errorf("invalid aircraft config list: %w", err)
		}
		for _, m := range list {
			models[m.Model] = m
		}
	default:
		if err := json.Unmarshal(raw.Aircraft, &models); err != nil {
			return nil, fmt.Errorf("invalid aircraft config map: %w", err)
		}
		// The map key is authoritative for the model name
		for name, m := range models {
			if m.Model == "" {
				m.Model = name
				models[name] = m
			}
		}
	}

	cfg := &AircraftConfig{aircraft: models}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AircraftConfig) validate() error {
	if len(c.aircraft) == 0 {
		return fmt.Errorf("aircraft config contains no models")
	}
	for name, m := range c.aircraft {
		if m.PassengerCapacity < 0 || m.BaggageCapacityKg < 0 || m.WaterCapacity < 0 || m.FuelCapacity < 0 {
			return fmt.Errorf("model %s: capacities must be non-negative", name)
		}
		for _, seat := range m.Seats {
			if seat.SeatNumber == "" {
				return fmt.Errorf("model %s: seat with empty seatNumber", name)
			}
			if !validSeatClasses[seat.SeatClass] {
				return fmt.Errorf("model %s: seat %s has invalid class %q", name, seat.SeatNumber, seat.SeatClass)
			}
		}
	}
	return nil
}

// Model returns the configuration entry for the named model.
func (c *AircraftConfig) Model(name string) (AircraftModel, bool) {
	m, ok := c.aircraft[name]
	return m, ok
}

// ModelNames returns all configured model names, sorted.
func (c *AircraftConfig) ModelNames() []string {
	names := make([]string, 0, len(c.aircraft))
	for name := range c.aircraft {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
