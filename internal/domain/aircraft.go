package domain

import "fmt"

// ErrCapacityExceeded is wrapped by every setter rejection so callers can
// distinguish a capacity violation from other failures with errors.Is.
var ErrCapacityExceeded = fmt.Errorf("capacity exceeded")

// AircraftInstance is the resource ledger for one flight's assigned aircraft.
// It is addressable by FlightID from creation and additionally by ID once the
// landing flow assigns one. Capacity fields are copied from the model
// configuration at creation and never change afterwards.
type AircraftInstance struct {
	ID       string `json:"id,omitempty"`
	Model    string `json:"model"`
	FlightID string `json:"flight_id"`
	NodeID   string `json:"node_id,omitempty"`

	BaggageCapacityKg int `json:"baggage_capacity_kg"`
	PassengerCapacity int `json:"passenger_capacity"`
	WaterCapacity     int `json:"water_capacity"`
	FuelCapacity      int `json:"fuel_capacity"`

	ActualPassengers int `json:"actual_passengers"`
	ActualBaggageKg  int `json:"actual_baggage_kg"`
	ActualWaterKg    int `json:"actual_water_kg"`
	ActualFuelKg     int `json:"actual_fuel_kg"`
}

// UpdatePassengers sets the passenger count, rejecting values outside
// [0, PassengerCapacity]. On rejection the stored value is unchanged.
func (a *AircraftInstance) UpdatePassengers(count int) error {
	if count < 0 || count > a.PassengerCapacity {
		return fmt.Errorf("passenger count %d exceeds capacity %d: %w", count, a.PassengerCapacity, ErrCapacityExceeded)
	}
	a.ActualPassengers = count
	return nil
}

// UpdateBaggage sets the baggage weight in kg.
func (a *AircraftInstance) UpdateBaggage(weightKg int) error {
	if weightKg < 0 || weightKg > a.BaggageCapacityKg {
		return fmt.Errorf("baggage weight %d kg exceeds capacity %d kg: %w", weightKg, a.BaggageCapacityKg, ErrCapacityExceeded)
	}
	a.ActualBaggageKg = weightKg
	return nil
}

// UpdateWater sets the water weight in kg.
func (a *AircraftInstance) UpdateWater(weightKg int) error {
	if weightKg < 0 || weightKg > a.WaterCapacity {
		return fmt.Errorf("water weight %d kg exceeds capacity %d kg: %w", weightKg, a.WaterCapacity, ErrCapacityExceeded)
	}
	a.ActualWaterKg = weightKg
	return nil
}

// UpdateFuel sets the fuel weight in kg.
func (a *AircraftInstance) UpdateFuel(weightKg int) error {
	if weightKg < 0 || weightKg > a.FuelCapacity {
		return fmt.Errorf("fuel weight %d kg exceeds capacity %d kg: %w", weightKg, a.FuelCapacity, ErrCapacityExceeded)
	}
	a.ActualFuelKg = weightKg
	return nil
}

// UpdateNodeID overwrites the ground node identifier. No capacity check.
func (a *AircraftInstance) UpdateNodeID(nodeID string) {
	a.NodeID = nodeID
}
