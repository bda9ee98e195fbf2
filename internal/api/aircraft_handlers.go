package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reaport/aircraft/internal/config"
	"github.com/reaport/aircraft/internal/domain"
)

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	FlightID      string `json:"flightId"`
	AircraftModel string `json:"aircraft_model,omitempty"`
}

// GenerateResponse describes a freshly provisioned aircraft instance.
type GenerateResponse struct {
	FlightID        string        `json:"flightId"`
	AircraftModel   string        `json:"aircraft_model"`
	PassengersCount int           `json:"passengers_count"`
	BaggageKg       int           `json:"baggage_kg"`
	WaterKg         int           `json:"water_kg"`
	FuelKg          int           `json:"fuel_kg"`
	MaxPassengers   int           `json:"max_passengers"`
	MaxBaggageKg    int           `json:"max_baggage_kg"`
	MaxWaterKg      int           `json:"max_water_kg"`
	MaxFuelKg       int           `json:"max_fuel_kg"`
	Seats           []config.Seat `json:"seats"`
}

// PassengerUpdate carries the absolute passenger count for PATCH and GET.
type PassengerUpdate struct {
	Passengers int `json:"passengers"`
}

// BaggageUpdate carries the absolute baggage weight in kilograms.
type BaggageUpdate struct {
	Baggage int `json:"baggage"`
}

// WaterUpdate carries the absolute potable water weight in kilograms.
type WaterUpdate struct {
	WaterAmount int `json:"water_amount"`
}

// FuelUpdate carries the absolute fuel weight in kilograms.
type FuelUpdate struct {
	FuelAmount int `json:"fuel_amount"`
}

// Coordinates carries the map node an aircraft currently occupies.
type Coordinates struct {
	NodeID string `json:"node_id"`
}

// LandingResponse returns the identity assigned during the landing flow.
type LandingResponse struct {
	AircraftID string `json:"aircraft_id"`
}

// AircraftIDResponse resolves a flight to its assigned aircraft identifier.
type AircraftIDResponse struct {
	AircraftID string `json:"aircraft_id"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (a *API) generateResponse(inst domain.AircraftInstance) GenerateResponse {
	resp := GenerateResponse{
		FlightID:        inst.FlightID,
		AircraftModel:   inst.Model,
		PassengersCount: inst.ActualPassengers,
		BaggageKg:       inst.ActualBaggageKg,
		WaterKg:         inst.ActualWaterKg,
		FuelKg:          inst.ActualFuelKg,
		MaxPassengers:   inst.PassengerCapacity,
		MaxBaggageKg:    inst.BaggageCapacityKg,
		MaxWaterKg:      inst.WaterCapacity,
		MaxFuelKg:       inst.FuelCapacity,
		Seats:           []config.Seat{},
	}
	if model, ok := a.models.Model(inst.Model); ok {
		resp.Seats = model.Seats
	}
	return resp
}

// generateHandler provisions a new aircraft record for a flight.
func (a *API) generateHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FlightID == "" {
		writeError(w, http.StatusBadRequest, "flightId is required")
		return
	}

	inst, err := a.service.Generate(r.Context(), req.FlightID, req.AircraftModel)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.generateResponse(inst))
}

func (a *API) updatePassengersHandler(w http.ResponseWriter, r *http.Request) {
	var req PassengerUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := a.service.UpdatePassengers(r.Context(), chi.URLParam(r, "aircraftID"), req.Passengers); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getPassengersHandler(w http.ResponseWriter, r *http.Request) {
	inst, err := a.service.GetByID(r.Context(), chi.URLParam(r, "aircraftID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PassengerUpdate{Passengers: inst.ActualPassengers})
}

func (a *API) updateBaggageHandler(w http.ResponseWriter, r *http.Request) {
	var req BaggageUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := a.service.UpdateBaggage(r.Context(), chi.URLParam(r, "aircraftID"), req.Baggage); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getBaggageHandler(w http.ResponseWriter, r *http.Request) {
	inst, err := a.service.GetByID(r.Context(), chi.URLParam(r, "aircraftID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BaggageUpdate{Baggage: inst.ActualBaggageKg})
}

func (a *API) updateWaterHandler(w http.ResponseWriter, r *http.Request) {
	var req WaterUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := a.service.UpdateWater(r.Context(), chi.URLParam(r, "aircraftID"), req.WaterAmount); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getWaterHandler(w http.ResponseWriter, r *http.Request) {
	inst, err := a.service.GetByID(r.Context(), chi.URLParam(r, "aircraftID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WaterUpdate{WaterAmount: inst.ActualWaterKg})
}

func (a *API) updateFuelHandler(w http.ResponseWriter, r *http.Request) {
	var req FuelUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := a.service.UpdateFuel(r.Context(), chi.URLParam(r, "aircraftID"), req.FuelAmount); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getFuelHandler(w http.ResponseWriter, r *http.Request) {
	inst, err := a.service.GetByID(r.Context(), chi.URLParam(r, "aircraftID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FuelUpdate{FuelAmount: inst.ActualFuelKg})
}

func (a *API) getCoordinatesHandler(w http.ResponseWriter, r *http.Request) {
	inst, err := a.service.GetByID(r.Context(), chi.URLParam(r, "aircraftID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Coordinates{NodeID: inst.NodeID})
}

func (a *API) updateCoordinatesHandler(w http.ResponseWriter, r *http.Request) {
	var req Coordinates
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "node_id is required")
		return
	}
	if _, err := a.service.UpdateNodeID(r.Context(), chi.URLParam(r, "aircraftID"), req.NodeID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// landingHandler runs the landing flow: registers the aircraft with ground
// control, binds the assigned identity, and reports the landing.
func (a *API) landingHandler(w http.ResponseWriter, r *http.Request) {
	aircraftID, err := a.service.Landing(r.Context(), chi.URLParam(r, "flightID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LandingResponse{AircraftID: aircraftID})
}

// takeoffHandler removes every trace of the aircraft instance.
func (a *API) takeoffHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Takeoff(r.Context(), chi.URLParam(r, "aircraftID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getAircraftIDHandler resolves a flight to its aircraft identifier. Until the
// landing flow has assigned one, the flight has no identity and this is a 404.
func (a *API) getAircraftIDHandler(w http.ResponseWriter, r *http.Request) {
	inst, err := a.service.GetByFlightID(r.Context(), chi.URLParam(r, "flightID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if inst.ID == "" {
		writeError(w, http.StatusNotFound, "aircraft id not yet assigned")
		return
	}
	writeJSON(w, http.StatusOK, AircraftIDResponse{AircraftID: inst.ID})
}
