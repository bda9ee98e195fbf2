// Package api exposes the HTTP surface of the aircraft service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/reaport/aircraft/internal/config"
	"github.com/reaport/aircraft/internal/domain"
	"github.com/reaport/aircraft/internal/gateway"
	"github.com/reaport/aircraft/internal/repository"
	"github.com/reaport/aircraft/internal/service"
)

// AircraftService defines what the handlers need from the service layer.
type AircraftService interface {
	Generate(ctx context.Context, flightID, model string) (domain.AircraftInstance, error)
	GetByID(ctx context.Context, aircraftID string) (domain.AircraftInstance, error)
	GetByFlightID(ctx context.Context, flightID string) (domain.AircraftInstance, error)
	UpdatePassengers(ctx context.Context, aircraftID string, count int) (domain.AircraftInstance, error)
	UpdateBaggage(ctx context.Context, aircraftID string, weightKg int) (domain.AircraftInstance, error)
	UpdateWater(ctx context.Context, aircraftID string, weightKg int) (domain.AircraftInstance, error)
	UpdateFuel(ctx context.Context, aircraftID string, weightKg int) (domain.AircraftInstance, error)
	UpdateNodeID(ctx context.Context, aircraftID, nodeID string) (domain.AircraftInstance, error)
	Landing(ctx context.Context, flightID string) (string, error)
	Takeoff(ctx context.Context, aircraftID string) error
	ListFlights(ctx context.Context) ([]string, error)
}

// API holds the service dependency and the model catalog for the handlers.
type API struct {
	service AircraftService
	models  *config.AircraftConfig
}

// NewAPI creates a new API instance.
func NewAPI(service AircraftService, models *config.AircraftConfig) *API {
	return &API{
		service: service,
		models:  models,
	}
}

// RegisterRoutes registers all API endpoints on the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", a.rootHandler)
	r.Get("/flights", a.listFlightsHandler)
	r.Post("/generate", a.generateHandler)

	r.Patch("/{aircraftID}/passengers", a.updatePassengersHandler)
	r.Get("/{aircraftID}/passengers", a.getPassengersHandler)
	r.Patch("/{aircraftID}/baggage", a.updateBaggageHandler)
	r.Get("/{aircraftID}/baggage", a.getBaggageHandler)
	r.Patch("/{aircraftID}/water", a.updateWaterHandler)
	r.Get("/{aircraftID}/water", a.getWaterHandler)
	r.Patch("/{aircraftID}/fuel", a.updateFuelHandler)
	r.Get("/{aircraftID}/fuel", a.getFuelHandler)

	r.Get("/{aircraftID}/coordinates", a.getCoordinatesHandler)
	r.Patch("/{aircraftID}/coordinates", a.updateCoordinatesHandler)

	r.Post("/{flightID}/landing", a.landingHandler)
	r.Post("/{aircraftID}/takeoff", a.takeoffHandler)
	r.Get("/{flightID}/aircraft_id", a.getAircraftIDHandler)
}

// ErrorResponse is the JSON body of every failure reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps domain and upstream failures onto distinct status
// categories. The body carries the error message, never a stack trace.
func writeDomainError(w http.ResponseWriter, err error) {
	var statusErr *gateway.StatusError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, repository.ErrInvalidEntity),
		errors.Is(err, repository.ErrUnknownModel):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrIncompleteUpstream), errors.As(err, &statusErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// rootHandler reports service liveness and the configured model catalog.
func (a *API) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":          "Aircraft API is running",
		"available_models": a.models.ModelNames(),
	})
}

// listFlightsHandler returns all active flight identifiers.
func (a *API) listFlightsHandler(w http.ResponseWriter, r *http.Request) {
	flights, err := a.service.ListFlights(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if flights == nil {
		flights = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"flights": flights})
}
