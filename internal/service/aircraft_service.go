// Package service sequences the aircraft-instance lifecycle: random
// instantiation, per-field capacity-checked updates, and the landing and
// takeoff transitions against the external fleet services.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reaport/aircraft/internal/domain"
	"github.com/reaport/aircraft/internal/gateway"
	"github.com/reaport/aircraft/internal/repository"
)

// ErrIncompleteUpstream is returned when a fleet service answers without the
// identifiers the landing flow needs.
var ErrIncompleteUpstream = errors.New("upstream returned incomplete registration data")

// GroundControl is the ground-control side of the landing handoff.
type GroundControl interface {
	RegisterVehicle(ctx context.Context) (*gateway.RegisterVehicleResponse, error)
}

// Orchestrator is the fleet-orchestrator side of the landing handoff.
type Orchestrator interface {
	RegisterVehicle(ctx context.Context) (*gateway.RegisterVehicleResponse, error)
	ReportLanding(ctx context.Context, aircraftID, landingPoint string) (json.RawMessage, error)
}

// AircraftService coordinates the repository and the fleet gateways. It
// never touches the key/value backend directly.
type AircraftService struct {
	repo          repository.AircraftRepository
	groundControl GroundControl
	orchestrator  Orchestrator
	log           zerolog.Logger
}

// New creates the service.
func New(repo repository.AircraftRepository, groundControl GroundControl, orchestrator Orchestrator, logger zerolog.Logger) *AircraftService {
	return &AircraftService{
		repo:          repo,
		groundControl: groundControl,
		orchestrator:  orchestrator,
		log:           logger.With().Str("component", "aircraft_service").Logger(),
	}
}

// Generate creates a random instance for the flight. An empty model picks a
// random configured one.
func (s *AircraftService) Generate(ctx context.Context, flightID, model string) (domain.AircraftInstance, error) {
	instance, err := s.repo.CreateRandom(ctx, flightID, model)
	if err != nil {
		return domain.AircraftInstance{}, err
	}
	s.log.Info().Str("flight_id", flightID).Str("model", instance.Model).Msg("aircraft instance created")
	return instance, nil
}

// GetByID retrieves an instance by aircraft id.
func (s *AircraftService) GetByID(ctx context.Context, aircraftID string) (domain.AircraftInstance, error) {
	return s.repo.FindByID(ctx, aircraftID)
}

// GetByFlightID retrieves an instance by flight id.
func (s *AircraftService) GetByFlightID(ctx context.Context, flightID string) (domain.AircraftInstance, error) {
	return s.repo.FindByFlightID(ctx, flightID)
}

// ListFlights returns all active flight identifiers.
func (s *AircraftService) ListFlights(ctx context.Context) ([]string, error) {
	return s.repo.ListFlightIDs(ctx)
}

// update loads the instance by id, applies mutate, and persists. A rejected
// mutation aborts before any write, so the stored record is unaffected.
func (s *AircraftService) update(ctx context.Context, aircraftID string, mutate func(*domain.AircraftInstance) error) (domain.AircraftInstance, error) {
	current, err := s.repo.FindByID(ctx, aircraftID)
	if err != nil {
		return domain.AircraftInstance{}, err
	}
	if err := mutate(&current); err != nil {
		return domain.AircraftInstance{}, err
	}
	return s.repo.Save(ctx, current)
}

// UpdatePassengers sets the passenger count, capacity-checked.
func (s *AircraftService) UpdatePassengers(ctx context.Context, aircraftID string, count int) (domain.AircraftInstance, error) {
	return s.update(ctx, aircraftID, func(a *domain.AircraftInstance) error {
		return a.UpdatePassengers(count)
	})
}

// UpdateBaggage sets the baggage weight, capacity-checked.
func (s *AircraftService) UpdateBaggage(ctx context.Context, aircraftID string, weightKg int) (domain.AircraftInstance, error) {
	return s.update(ctx, aircraftID, func(a *domain.AircraftInstance) error {
		return a.UpdateBaggage(weightKg)
	})
}

// UpdateWater sets the water weight, capacity-checked.
func (s *AircraftService) UpdateWater(ctx context.Context, aircraftID string, weightKg int) (domain.AircraftInstance, error) {
	return s.update(ctx, aircraftID, func(a *domain.AircraftInstance) error {
		return a.UpdateWater(weightKg)
	})
}

// UpdateFuel sets the fuel weight, capacity-checked.
func (s *AircraftService) UpdateFuel(ctx context.Context, aircraftID string, weightKg int) (domain.AircraftInstance, error) {
	return s.update(ctx, aircraftID, func(a *domain.AircraftInstance) error {
		return a.UpdateFuel(weightKg)
	})
}

// UpdateNodeID overwrites the ground node id. No capacity check.
func (s *AircraftService) UpdateNodeID(ctx context.Context, aircraftID, nodeID string) (domain.AircraftInstance, error) {
	return s.update(ctx, aircraftID, func(a *domain.AircraftInstance) error {
		a.UpdateNodeID(nodeID)
		return nil
	})
}

// Landing runs the unidentified-airborne → identified-grounded transition:
// register with ground control, attach the assigned vehicle id and node,
// then report the landing to the orchestrator. A failure after partial
// progress leaves whatever completed persisted; there is no rollback.
func (s *AircraftService) Landing(ctx context.Context, flightID string) (string, error) {
	if _, err := s.repo.FindByFlightID(ctx, flightID); err != nil {
		return "", err
	}

	registration, err := s.groundControl.RegisterVehicle(ctx)
	if err != nil {
		return "", fmt.Errorf("landing of flight %s: %w", flightID, err)
	}
	if registration.VehicleID == "" || registration.GarrageNodeID == "" {
		return "", fmt.Errorf("landing of flight %s: ground control reply missing vehicleId or garrageNodeId: %w", flightID, ErrIncompleteUpstream)
	}

	instance, err := s.repo.AssignID(ctx, flightID, registration.VehicleID)
	if err != nil {
		return "", err
	}

	instance.UpdateNodeID(registration.GarrageNodeID)
	if _, err := s.repo.Save(ctx, instance); err != nil {
		return "", fmt.Errorf("landing of flight %s: %w", flightID, err)
	}

	if _, err := s.orchestrator.ReportLanding(ctx, instance.ID, registration.GarrageNodeID); err != nil {
		return "", fmt.Errorf("landing of flight %s: %w", flightID, err)
	}

	s.log.Info().Str("flight_id", flightID).Str("aircraft_id", instance.ID).
		Str("node_id", registration.GarrageNodeID).Msg("aircraft landed")
	return instance.ID, nil
}

// Takeoff retires the instance: the record, the id mapping, and the flight
// inventory entry are all removed.
func (s *AircraftService) Takeoff(ctx context.Context, aircraftID string) error {
	deleted, err := s.repo.DeleteByID(ctx, aircraftID)
	if err != nil {
		return fmt.Errorf("takeoff of aircraft %s: %w", aircraftID, err)
	}
	if !deleted {
		return fmt.Errorf("takeoff of aircraft %s: %w", aircraftID, repository.ErrNotFound)
	}
	s.log.Info().Str("aircraft_id", aircraftID).Msg("aircraft took off")
	return nil
}
