package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/reaport/aircraft/internal/config"
	"github.com/reaport/aircraft/internal/domain"
	"github.com/reaport/aircraft/internal/kvstore"
)

// Key scheme on the backend. flight:{flightId} holds the authoritative
// record; aircraft_to_flight:{id} is a secondary index that may go stale;
// flights:all tracks every active flight for external inventory use.
const (
	flightKeyPrefix   = "flight:"
	aircraftKeyPrefix = "aircraft_to_flight:"
	allFlightsSet     = "flights:all"
)

// AircraftRepository is the dual-key store for aircraft instances: one
// record per flight, plus a secondary index from aircraft id to flight id.
type AircraftRepository interface {
	// CreateRandom creates an instance for flightID with random actual
	// loads in [0, capacity]. An empty model picks a random configured one.
	// The new instance has no aircraft id.
	CreateRandom(ctx context.Context, flightID, model string) (domain.AircraftInstance, error)

	// FindByFlightID retrieves the instance for a flight.
	// Returns ErrNotFound if no record exists.
	FindByFlightID(ctx context.Context, flightID string) (domain.AircraftInstance, error)

	// AssignID attaches aircraftID to the flight's instance and writes the
	// secondary index entry. Returns ErrConflict if aircraftID already maps
	// to a different flight; re-assigning the same id to the same flight is
	// accepted.
	AssignID(ctx context.Context, flightID, aircraftID string) (domain.AircraftInstance, error)

	// FindByID resolves the secondary index and loads the flight record.
	// Returns ErrNotFound for a missing mapping or a stale index.
	FindByID(ctx context.Context, aircraftID string) (domain.AircraftInstance, error)

	// Save overwrites the stored record for an identified instance.
	// Returns ErrInvalidEntity if the instance has no id.
	Save(ctx context.Context, instance domain.AircraftInstance) (domain.AircraftInstance, error)

	// DeleteByID removes the flight record, the index entry, and the flight
	// inventory membership. Returns (false, nil) for a never-assigned id.
	DeleteByID(ctx context.Context, aircraftID string) (bool, error)

	// ListFlightIDs returns all tracked flight identifiers.
	ListFlightIDs(ctx context.Context) ([]string, error)
}

// aircraftRepositoryImpl implements AircraftRepository over a key/value
// backend. The backend has no cross-key transaction, so the multi-key write
// sequences (create, assign, delete) are serialized by a single in-process
// writer lock.
type aircraftRepositoryImpl struct {
	store  kvstore.Store
	models *config.AircraftConfig

	mu sync.Mutex
}

// NewAircraftRepository creates a repository over the given backend and
// model catalog.
func NewAircraftRepository(store kvstore.Store, models *config.AircraftConfig) AircraftRepository {
	return &aircraftRepositoryImpl{
		store:  store,
		models: models,
	}
}

func flightKey(flightID string) string {
	return flightKeyPrefix + flightID
}

func aircraftKey(aircraftID string) string {
	return aircraftKeyPrefix + aircraftID
}

func marshalInstance(instance domain.AircraftInstance) (string, error) {
	data, err := json.Marshal(instance)
	if err != nil {
		return "", fmt.Errorf("failed to marshal aircraft instance: %w", err)
	}
	return string(data), nil
}

func unmarshalInstance(data string) (domain.AircraftInstance, error) {
	var instance domain.AircraftInstance
	if err := json.Unmarshal([]byte(data), &instance); err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to unmarshal aircraft instance: %w", err)
	}
	return instance, nil
}

// CreateRandom creates and persists a fresh instance for the flight.
func (r *aircraftRepositoryImpl) CreateRandom(ctx context.Context, flightID, model string) (domain.AircraftInstance, error) {
	if model == "" {
		names := r.models.ModelNames()
		if len(names) == 0 {
			return domain.AircraftInstance{}, ErrNoModelsConfigured
		}
		model = names[rand.IntN(len(names))]
	}

	cfg, ok := r.models.Model(model)
	if !ok {
		return domain.AircraftInstance{}, fmt.Errorf("model %q: %w", model, ErrUnknownModel)
	}

	instance := domain.AircraftInstance{
		Model:             model,
		FlightID:          flightID,
		BaggageCapacityKg: cfg.BaggageCapacityKg,
		PassengerCapacity: cfg.PassengerCapacity,
		WaterCapacity:     cfg.WaterCapacity,
		FuelCapacity:      cfg.FuelCapacity,
		ActualPassengers:  rand.IntN(cfg.PassengerCapacity + 1),
		ActualBaggageKg:   rand.IntN(cfg.BaggageCapacityKg + 1),
		ActualWaterKg:     rand.IntN(cfg.WaterCapacity + 1),
		ActualFuelKg:      rand.IntN(cfg.FuelCapacity + 1),
	}

	data, err := marshalInstance(instance)
	if err != nil {
		return domain.AircraftInstance{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Set(ctx, flightKey(flightID), data); err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to store aircraft for flight %s: %w", flightID, err)
	}
	if err := r.store.AddToSet(ctx, allFlightsSet, flightID); err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to track flight %s: %w", flightID, err)
	}
	return instance, nil
}

// FindByFlightID retrieves the instance stored under the flight key.
func (r *aircraftRepositoryImpl) FindByFlightID(ctx context.Context, flightID string) (domain.AircraftInstance, error) {
	data, err := r.store.Get(ctx, flightKey(flightID))
	if err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to load aircraft for flight %s: %w", flightID, err)
	}
	if data == nil {
		return domain.AircraftInstance{}, fmt.Errorf("aircraft for flight %s: %w", flightID, ErrNotFound)
	}
	return unmarshalInstance(*data)
}

// AssignID sets the aircraft id on the flight's instance and writes the
// secondary index entry. The two writes are not atomic on the backend; the
// writer lock closes the race window within this process.
func (r *aircraftRepositoryImpl) AssignID(ctx context.Context, flightID, aircraftID string) (domain.AircraftInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, err := r.FindByFlightID(ctx, flightID)
	if err != nil {
		return domain.AircraftInstance{}, err
	}

	existing, err := r.store.Get(ctx, aircraftKey(aircraftID))
	if err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to check aircraft id %s: %w", aircraftID, err)
	}
	if existing != nil && *existing != flightID {
		return domain.AircraftInstance{}, fmt.Errorf("aircraft id %s already assigned to flight %s: %w", aircraftID, *existing, ErrConflict)
	}

	instance.ID = aircraftID
	data, err := marshalInstance(instance)
	if err != nil {
		return domain.AircraftInstance{}, err
	}

	if err := r.store.Set(ctx, flightKey(flightID), data); err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to store aircraft for flight %s: %w", flightID, err)
	}
	if err := r.store.Set(ctx, aircraftKey(aircraftID), flightID); err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to index aircraft id %s: %w", aircraftID, err)
	}
	return instance, nil
}

// FindByID resolves the aircraft id through the secondary index, then loads
// the authoritative flight record.
func (r *aircraftRepositoryImpl) FindByID(ctx context.Context, aircraftID string) (domain.AircraftInstance, error) {
	flightID, err := r.store.Get(ctx, aircraftKey(aircraftID))
	if err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to resolve aircraft id %s: %w", aircraftID, err)
	}
	if flightID == nil {
		return domain.AircraftInstance{}, fmt.Errorf("no mapping for aircraft id %s: %w", aircraftID, ErrNotFound)
	}

	data, err := r.store.Get(ctx, flightKey(*flightID))
	if err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to load aircraft for flight %s: %w", *flightID, err)
	}
	if data == nil {
		// Stale index: the mapping survived but the record did not
		return domain.AircraftInstance{}, fmt.Errorf("mapping for aircraft id %s found but flight %s record missing: %w", aircraftID, *flightID, ErrNotFound)
	}
	return unmarshalInstance(*data)
}

// Save overwrites the flight record for an already-identified instance.
func (r *aircraftRepositoryImpl) Save(ctx context.Context, instance domain.AircraftInstance) (domain.AircraftInstance, error) {
	if instance.ID == "" {
		return domain.AircraftInstance{}, fmt.Errorf("aircraft id is required: %w", ErrInvalidEntity)
	}

	flightID, err := r.store.Get(ctx, aircraftKey(instance.ID))
	if err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to resolve aircraft id %s: %w", instance.ID, err)
	}
	if flightID == nil {
		return domain.AircraftInstance{}, fmt.Errorf("no mapping for aircraft id %s: %w", instance.ID, ErrNotFound)
	}

	existing, err := r.store.Get(ctx, flightKey(*flightID))
	if err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to load aircraft for flight %s: %w", *flightID, err)
	}
	if existing == nil {
		return domain.AircraftInstance{}, fmt.Errorf("flight %s record missing: %w", *flightID, ErrNotFound)
	}

	data, err := marshalInstance(instance)
	if err != nil {
		return domain.AircraftInstance{}, err
	}
	if err := r.store.Set(ctx, flightKey(*flightID), data); err != nil {
		return domain.AircraftInstance{}, fmt.Errorf("failed to store aircraft for flight %s: %w", *flightID, err)
	}
	return instance, nil
}

// DeleteByID removes the record, the index entry, and the inventory
// membership. True when at least one of the two key deletions removed
// something.
func (r *aircraftRepositoryImpl) DeleteByID(ctx context.Context, aircraftID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flightID, err := r.store.Get(ctx, aircraftKey(aircraftID))
	if err != nil {
		return false, fmt.Errorf("failed to resolve aircraft id %s: %w", aircraftID, err)
	}
	if flightID == nil {
		return false, nil
	}

	recordDeleted, err := r.store.Delete(ctx, flightKey(*flightID))
	if err != nil {
		return false, fmt.Errorf("failed to delete aircraft for flight %s: %w", *flightID, err)
	}
	mappingDeleted, err := r.store.Delete(ctx, aircraftKey(aircraftID))
	if err != nil {
		return recordDeleted, fmt.Errorf("failed to delete mapping for aircraft id %s: %w", aircraftID, err)
	}
	if _, err := r.store.RemoveFromSet(ctx, allFlightsSet, *flightID); err != nil {
		return recordDeleted || mappingDeleted, fmt.Errorf("failed to untrack flight %s: %w", *flightID, err)
	}
	return recordDeleted || mappingDeleted, nil
}

// ListFlightIDs returns all tracked flight identifiers.
func (r *aircraftRepositoryImpl) ListFlightIDs(ctx context.Context) ([]string, error) {
	members, err := r.store.SetMembers(ctx, allFlightsSet)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	return members, nil
}
