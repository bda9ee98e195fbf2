package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reaport/aircraft/internal/config"
	"github.com/reaport/aircraft/internal/domain"
	"github.com/reaport/aircraft/internal/gateway"
	"github.com/reaport/aircraft/internal/kvstore"
	"github.com/reaport/aircraft/internal/repository"
	"github.com/reaport/aircraft/internal/testutil"
)

const testCatalog = `{
	"aircraft": {
		"A320": {
			"baggageCapacityKg": 5000,
			"passengerCapacity": 180,
			"waterCapacity": 300,
			"fuelCapacity": 20000,
			"seats": [{"seatNumber": "1A", "seatClass": "business"}]
		}
	}
}`

type fakeGroundControl struct {
	response *gateway.RegisterVehicleResponse
	err      error
	calls    int
}

func (f *fakeGroundControl) RegisterVehicle(ctx context.Context) (*gateway.RegisterVehicleResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeOrchestrator struct {
	err          error
	landingCalls []string
}

func (f *fakeOrchestrator) RegisterVehicle(ctx context.Context) (*gateway.RegisterVehicleResponse, error) {
	return &gateway.RegisterVehicleResponse{VehicleID: "AC-orch", GarrageNodeID: "node-orch"}, nil
}

func (f *fakeOrchestrator) ReportLanding(ctx context.Context, aircraftID, landingPoint string) (json.RawMessage, error) {
	f.landingCalls = append(f.landingCalls, aircraftID+"@"+landingPoint)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"status":"acknowledged"}`), nil
}

func newTestService(t *testing.T, name string, gc *fakeGroundControl, orch *fakeOrchestrator) (*AircraftService, repository.AircraftRepository) {
	t.Helper()

	store, err := kvstore.New(testutil.NewTestDSN(name))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	models, err := config.ParseAircraftConfig([]byte(testCatalog))
	require.NoError(t, err)

	repo := repository.NewAircraftRepository(store, models)
	return New(repo, gc, orch, zerolog.Nop()), repo
}

func landedAircraft(t *testing.T, svc *AircraftService, flightID string) string {
	t.Helper()
	_, err := svc.Generate(context.Background(), flightID, "A320")
	require.NoError(t, err)
	id, err := svc.Landing(context.Background(), flightID)
	require.NoError(t, err)
	return id
}

func defaultFakes() (*fakeGroundControl, *fakeOrchestrator) {
	return &fakeGroundControl{
		response: &gateway.RegisterVehicleResponse{VehicleID: "AC1", GarrageNodeID: "node-7"},
	}, &fakeOrchestrator{}
}

func TestAircraftService_Landing(t *testing.T) {
	gc, orch := defaultFakes()
	svc, repo := newTestService(t, "TestAircraftService_Landing", gc, orch)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "FL100", "A320")
	require.NoError(t, err)

	aircraftID, err := svc.Landing(ctx, "FL100")
	require.NoError(t, err)
	assert.Equal(t, "AC1", aircraftID)
	assert.Equal(t, 1, gc.calls)
	assert.Equal(t, []string{"AC1@node-7"}, orch.landingCalls)

	// Instance is identified and grounded
	instance, err := repo.FindByID(ctx, "AC1")
	require.NoError(t, err)
	assert.Equal(t, "FL100", instance.FlightID)
	assert.Equal(t, "node-7", instance.NodeID)
}

func TestAircraftService_Landing_UnknownFlight(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_Landing_UnknownFlight", gc, orch)

	_, err := svc.Landing(context.Background(), "FL999")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	// Ground control is never called for an unknown flight
	assert.Zero(t, gc.calls)
}

func TestAircraftService_Landing_IncompleteRegistration(t *testing.T) {
	gc := &fakeGroundControl{
		response: &gateway.RegisterVehicleResponse{VehicleID: "AC1"}, // no node id
	}
	orch := &fakeOrchestrator{}
	svc, _ := newTestService(t, "TestAircraftService_Landing_IncompleteRegistration", gc, orch)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "FL100", "A320")
	require.NoError(t, err)

	_, err = svc.Landing(ctx, "FL100")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteUpstream)
	assert.Empty(t, orch.landingCalls)
}

func TestAircraftService_Landing_GroundControlFailure(t *testing.T) {
	gc := &fakeGroundControl{err: errors.New("connection refused")}
	orch := &fakeOrchestrator{}
	svc, _ := newTestService(t, "TestAircraftService_Landing_GroundControlFailure", gc, orch)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "FL100", "A320")
	require.NoError(t, err)

	_, err = svc.Landing(ctx, "FL100")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, orch.landingCalls)
}

func TestAircraftService_Landing_ConflictingVehicleID(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_Landing_ConflictingVehicleID", gc, orch)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "FL100", "A320")
	require.NoError(t, err)
	_, err = svc.Landing(ctx, "FL100")
	require.NoError(t, err)

	// Ground control hands out the same vehicle id for a different flight
	_, err = svc.Generate(ctx, "FL200", "A320")
	require.NoError(t, err)
	_, err = svc.Landing(ctx, "FL200")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestAircraftService_Landing_ReportFailureKeepsIdentity(t *testing.T) {
	gc, _ := defaultFakes()
	orch := &fakeOrchestrator{err: errors.New("orchestrator down")}
	svc, repo := newTestService(t, "TestAircraftService_Landing_ReportFailureKeepsIdentity", gc, orch)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "FL100", "A320")
	require.NoError(t, err)

	_, err = svc.Landing(ctx, "FL100")
	require.Error(t, err)

	// No rollback: the instance stays identified even though the report failed
	instance, err := repo.FindByID(ctx, "AC1")
	require.NoError(t, err)
	assert.Equal(t, "node-7", instance.NodeID)
}

func TestAircraftService_UpdatePassengers(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_UpdatePassengers", gc, orch)
	ctx := context.Background()

	id := landedAircraft(t, svc, "FL100")

	updated, err := svc.UpdatePassengers(ctx, id, 150)
	require.NoError(t, err)
	assert.Equal(t, 150, updated.ActualPassengers)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 150, got.ActualPassengers)
}

func TestAircraftService_UpdatePassengers_ExceedsCapacity(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_UpdatePassengers_ExceedsCapacity", gc, orch)
	ctx := context.Background()

	id := landedAircraft(t, svc, "FL100")
	_, err := svc.UpdatePassengers(ctx, id, 150)
	require.NoError(t, err)

	// A320 capacity is 180; the rejected update must not touch the record
	_, err = svc.UpdatePassengers(ctx, id, 200)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 150, got.ActualPassengers)
}

func TestAircraftService_UpdateResources(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_UpdateResources", gc, orch)
	ctx := context.Background()

	id := landedAircraft(t, svc, "FL100")

	updated, err := svc.UpdateBaggage(ctx, id, 2500)
	require.NoError(t, err)
	assert.Equal(t, 2500, updated.ActualBaggageKg)

	updated, err = svc.UpdateWater(ctx, id, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, updated.ActualWaterKg)

	updated, err = svc.UpdateFuel(ctx, id, 15000)
	require.NoError(t, err)
	assert.Equal(t, 15000, updated.ActualFuelKg)

	updated, err = svc.UpdateNodeID(ctx, id, "node-9")
	require.NoError(t, err)
	assert.Equal(t, "node-9", updated.NodeID)
}

func TestAircraftService_Update_UnknownAircraft(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_Update_UnknownAircraft", gc, orch)

	_, err := svc.UpdatePassengers(context.Background(), "AC404", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAircraftService_Takeoff(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_Takeoff", gc, orch)
	ctx := context.Background()

	id := landedAircraft(t, svc, "FL100")

	require.NoError(t, svc.Takeoff(ctx, id))

	_, err := svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Takeoff of a retired or unknown aircraft is a distinct not-found
	err = svc.Takeoff(ctx, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAircraftService_ListFlights(t *testing.T) {
	gc, orch := defaultFakes()
	svc, _ := newTestService(t, "TestAircraftService_ListFlights", gc, orch)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "FL100", "A320")
	require.NoError(t, err)
	_, err = svc.Generate(ctx, "FL200", "")
	require.NoError(t, err)

	flights, err := svc.ListFlights(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"FL100", "FL200"}, flights)
}
