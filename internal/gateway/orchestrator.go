package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// OrchestratorGateway talks to the fleet orchestrator service.
type OrchestratorGateway struct {
	client *Client
	log    zerolog.Logger
}

// NewOrchestratorGateway creates the adapter from client configuration.
func NewOrchestratorGateway(cfg Config, logger zerolog.Logger) *OrchestratorGateway {
	log := logger.With().Str("gateway", "orchestrator").Logger()
	return &OrchestratorGateway{
		client: NewClient(cfg, log),
		log:    log,
	}
}

// RegisterVehicle registers this aircraft with the orchestrator. Same
// contract as the ground-control registration.
func (g *OrchestratorGateway) RegisterVehicle(ctx context.Context) (*RegisterVehicleResponse, error) {
	g.log.Info().Msg("registering aircraft with orchestrator")

	resp, err := g.client.Post(ctx, "register-vehicle/airplane", map[string]any{}, nil)
	if err != nil {
		return nil, fmt.Errorf("orchestrator registration failed: %w", err)
	}

	var result RegisterVehicleResponse
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("orchestrator registration: %w", err)
	}
	return &result, nil
}

// ReportLanding tells the orchestrator an aircraft has landed at a node.
// The acknowledgement body is opaque and returned as-is.
func (g *OrchestratorGateway) ReportLanding(ctx context.Context, aircraftID, landingPoint string) (json.RawMessage, error) {
	g.log.Info().Str("aircraft_id", aircraftID).Str("landing_point", landingPoint).
		Msg("reporting landing to orchestrator")

	body := map[string]string{"landing_point": landingPoint}
	resp, err := g.client.Post(ctx, aircraftID+"/landing", body, nil)
	if err != nil {
		return nil, fmt.Errorf("landing report for aircraft %s failed: %w", aircraftID, err)
	}
	return json.RawMessage(resp.Body), nil
}
