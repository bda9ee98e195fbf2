package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterVehicleResponse is the registration reply from the fleet services:
// the assigned vehicle id, the garage/airport node, and any available
// service spots (opaque here).
type RegisterVehicleResponse struct {
	VehicleID     string          `json:"vehicleId"`
	GarrageNodeID string          `json:"garrageNodeId"`
	ServiceSpots  json.RawMessage `json:"serviceSpots,omitempty"`
}

// GroundControlGateway talks to the ground-control service.
type GroundControlGateway struct {
	client *Client
	log    zerolog.Logger
}

// NewGroundControlGateway creates the adapter from client configuration.
func NewGroundControlGateway(cfg Config, logger zerolog.Logger) *GroundControlGateway {
	log := logger.With().Str("gateway", "ground_control").Logger()
	return &GroundControlGateway{
		client: NewClient(cfg, log),
		log:    log,
	}
}

// RegisterVehicle registers this aircraft with ground control. The request
// carries an empty JSON body per the fleet API contract.
func (g *GroundControlGateway) RegisterVehicle(ctx context.Context) (*RegisterVehicleResponse, error) {
	g.log.Info().Msg("registering aircraft with ground control")

	resp, err := g.client.Post(ctx, "register-vehicle/airplane", map[string]any{}, nil)
	if err != nil {
		return nil, fmt.Errorf("ground control registration failed: %w", err)
	}

	var result RegisterVehicleResponse
	if err := resp.Decode(&result); err != nil {
		return nil, fmt.Errorf("ground control registration: %w", err)
	}

	g.log.Info().Str("vehicle_id", result.VehicleID).Str("node_id", result.GarrageNodeID).
		Msg("aircraft registered with ground control")
	return &result, nil
}
