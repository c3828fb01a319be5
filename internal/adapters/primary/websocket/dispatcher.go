package websocket

import (
	"context"
	"log/slog"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// routeToAction is the host framework call the panel frontend performs.
const routeToAction = "routeTo"

// Dispatcher turns navigation and dial requests into events for the agent's
// panel. The frontend relays them to the helpdesk host and the telephony
// widget; nothing is acknowledged back.
type Dispatcher struct {
	hub             *Hub
	telephonyOrigin string
	logger          *slog.Logger
}

var (
	_ ports.Navigator  = (*Dispatcher)(nil)
	_ ports.CallDialer = (*Dispatcher)(nil)
)

// NewDispatcher creates a dispatcher that posts make-call messages to telephonyOrigin.
func NewDispatcher(hub *Hub, telephonyOrigin string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		hub:             hub,
		telephonyOrigin: telephonyOrigin,
		logger:          logger.With("component", "dispatcher"),
	}
}

// RouteTo asks the host helpdesk to open a ticket or user view.
func (d *Dispatcher) RouteTo(ctx context.Context, sessionID string, target domain.NavigationTarget, id string) {
	d.send(ctx, domain.Event{
		Type: domain.EventNavigate,
		Payload: domain.NavigatePayload{
			Action: routeToAction,
			Target: target,
			ID:     id,
		},
		SessionID: sessionID,
	})
}

// PlaceCall hands the number to the telephony widget.
func (d *Dispatcher) PlaceCall(ctx context.Context, sessionID string, number string) {
	d.send(ctx, domain.Event{
		Type:      domain.EventMakeCall,
		Payload:   domain.NewMakeCallPayload(d.telephonyOrigin, number),
		SessionID: sessionID,
	})
}

func (d *Dispatcher) send(ctx context.Context, event domain.Event) {
	if !d.hub.IsSessionConnected(event.SessionID) {
		d.logger.WarnContext(ctx, "no panel connected, request dropped",
			"event_type", event.Type,
			"session_id", event.SessionID,
		)
		return
	}
	_ = d.hub.Broadcast(event)
}
