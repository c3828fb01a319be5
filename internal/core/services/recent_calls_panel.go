package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
)

// RecentCallsPanel holds the normalized call log of a session. The
// collection is recomputed whenever the raw records are replaced.
type RecentCallsPanel struct {
	sessionID string
	deps      Collaborators
	logger    *slog.Logger

	mu    sync.RWMutex
	calls []domain.NormalizedCall
}

// NewRecentCallsPanel creates an empty recent calls panel.
func NewRecentCallsPanel(sessionID string, deps Collaborators, logger *slog.Logger) *RecentCallsPanel {
	return &RecentCallsPanel{
		sessionID: sessionID,
		deps:      deps,
		logger:    logger.With("component", "recent_calls_panel", "session_id", sessionID),
	}
}

// SetCalls replaces the call log and returns the number of records.
func (p *RecentCallsPanel) SetCalls(raws []domain.RawCallRecord) int {
	calls := domain.NormalizeAll(raws)

	p.mu.Lock()
	p.calls = calls
	p.mu.Unlock()

	err := p.deps.Broadcaster.Broadcast(domain.Event{
		Type:      domain.EventCallsChanged,
		Payload:   domain.CallsChangedPayload{Count: len(calls)},
		SessionID: p.sessionID,
	})
	if err != nil {
		p.logger.Warn("failed to broadcast event", "event_type", domain.EventCallsChanged, "error", err)
	}
	return len(calls)
}

// Import reads a call-log export and replaces the call log with it.
func (p *RecentCallsPanel) Import(ctx context.Context, r io.Reader) (int, error) {
	raws, err := p.deps.Importer.Import(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrCallLogUnreadable, err)
	}
	n := p.SetCalls(raws)
	p.logger.Info("call log imported", "records", n)
	return n, nil
}

// Calls returns the normalized call log.
func (p *RecentCallsPanel) Calls() []domain.NormalizedCall {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.NormalizedCall(nil), p.calls...)
}

// View filters the call log by query and renders it.
func (p *RecentCallsPanel) View(query string) domain.RecentCallsView {
	return domain.BuildRecentCallsView(query, domain.FilterCalls(p.Calls(), query))
}

// Dial hands the number of callID to the telephony widget.
func (p *RecentCallsPanel) Dial(ctx context.Context, callID string) error {
	call, ok := p.find(callID)
	if !ok {
		return apperrors.ErrCallNotFound
	}
	if call.Number == "" {
		return apperrors.ErrCallHasNoNumber
	}
	p.deps.Dialer.PlaceCall(ctx, p.sessionID, call.Number)
	return nil
}

func (p *RecentCallsPanel) find(callID string) (domain.NormalizedCall, bool) {
	if callID == "" {
		return domain.NormalizedCall{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.calls {
		if c.ID == callID {
			return c, true
		}
	}
	return domain.NormalizedCall{}, false
}
