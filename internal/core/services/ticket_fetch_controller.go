package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

const (
	fetchFailedPrefix    = "Failed to load tickets: "
	fetchFailedDefault   = "Failed to fetch tickets"
	fetchFailedNoMessage = "Unknown error"
)

// FetchStateListener is told about every state the controller publishes.
type FetchStateListener func(state domain.TicketFetchState)

// TicketFetchController resolves the tickets of the current caller and
// tracks the lookup as an Idle/Loading/Loaded/Failed state machine.
//
// Every lookup start bumps a generation counter. A lookup result is applied
// only while its generation and caller number are still current, so a slow
// response for a previous caller never overwrites the state of a newer one.
type TicketFetchController struct {
	client   ports.HelpdeskClient
	onChange FetchStateListener
	logger   *slog.Logger

	mu           sync.Mutex
	state        domain.TicketFetchState
	callerNumber string
	generation   uint64

	// notifyMu keeps listener calls in publication order.
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// NewTicketFetchController creates a controller in the Idle state.
// client may be nil when no helpdesk is configured.
func NewTicketFetchController(client ports.HelpdeskClient, onChange FetchStateListener, logger *slog.Logger) *TicketFetchController {
	if onChange == nil {
		onChange = func(domain.TicketFetchState) {}
	}
	return &TicketFetchController{
		client:   client,
		onChange: onChange,
		logger:   logger.With("component", "ticket_fetch_controller"),
		state:    domain.IdleState(),
	}
}

// State returns the current fetch state.
func (c *TicketFetchController) State() domain.TicketFetchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CallerNumber returns the number the current state belongs to.
func (c *TicketFetchController) CallerNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callerNumber
}

// FetchForCaller runs the lookup for callerNumber and returns the state it
// settled in.
func (c *TicketFetchController) FetchForCaller(ctx context.Context, callerNumber string) domain.TicketFetchState {
	gen, state, ok := c.begin(callerNumber)
	if !ok {
		return state
	}
	return c.lookup(ctx, gen, callerNumber)
}

// Watch enters Loading for callerNumber and resolves the lookup in the
// background. The returned state is the synchronous transition.
func (c *TicketFetchController) Watch(ctx context.Context, callerNumber string) domain.TicketFetchState {
	gen, state, ok := c.begin(callerNumber)
	if !ok {
		return state
	}

	// The lookup outlives the request that triggered it.
	lookupCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.lookup(lookupCtx, gen, callerNumber)
	}()
	return state
}

// Refresh repeats the lookup for the current caller.
func (c *TicketFetchController) Refresh(ctx context.Context) domain.TicketFetchState {
	return c.Watch(ctx, c.CallerNumber())
}

// Reset returns the controller to Idle, discarding any lookup in flight.
func (c *TicketFetchController) Reset() {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.callerNumber = ""
	c.state = domain.IdleState()
	c.mu.Unlock()

	c.publish(gen, domain.IdleState())
}

// PrependTicket places a newly created ticket first in the Loaded list
// without refetching. It reports false when the state is not Loaded.
func (c *TicketFetchController) PrependTicket(ticket domain.Ticket) bool {
	c.mu.Lock()
	if c.state.Phase != domain.PhaseLoaded {
		c.mu.Unlock()
		return false
	}
	c.state = c.state.WithPrepended(ticket)
	gen, state := c.generation, c.state
	c.mu.Unlock()

	c.publish(gen, state)
	return true
}

// Shutdown waits for background lookups to finish.
func (c *TicketFetchController) Shutdown() {
	c.wg.Wait()
}

// begin performs the synchronous transition for a new lookup and reports
// whether a lookup should run.
func (c *TicketFetchController) begin(callerNumber string) (uint64, domain.TicketFetchState, bool) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.callerNumber = callerNumber

	ok := c.client != nil && callerNumber != ""
	if ok {
		c.state = domain.LoadingState()
	} else {
		c.state = domain.IdleState()
	}
	state := c.state
	c.mu.Unlock()

	c.publish(gen, state)
	return gen, state, ok
}

func (c *TicketFetchController) lookup(ctx context.Context, gen uint64, callerNumber string) domain.TicketFetchState {
	result, err := c.client.FetchTicketsByPhone(ctx, callerNumber)
	next := outcomeState(result, err)

	c.mu.Lock()
	if gen != c.generation || callerNumber != c.callerNumber {
		current := c.state
		c.mu.Unlock()
		c.logger.Debug("discarding stale ticket lookup",
			"caller_number", callerNumber,
			"generation", gen,
		)
		return current
	}
	c.state = next
	c.mu.Unlock()

	if next.Phase == domain.PhaseFailed {
		c.logger.Warn("ticket lookup failed",
			"caller_number", callerNumber,
			"message", next.Message,
		)
	} else {
		c.logger.Debug("ticket lookup completed",
			"caller_number", callerNumber,
			"ticket_count", len(next.Tickets),
		)
	}

	c.publish(gen, next)
	return next
}

// publish hands state to the listener unless a newer lookup has started.
func (c *TicketFetchController) publish(gen uint64, state domain.TicketFetchState) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	current := gen == c.generation
	c.mu.Unlock()
	if !current {
		return
	}
	c.onChange(state)
}

// outcomeState maps a collaborator answer onto Loaded or Failed.
func outcomeState(result domain.TicketLookup, err error) domain.TicketFetchState {
	switch {
	case err != nil:
		reason := err.Error()
		if reason == "" {
			reason = fetchFailedNoMessage
		}
		return domain.FailedState(fetchFailedPrefix + reason)
	case !result.OK:
		reason := result.Error
		if reason == "" {
			reason = fetchFailedDefault
		}
		return domain.FailedState(fetchFailedPrefix + reason)
	case result.Error != "":
		return domain.FailedState(fetchFailedPrefix + result.Error)
	default:
		return domain.LoadedState(result.Tickets)
	}
}
