package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_CallData(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	_, ok, err := store.CallData(ctx, "agent-1")
	require.NoError(t, err)
	assert.False(t, ok)

	caller := domain.CallerContext{CallerNumber: "+15550100", CallerName: "Ann"}
	require.NoError(t, store.SetCallData(ctx, "agent-1", caller))

	got, ok, err := store.CallData(ctx, "agent-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, caller, got)

	_, ok, _ = store.CallData(ctx, "agent-2")
	assert.False(t, ok, "sessions are isolated")
}

func TestStateStore_ClearCallDataDropsOutcome(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	require.NoError(t, store.SetCallData(ctx, "agent-1", domain.CallerContext{CallerNumber: "+15550100"}))
	require.NoError(t, store.SaveFetchOutcome(ctx, "agent-1", domain.FailedState("boom")))
	require.NoError(t, store.SetContact(ctx, "agent-1", domain.Contact{ID: "42"}))

	require.NoError(t, store.ClearCallData(ctx, "agent-1"))

	_, ok, _ := store.CallData(ctx, "agent-1")
	assert.False(t, ok)
	_, ok, _ = store.FetchOutcome(ctx, "agent-1")
	assert.False(t, ok)

	contact, err := store.Contact(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "42", contact.ID)
}

func TestStateStore_Contact(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	contact, err := store.Contact(ctx, "agent-1")
	require.NoError(t, err)
	assert.Nil(t, contact)

	require.NoError(t, store.SetContact(ctx, "agent-1", domain.Contact{ID: "7", Name: "Ann", Email: "ann@acme.test"}))

	contact, err = store.Contact(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "ann@acme.test", contact.Email)

	// Returned values are copies
	contact.Email = "changed"
	again, _ := store.Contact(ctx, "agent-1")
	assert.Equal(t, "ann@acme.test", again.Email)
}

func TestStateStore_FetchOutcomeIsCopied(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	tickets := []domain.Ticket{{ID: 1, Subject: "Router down"}}
	require.NoError(t, store.SaveFetchOutcome(ctx, "agent-1", domain.TicketFetchState{Phase: domain.PhaseLoaded, Tickets: tickets}))
	tickets[0].Subject = "mutated"

	got, ok, err := store.FetchOutcome(ctx, "agent-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseLoaded, got.Phase)
	assert.Equal(t, "Router down", got.Tickets[0].Subject)
}

func TestStateStore_DeleteSession(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	require.NoError(t, store.SetCallData(ctx, "agent-1", domain.CallerContext{CallerNumber: "1"}))
	require.NoError(t, store.SetCallData(ctx, "agent-2", domain.CallerContext{CallerNumber: "2"}))
	assert.Equal(t, 2, store.SessionCount())

	require.NoError(t, store.DeleteSession(ctx, "agent-1"))
	require.NoError(t, store.DeleteSession(ctx, "unknown"))

	assert.Equal(t, 1, store.SessionCount())
	_, ok, _ := store.CallData(ctx, "agent-1")
	assert.False(t, ok)
	assert.NoError(t, store.Ping(ctx))
}

func TestStateStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SetCallData(ctx, "agent-1", domain.CallerContext{CallerNumber: "+15550100"})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = store.CallData(ctx, "agent-1")
		}()
	}
	wg.Wait()

	_, ok, _ := store.CallData(ctx, "agent-1")
	assert.True(t, ok)
}
