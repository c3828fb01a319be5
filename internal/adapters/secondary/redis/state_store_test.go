package redis

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lorrc/caller-panel/internal/core/domain"
)

// testStore is shared by every test in this package.
var testStore *StateStore

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	// 1. Start a Redis container
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Printf("could not start redis container: %v", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("could not terminate redis container: %v", err)
		}
	}()

	// 2. Connect
	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		log.Printf("could not get redis endpoint: %v", err)
		return 1
	}
	testStore, err = Open(ctx, Config{Addr: addr, KeyPrefix: "test", TTL: time.Minute},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		log.Printf("could not open state store: %v", err)
		return 1
	}
	defer testStore.Close()

	return m.Run()
}

func newSessionID() string {
	return "agent-" + uuid.NewString()
}

func TestOpen_RequiresAddr(t *testing.T) {
	_, err := Open(context.Background(), Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestStateStore_CallData(t *testing.T) {
	ctx := context.Background()
	session := newSessionID()

	_, ok, err := testStore.CallData(ctx, session)
	require.NoError(t, err)
	assert.False(t, ok)

	caller := domain.CallerContext{CallerNumber: "+15550100", CallerName: "Ann"}
	require.NoError(t, testStore.SetCallData(ctx, session, caller))

	got, ok, err := testStore.CallData(ctx, session)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, caller, got)

	ttl, err := testStore.rdb.TTL(ctx, testStore.key(session, fieldCall)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestStateStore_ClearCallData(t *testing.T) {
	ctx := context.Background()
	session := newSessionID()

	require.NoError(t, testStore.SetCallData(ctx, session, domain.CallerContext{CallerNumber: "+15550100"}))
	require.NoError(t, testStore.SaveFetchOutcome(ctx, session, domain.LoadedState(nil)))
	require.NoError(t, testStore.SetContact(ctx, session, domain.Contact{ID: "42"}))

	require.NoError(t, testStore.ClearCallData(ctx, session))

	_, ok, err := testStore.CallData(ctx, session)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = testStore.FetchOutcome(ctx, session)
	require.NoError(t, err)
	assert.False(t, ok)

	contact, err := testStore.Contact(ctx, session)
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "42", contact.ID)
}

func TestStateStore_FetchOutcome(t *testing.T) {
	ctx := context.Background()
	session := newSessionID()

	loaded := domain.LoadedState([]domain.Ticket{
		{ID: 2, Subject: "Router down", Status: domain.StatusOpen, Priority: domain.PriorityHigh},
	})
	require.NoError(t, testStore.SaveFetchOutcome(ctx, session, loaded))

	got, ok, err := testStore.FetchOutcome(ctx, session)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, loaded, got)

	require.NoError(t, testStore.SaveFetchOutcome(ctx, session, domain.FailedState("zendesk returned 403")))
	got, _, err = testStore.FetchOutcome(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, got.Phase)
	assert.Equal(t, "zendesk returned 403", got.Message)
}

func TestStateStore_DeleteSession(t *testing.T) {
	ctx := context.Background()
	session := newSessionID()

	require.NoError(t, testStore.SetCallData(ctx, session, domain.CallerContext{CallerNumber: "1"}))
	require.NoError(t, testStore.SetContact(ctx, session, domain.Contact{ID: "7"}))

	require.NoError(t, testStore.DeleteSession(ctx, session))

	_, ok, _ := testStore.CallData(ctx, session)
	assert.False(t, ok)
	contact, err := testStore.Contact(ctx, session)
	require.NoError(t, err)
	assert.Nil(t, contact)
	assert.NoError(t, testStore.Ping(ctx))
}
