package mocks

import (
	"context"
	"io"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

var (
	_ ports.HelpdeskClient   = (*MockHelpdeskClient)(nil)
	_ ports.StateStore       = (*MockStateStore)(nil)
	_ ports.CallLogImporter  = (*MockCallLogImporter)(nil)
	_ ports.EventBroadcaster = (*MockEventBroadcaster)(nil)
	_ ports.Navigator        = (*MockNavigator)(nil)
	_ ports.CallDialer       = (*MockCallDialer)(nil)
	_ ports.PanelService     = (*MockPanelService)(nil)
	_ ports.CallLogService   = (*MockCallLogService)(nil)
)

// MockHelpdeskClient is a mock implementation of ports.HelpdeskClient
type MockHelpdeskClient struct {
	mock.Mock
}

func NewMockHelpdeskClient() *MockHelpdeskClient {
	return &MockHelpdeskClient{}
}

func (m *MockHelpdeskClient) FetchTicketsByPhone(ctx context.Context, phone string) (domain.TicketLookup, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(domain.TicketLookup), args.Error(1)
}

func (m *MockHelpdeskClient) AddPrivateNote(ctx context.Context, ticketID int64, body string) error {
	args := m.Called(ctx, ticketID, body)
	return args.Error(0)
}

func (m *MockHelpdeskClient) CreateTicket(ctx context.Context, params domain.NewTicketParams) (domain.Ticket, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

// MockStateStore is a mock implementation of ports.StateStore
type MockStateStore struct {
	mock.Mock
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{}
}

func (m *MockStateStore) CallData(ctx context.Context, sessionID string) (domain.CallerContext, bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.CallerContext), args.Bool(1), args.Error(2)
}

func (m *MockStateStore) SetCallData(ctx context.Context, sessionID string, caller domain.CallerContext) error {
	args := m.Called(ctx, sessionID, caller)
	return args.Error(0)
}

func (m *MockStateStore) ClearCallData(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockStateStore) Contact(ctx context.Context, sessionID string) (*domain.Contact, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockStateStore) SetContact(ctx context.Context, sessionID string, contact domain.Contact) error {
	args := m.Called(ctx, sessionID, contact)
	return args.Error(0)
}

func (m *MockStateStore) SaveFetchOutcome(ctx context.Context, sessionID string, state domain.TicketFetchState) error {
	args := m.Called(ctx, sessionID, state)
	return args.Error(0)
}

func (m *MockStateStore) FetchOutcome(ctx context.Context, sessionID string) (domain.TicketFetchState, bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.TicketFetchState), args.Bool(1), args.Error(2)
}

func (m *MockStateStore) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockCallLogImporter is a mock implementation of ports.CallLogImporter
type MockCallLogImporter struct {
	mock.Mock
}

func NewMockCallLogImporter() *MockCallLogImporter {
	return &MockCallLogImporter{}
}

func (m *MockCallLogImporter) Import(ctx context.Context, r io.Reader) ([]domain.RawCallRecord, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawCallRecord), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockNavigator is a mock implementation of ports.Navigator
type MockNavigator struct {
	mock.Mock
}

func NewMockNavigator() *MockNavigator {
	return &MockNavigator{}
}

func (m *MockNavigator) RouteTo(ctx context.Context, sessionID string, target domain.NavigationTarget, id string) {
	m.Called(ctx, sessionID, target, id)
}

// MockCallDialer is a mock implementation of ports.CallDialer
type MockCallDialer struct {
	mock.Mock
}

func NewMockCallDialer() *MockCallDialer {
	return &MockCallDialer{}
}

func (m *MockCallDialer) PlaceCall(ctx context.Context, sessionID string, number string) {
	m.Called(ctx, sessionID, number)
}

// MockPanelService is a mock implementation of ports.PanelService
type MockPanelService struct {
	mock.Mock
}

func NewMockPanelService() *MockPanelService {
	return &MockPanelService{}
}

func (m *MockPanelService) CallerView(ctx context.Context, sessionID string) (domain.CallerPanelView, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.CallerPanelView), args.Error(1)
}

func (m *MockPanelService) SetCaller(ctx context.Context, sessionID string, caller domain.CallerContext) (domain.CallerPanelView, error) {
	args := m.Called(ctx, sessionID, caller)
	return args.Get(0).(domain.CallerPanelView), args.Error(1)
}

func (m *MockPanelService) EndCall(ctx context.Context, sessionID string) (domain.CallerPanelView, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.CallerPanelView), args.Error(1)
}

func (m *MockPanelService) RefreshTickets(ctx context.Context, sessionID string) (domain.CallerPanelView, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.CallerPanelView), args.Error(1)
}

func (m *MockPanelService) CreateTicket(ctx context.Context, sessionID string, params domain.NewTicketParams) (domain.Ticket, error) {
	args := m.Called(ctx, sessionID, params)
	return args.Get(0).(domain.Ticket), args.Error(1)
}

func (m *MockPanelService) OpenTicket(ctx context.Context, sessionID string, ticketID int64) error {
	args := m.Called(ctx, sessionID, ticketID)
	return args.Error(0)
}

func (m *MockPanelService) SetContact(ctx context.Context, sessionID string, contact domain.Contact) error {
	args := m.Called(ctx, sessionID, contact)
	return args.Error(0)
}

func (m *MockPanelService) OpenContact(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockPanelService) OpenDraft(ctx context.Context, sessionID string, ticketID int64) (domain.NoteDraft, error) {
	args := m.Called(ctx, sessionID, ticketID)
	return args.Get(0).(domain.NoteDraft), args.Error(1)
}

func (m *MockPanelService) UpdateDraft(ctx context.Context, sessionID string, text string) (domain.NoteDraft, error) {
	args := m.Called(ctx, sessionID, text)
	return args.Get(0).(domain.NoteDraft), args.Error(1)
}

func (m *MockPanelService) CancelDraft(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockPanelService) SubmitNote(ctx context.Context, sessionID string, ticketID int64, text string) error {
	args := m.Called(ctx, sessionID, ticketID, text)
	return args.Error(0)
}

// MockCallLogService is a mock implementation of ports.CallLogService
type MockCallLogService struct {
	mock.Mock
}

func NewMockCallLogService() *MockCallLogService {
	return &MockCallLogService{}
}

func (m *MockCallLogService) SetCalls(ctx context.Context, sessionID string, calls []domain.RawCallRecord) (int, error) {
	args := m.Called(ctx, sessionID, calls)
	return args.Int(0), args.Error(1)
}

func (m *MockCallLogService) ImportCalls(ctx context.Context, sessionID string, r io.Reader) (int, error) {
	args := m.Called(ctx, sessionID, r)
	return args.Int(0), args.Error(1)
}

func (m *MockCallLogService) RecentCalls(ctx context.Context, sessionID string, query string) (domain.RecentCallsView, error) {
	args := m.Called(ctx, sessionID, query)
	return args.Get(0).(domain.RecentCallsView), args.Error(1)
}

func (m *MockCallLogService) Dial(ctx context.Context, sessionID string, callID string) error {
	args := m.Called(ctx, sessionID, callID)
	return args.Error(0)
}
