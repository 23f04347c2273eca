package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/queme-app/queme-client/internal/domain"
	"github.com/queme-app/queme-client/internal/events"
	"github.com/queme-app/queme-client/internal/gateway"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockGateway) CreateBooking(ctx context.Context, req gateway.CreateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockGateway) CancelBooking(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Push(message string, kind domain.NotificationKind) domain.Notification {
	args := m.Called(message, kind)
	return args.Get(0).(domain.Notification)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, event events.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func testBookings() []domain.Booking {
	return []domain.Booking{
		{ID: 1, ProviderID: 10, ProviderName: "City Bank", ServiceType: "Account Opening", Status: domain.BookingStatusUpcoming, Token: "TK000001", CreatedAt: time.Now()},
		{ID: 2, ProviderID: 11, ProviderName: "HealthCare Plus", ServiceType: "Consultation", Status: domain.BookingStatusCompleted, Token: "TK000002", CreatedAt: time.Now()},
	}
}

func TestStore_LoadReplacesCacheWholesale(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))
	assert.Len(t, s.Filter(FilterAll), 2)

	// Второй вызов полностью заменяет кэш, а не дополняет его.
	gw.On("ListBookings", ctx).Return([]domain.Booking{{ID: 3, Status: domain.BookingStatusActive}}, nil).Once()
	assert.NoError(t, s.Load(ctx))

	all := s.Filter(FilterAll)
	assert.Len(t, all, 1)
	assert.Equal(t, int64(3), all[0].ID)
}

func TestStore_LoadFailureKeepsCache(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	gw.On("ListBookings", ctx).Return(nil, errors.New("connection refused")).Once()
	assert.Error(t, s.Load(ctx))
	assert.Len(t, s.Filter(FilterAll), 2)
}

func TestStore_FilterIsPureAndStable(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	all := s.Filter(FilterAll)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID) // insertion order preserved
	assert.Equal(t, int64(2), all[1].ID)

	upcoming := s.Filter("upcoming")
	assert.Len(t, upcoming, 1)
	assert.Equal(t, int64(1), upcoming[0].ID)

	completed := s.Filter("completed")
	assert.Len(t, completed, 1)
	assert.Equal(t, int64(2), completed[0].ID)
}

func TestStore_CreateValidationErrors(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()

	testCases := []struct {
		name           string
		req            gateway.CreateBookingRequest
		expectedFields []string
	}{
		{
			name:           "Missing provider",
			req:            gateway.CreateBookingRequest{ServiceType: "Consultation"},
			expectedFields: []string{"provider_id"},
		},
		{
			name:           "Missing service type",
			req:            gateway.CreateBookingRequest{ProviderID: 10},
			expectedFields: []string{"service_type"},
		},
		{
			name:           "Missing everything",
			req:            gateway.CreateBookingRequest{},
			expectedFields: []string{"provider_id", "service_type"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			booking, err := s.Create(ctx, tc.req)
			assert.Nil(t, booking)

			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.expectedFields, ve.Fields)
		})
	}
	gw.AssertNotCalled(t, "CreateBooking")
	assert.Empty(t, s.Filter(FilterAll))
}

func TestStore_CreateServerValidationFailure(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()
	req := gateway.CreateBookingRequest{ProviderID: 10, ServiceType: "Unknown"}
	apiErr := &gateway.APIError{Status: 400, Message: "invalid booking", Fields: map[string]string{"service_type": "not offered"}}
	gw.On("CreateBooking", ctx, req).Return(nil, apiErr).Once()

	booking, err := s.Create(ctx, req)

	assert.Nil(t, booking)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"service_type"}, ve.Fields)
	assert.Empty(t, s.Filter(FilterAll))
}

func TestStore_CreateSuccessAppendsAndPublishes(t *testing.T) {
	gw := &MockGateway{}
	notifier := &MockNotifier{}
	producer := &MockProducer{}
	s := NewStore(gw, zap.NewNop(), WithNotifier(notifier), WithProducer(producer))

	ctx := context.Background()
	req := gateway.CreateBookingRequest{ProviderID: 10, ServiceType: "Account Opening"}
	created := &domain.Booking{ID: 42, ProviderID: 10, ServiceType: "Account Opening", Status: domain.BookingStatusUpcoming, Token: "TK000042"}
	gw.On("CreateBooking", ctx, req).Return(created, nil).Once()
	notifier.On("Push", mock.Anything, domain.NotificationSuccess).Return(domain.Notification{}).Once()
	producer.On("Publish", ctx, mock.MatchedBy(func(e events.BookingEvent) bool {
		return e.Type == events.TypeBookingCreated && e.BookingID == 42
	})).Return(nil).Once()

	booking, err := s.Create(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), booking.ID)
	all := s.Filter(FilterAll)
	assert.Len(t, all, 1)
	assert.Equal(t, "TK000042", all[0].Token)
	notifier.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestStore_CreateNetworkFailureLeavesCacheUntouched(t *testing.T) {
	gw := &MockGateway{}
	notifier := &MockNotifier{}
	s := NewStore(gw, zap.NewNop(), WithNotifier(notifier))

	ctx := context.Background()
	req := gateway.CreateBookingRequest{ProviderID: 10, ServiceType: "Account Opening"}
	gw.On("CreateBooking", ctx, req).Return(nil, errors.New("connection refused")).Once()
	notifier.On("Push", mock.Anything, domain.NotificationError).Return(domain.Notification{}).Once()

	booking, err := s.Create(ctx, req)

	assert.Nil(t, booking)
	assert.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
	assert.Empty(t, s.Filter(FilterAll))
}

func TestStore_CancelConfirmedByServer(t *testing.T) {
	gw := &MockGateway{}
	notifier := &MockNotifier{}
	s := NewStore(gw, zap.NewNop(), WithNotifier(notifier))

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	gw.On("CancelBooking", ctx, int64(1)).Return(nil).Once()
	notifier.On("Push", "Booking cancelled.", domain.NotificationInfo).Return(domain.Notification{}).Once()

	assert.NoError(t, s.Cancel(ctx, 1))
	assert.Empty(t, s.Filter("upcoming"))

	cancelled := s.Filter("cancelled")
	assert.Len(t, cancelled, 1)
	assert.Equal(t, int64(1), cancelled[0].ID)
	notifier.AssertExpectations(t)
}

func TestStore_CancelFailureLeavesBookingUntouched(t *testing.T) {
	gw := &MockGateway{}
	notifier := &MockNotifier{}
	s := NewStore(gw, zap.NewNop(), WithNotifier(notifier))

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	gw.On("CancelBooking", ctx, int64(1)).Return(errors.New("connection refused")).Once()
	notifier.On("Push", mock.Anything, domain.NotificationError).Return(domain.Notification{}).Once()

	assert.Error(t, s.Cancel(ctx, 1))
	assert.Len(t, s.Filter("upcoming"), 1)
}

func TestStore_CancelIdempotent(t *testing.T) {
	gw := &MockGateway{}
	notifier := &MockNotifier{}
	s := NewStore(gw, zap.NewNop(), WithNotifier(notifier))

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	gw.On("CancelBooking", ctx, int64(1)).Return(nil).Once()
	notifier.On("Push", "Booking cancelled.", domain.NotificationInfo).Return(domain.Notification{}).Once()
	assert.NoError(t, s.Cancel(ctx, 1))

	// Повторная отмена ничего не делает: ни запроса, ни уведомления.
	assert.NoError(t, s.Cancel(ctx, 1))

	gw.AssertNumberOfCalls(t, "CancelBooking", 1)
	notifier.AssertNumberOfCalls(t, "Push", 1)
}

func TestStore_CancelUnknownBooking(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	err := s.Cancel(context.Background(), 99)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	gw.AssertNotCalled(t, "CancelBooking")
}

func TestStore_ApplySnapshotUpdatesTrackedBooking(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	booking, changed := s.ApplySnapshot("TK000001", domain.QueueSnapshot{
		TokenID: "TK000001", Position: 4, EstimatedWait: "15-20 mins", Status: "upcoming",
	})

	assert.True(t, changed)
	assert.Equal(t, 4, booking.Position)
	assert.Equal(t, 15, booking.EstimatedWaitMinutes)
	assert.Equal(t, domain.BookingStatusUpcoming, booking.Status)
}

func TestStore_ApplySnapshotZeroWaitUpdatesEstimate(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	booking, _ := s.ApplySnapshot("TK000001", domain.QueueSnapshot{
		TokenID: "TK000001", Position: 2, EstimatedWait: "15-20 mins", Status: "upcoming",
	})
	assert.Equal(t, 15, booking.EstimatedWaitMinutes)

	// At the front of the queue the estimate drops to zero, not sticks at 15.
	booking, changed := s.ApplySnapshot("TK000001", domain.QueueSnapshot{
		TokenID: "TK000001", Position: 1, EstimatedWait: "0 mins", Status: "active",
	})
	assert.True(t, changed)
	assert.Equal(t, 0, booking.EstimatedWaitMinutes)

	// A wait string with no number leaves the estimate alone.
	booking, _ = s.ApplySnapshot("TK000001", domain.QueueSnapshot{
		TokenID: "TK000001", Position: 1, EstimatedWait: "shortly", Status: "active",
	})
	assert.Equal(t, 0, booking.EstimatedWaitMinutes)
}

func TestStore_ApplySnapshotTerminalExactlyOnce(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	ctx := context.Background()
	gw.On("ListBookings", ctx).Return(testBookings(), nil).Once()
	assert.NoError(t, s.Load(ctx))

	snap := domain.QueueSnapshot{TokenID: "TK000001", Position: 0, Status: "completed"}

	booking, changed := s.ApplySnapshot("TK000001", snap)
	assert.True(t, changed)
	assert.Equal(t, domain.BookingStatusCompleted, booking.Status)

	// A terminal booking is never mutated again.
	booking, changed = s.ApplySnapshot("TK000001", domain.QueueSnapshot{TokenID: "TK000001", Status: "cancelled"})
	assert.False(t, changed)
	assert.Equal(t, domain.BookingStatusCompleted, booking.Status)
}

func TestStore_ApplySnapshotUnknownTokenIsNoop(t *testing.T) {
	gw := &MockGateway{}
	s := NewStore(gw, zap.NewNop())

	_, changed := s.ApplySnapshot("TK999999", domain.QueueSnapshot{Position: 1})
	assert.False(t, changed)
}
