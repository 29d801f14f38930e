package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/queue"
)

type mockBookingStore struct{ mock.Mock }

func (m *mockBookingStore) CreateWithCapacityCheck(ctx context.Context, b *model.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBookingStore) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookingStore) GetByPaymentRef(ctx context.Context, ref string) (model.Booking, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookingStore) ListByClass(ctx context.Context, classID uint64) ([]model.Booking, error) {
	args := m.Called(ctx, classID)
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *mockBookingStore) ConfirmWithPayment(ctx context.Context, bookingID uint64, pay *model.Payment) error {
	args := m.Called(ctx, bookingID, pay)
	return args.Error(0)
}

func (m *mockBookingStore) UpdatePaymentStatus(ctx context.Context, id uint64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockBookingStore) Move(ctx context.Context, bookingID, targetClassID uint64) error {
	args := m.Called(ctx, bookingID, targetClassID)
	return args.Error(0)
}

type mockClassStore struct{ mock.Mock }

func (m *mockClassStore) GetByID(ctx context.Context, id uint64) (model.Class, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Class), args.Error(1)
}

type mockOrgStore struct{ mock.Mock }

func (m *mockOrgStore) GetByID(ctx context.Context, id uint64) (model.Organization, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Organization), args.Error(1)
}

type mockAttendanceStore struct{ mock.Mock }

func (m *mockAttendanceStore) ListByClass(ctx context.Context, classID uint64) ([]model.Attendance, error) {
	args := m.Called(ctx, classID)
	return args.Get(0).([]model.Attendance), args.Error(1)
}

func (m *mockAttendanceStore) Mark(ctx context.Context, classID, bookingID uint64, status string, markedBy uint64, at time.Time) (model.Attendance, error) {
	args := m.Called(ctx, classID, bookingID, status, markedBy, at)
	return args.Get(0).(model.Attendance), args.Error(1)
}

func (m *mockAttendanceStore) UpdateStatus(ctx context.Context, classID, id uint64, status string, markedBy uint64, at time.Time) error {
	args := m.Called(ctx, classID, id, status, markedBy, at)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
	done chan struct{}
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{done: make(chan struct{}, 1)}
}

func (m *mockPublisher) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) {
	m.Called(ctx, ev)
	select {
	case m.done <- struct{}{}:
	default:
	}
}
