package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
)

func futureClass(id, orgID uint64, price uint32) model.Class {
	now := time.Now().UTC()
	return model.Class{
		ID:             id,
		OrganizationID: orgID,
		Name:           "Junior Tennis",
		StartTime:      now.Add(24 * time.Hour),
		EndTime:        now.Add(25 * time.Hour),
		Capacity:       10,
		PriceCents:     price,
	}
}

func newBookingService(bookings *mockBookingStore, classes *mockClassStore, orgs *mockOrgStore, pub *mockPublisher) *BookingService {
	return NewBookingService(bookings, classes, orgs, pub, zap.NewNop())
}

func TestBook_CreatesPendingWithClassPrice(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	svc := newBookingService(bookings, classes, &mockOrgStore{}, newMockPublisher())

	classes.On("GetByID", mock.Anything, uint64(5)).Return(futureClass(5, 1, 15000), nil)
	bookings.On("CreateWithCapacityCheck", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
		return b.ClassID == 5 &&
			b.PaymentStatus == model.PaymentPending &&
			b.AmountCents == 15000 &&
			b.PaymentRef != nil && *b.PaymentRef != ""
	})).Return(nil)

	b, err := svc.Book(context.Background(), BookRequest{
		ClassID:          5,
		ParticipantName:  "Jane Doe",
		ParticipantEmail: "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, b.PaymentStatus)
	assert.Equal(t, uint32(15000), b.AmountCents)
	bookings.AssertExpectations(t)
}

func TestBook_FullClassRejected(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	svc := newBookingService(bookings, classes, &mockOrgStore{}, newMockPublisher())

	classes.On("GetByID", mock.Anything, uint64(5)).Return(futureClass(5, 1, 100), nil)
	bookings.On("CreateWithCapacityCheck", mock.Anything, mock.Anything).Return(repository.ErrClassFull)

	_, err := svc.Book(context.Background(), BookRequest{ClassID: 5, ParticipantName: "x", ParticipantEmail: "x@x"})
	assert.ErrorIs(t, err, repository.ErrClassFull)
}

func TestBook_PastClassRejected(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	svc := newBookingService(bookings, classes, &mockOrgStore{}, newMockPublisher())

	past := futureClass(5, 1, 100)
	past.StartTime = time.Now().UTC().Add(-time.Hour)
	classes.On("GetByID", mock.Anything, uint64(5)).Return(past, nil)

	_, err := svc.Book(context.Background(), BookRequest{ClassID: 5, ParticipantName: "x", ParticipantEmail: "x@x"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	bookings.AssertNotCalled(t, "CreateWithCapacityCheck", mock.Anything, mock.Anything)
}

func TestConfirmPayment_FlipsStatusAndPublishes(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	orgs := &mockOrgStore{}
	pub := newMockPublisher()
	svc := newBookingService(bookings, classes, orgs, pub)

	ref := "ref-1"
	pending := model.Booking{
		ID: 9, ClassID: 5, ParticipantName: "Jane", ParticipantEmail: "jane@x",
		PaymentStatus: model.PaymentPending, AmountCents: 15000, PaymentRef: &ref,
	}
	bookings.On("GetByPaymentRef", mock.Anything, "ref-1").Return(pending, nil)
	bookings.On("ConfirmWithPayment", mock.Anything, uint64(9), mock.MatchedBy(func(p *model.Payment) bool {
		return p.BookingID == 9 && p.AmountCents == 15000 && p.Currency == "ZAR"
	})).Return(nil)
	classes.On("GetByID", mock.Anything, uint64(5)).Return(futureClass(5, 2, 15000), nil)
	orgs.On("GetByID", mock.Anything, uint64(2)).Return(model.Organization{ID: 2, Name: "Elite Sports"}, nil)
	pub.On("BookingConfirmed", mock.Anything, mock.Anything).Return()

	b, err := svc.ConfirmPayment(context.Background(), "ref-1", "pf-100", "{}", 15000)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentConfirmed, b.PaymentStatus)

	select {
	case <-pub.done:
	case <-time.After(time.Second):
		t.Fatal("expected booking.confirmed event")
	}
	bookings.AssertExpectations(t)
}

func TestConfirmPayment_Idempotent(t *testing.T) {
	bookings := &mockBookingStore{}
	svc := newBookingService(bookings, &mockClassStore{}, &mockOrgStore{}, newMockPublisher())

	ref := "ref-1"
	confirmed := model.Booking{ID: 9, PaymentStatus: model.PaymentConfirmed, AmountCents: 100, PaymentRef: &ref}
	bookings.On("GetByPaymentRef", mock.Anything, "ref-1").Return(confirmed, nil)

	b, err := svc.ConfirmPayment(context.Background(), "ref-1", "pf-100", "{}", 100)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentConfirmed, b.PaymentStatus)
	bookings.AssertNotCalled(t, "ConfirmWithPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_AmountMismatch(t *testing.T) {
	bookings := &mockBookingStore{}
	svc := newBookingService(bookings, &mockClassStore{}, &mockOrgStore{}, newMockPublisher())

	ref := "ref-1"
	pending := model.Booking{ID: 9, PaymentStatus: model.PaymentPending, AmountCents: 15000, PaymentRef: &ref}
	bookings.On("GetByPaymentRef", mock.Anything, "ref-1").Return(pending, nil)

	_, err := svc.ConfirmPayment(context.Background(), "ref-1", "pf-100", "{}", 100)
	assert.ErrorIs(t, err, ErrPaymentMismatch)
	bookings.AssertNotCalled(t, "ConfirmWithPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_CancelledBookingRejected(t *testing.T) {
	bookings := &mockBookingStore{}
	svc := newBookingService(bookings, &mockClassStore{}, &mockOrgStore{}, newMockPublisher())

	ref := "ref-1"
	cancelled := model.Booking{ID: 9, PaymentStatus: model.PaymentCancelled, AmountCents: 100, PaymentRef: &ref}
	bookings.On("GetByPaymentRef", mock.Anything, "ref-1").Return(cancelled, nil)

	_, err := svc.ConfirmPayment(context.Background(), "ref-1", "pf-100", "{}", 100)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestConfirmManual_RecordsPaymentAtBookingAmount(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	orgs := &mockOrgStore{}
	pub := newMockPublisher()
	svc := newBookingService(bookings, classes, orgs, pub)

	pending := model.Booking{
		ID: 9, ClassID: 5, ParticipantName: "Jane", ParticipantEmail: "jane@x",
		PaymentStatus: model.PaymentPending, AmountCents: 9000,
	}
	bookings.On("GetByID", mock.Anything, uint64(9)).Return(pending, nil)
	bookings.On("ConfirmWithPayment", mock.Anything, uint64(9), mock.MatchedBy(func(p *model.Payment) bool {
		return p.AmountCents == 9000 && p.Status == "manual" && p.GatewayPaymentID == nil
	})).Return(nil)
	classes.On("GetByID", mock.Anything, uint64(5)).Return(futureClass(5, 2, 9000), nil)
	orgs.On("GetByID", mock.Anything, uint64(2)).Return(model.Organization{ID: 2, Name: "Elite Sports"}, nil)
	pub.On("BookingConfirmed", mock.Anything, mock.Anything).Return()

	b, err := svc.ConfirmManual(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentConfirmed, b.PaymentStatus)
	bookings.AssertExpectations(t)
}

func TestConfirmManual_Idempotent(t *testing.T) {
	bookings := &mockBookingStore{}
	svc := newBookingService(bookings, &mockClassStore{}, &mockOrgStore{}, newMockPublisher())

	bookings.On("GetByID", mock.Anything, uint64(9)).Return(model.Booking{
		ID: 9, PaymentStatus: model.PaymentConfirmed,
	}, nil)

	b, err := svc.ConfirmManual(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentConfirmed, b.PaymentStatus)
	bookings.AssertNotCalled(t, "ConfirmWithPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel(t *testing.T) {
	bookings := &mockBookingStore{}
	svc := newBookingService(bookings, &mockClassStore{}, &mockOrgStore{}, newMockPublisher())

	bookings.On("GetByID", mock.Anything, uint64(9)).Return(
		model.Booking{ID: 9, PaymentStatus: model.PaymentPending}, nil)
	bookings.On("UpdatePaymentStatus", mock.Anything, uint64(9), model.PaymentCancelled).Return(nil)

	b, err := svc.Cancel(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCancelled, b.PaymentStatus)
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	bookings := &mockBookingStore{}
	svc := newBookingService(bookings, &mockClassStore{}, &mockOrgStore{}, newMockPublisher())

	bookings.On("GetByID", mock.Anything, uint64(9)).Return(
		model.Booking{ID: 9, PaymentStatus: model.PaymentCancelled}, nil)

	_, err := svc.Cancel(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestMove_PreservesBookingFields(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	svc := newBookingService(bookings, classes, &mockOrgStore{}, newMockPublisher())

	ref := "ref-1"
	bookings.On("GetByID", mock.Anything, uint64(9)).Return(model.Booking{
		ID: 9, ClassID: 5, ParticipantName: "Jane", AmountCents: 15000,
		PaymentStatus: model.PaymentConfirmed, PaymentRef: &ref,
	}, nil)
	classes.On("GetByID", mock.Anything, uint64(5)).Return(futureClass(5, 2, 15000), nil)
	classes.On("GetByID", mock.Anything, uint64(6)).Return(futureClass(6, 2, 20000), nil)
	bookings.On("Move", mock.Anything, uint64(9), uint64(6)).Return(nil)

	b, err := svc.Move(context.Background(), 9, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), b.ClassID)
	assert.Equal(t, uint32(15000), b.AmountCents)
	assert.Equal(t, model.PaymentConfirmed, b.PaymentStatus)
}

func TestMove_AcrossOrganizationsForbidden(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	svc := newBookingService(bookings, classes, &mockOrgStore{}, newMockPublisher())

	bookings.On("GetByID", mock.Anything, uint64(9)).Return(
		model.Booking{ID: 9, ClassID: 5, PaymentStatus: model.PaymentPending}, nil)
	classes.On("GetByID", mock.Anything, uint64(5)).Return(futureClass(5, 2, 100), nil)
	classes.On("GetByID", mock.Anything, uint64(6)).Return(futureClass(6, 3, 100), nil)

	_, err := svc.Move(context.Background(), 9, 6)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	bookings.AssertNotCalled(t, "Move", mock.Anything, mock.Anything, mock.Anything)
}

func TestMove_TargetFull(t *testing.T) {
	bookings := &mockBookingStore{}
	classes := &mockClassStore{}
	svc := newBookingService(bookings, classes, &mockOrgStore{}, newMockPublisher())

	bookings.On("GetByID", mock.Anything, uint64(9)).Return(
		model.Booking{ID: 9, ClassID: 5, PaymentStatus: model.PaymentPending}, nil)
	classes.On("GetByID", mock.Anything, uint64(5)).Return(futureClass(5, 2, 100), nil)
	classes.On("GetByID", mock.Anything, uint64(6)).Return(futureClass(6, 2, 100), nil)
	bookings.On("Move", mock.Anything, uint64(9), uint64(6)).Return(repository.ErrClassFull)

	_, err := svc.Move(context.Background(), 9, 6)
	assert.ErrorIs(t, err, repository.ErrClassFull)
}
