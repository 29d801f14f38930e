// Package service implements the booking and attendance lifecycles on
// top of the store interfaces in ports.  Handlers stay thin; the rules
// about capacity, payment transitions and attendance marking live here.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ihacademy/academy-server/internal/metrics"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/queue"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/service/ports"
	"github.com/ihacademy/academy-server/internal/utils"
)

// ErrNotCancellable is returned when a booking is already cancelled or
// refunded and cannot be cancelled again.
var ErrNotCancellable = errors.New("booking cannot be cancelled")

// ErrPaymentMismatch is returned when a gateway notification's amount
// does not match the booking it references.
var ErrPaymentMismatch = errors.New("payment amount does not match booking")

// BookingService owns the booking lifecycle: creation under the class
// capacity bound, payment confirmation, cancellation and moves between
// classes.
type BookingService struct {
	bookings  ports.BookingStore
	classes   ports.ClassStore
	orgs      ports.OrganizationStore
	publisher ports.EventPublisher
	logger    *zap.Logger
}

func NewBookingService(
	bookings ports.BookingStore,
	classes ports.ClassStore,
	orgs ports.OrganizationStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		classes:   classes,
		orgs:      orgs,
		publisher: publisher,
		logger:    logger,
	}
}

// BookRequest carries the participant details for a new booking.
type BookRequest struct {
	ClassID          uint64
	ParticipantName  string
	ParticipantEmail string
	ParticipantPhone *string
	ParticipantAge   *uint32
	Notes            *string
}

// Book creates a pending booking against a class.  The class must exist
// and still be in the future; the amount is taken from the class price
// and a fresh payment reference is attached for the gateway.  When the
// class is full the store rejects the insert with
// repository.ErrClassFull.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (model.Booking, error) {
	class, err := s.classes.GetByID(ctx, req.ClassID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("get class: %w", err)
	}
	if !class.StartTime.After(time.Now().UTC()) {
		return model.Booking{}, repository.ErrConflict
	}

	ref := utils.NewPaymentRef()
	b := model.Booking{
		ClassID:          class.ID,
		ParticipantName:  req.ParticipantName,
		ParticipantEmail: req.ParticipantEmail,
		ParticipantPhone: req.ParticipantPhone,
		ParticipantAge:   req.ParticipantAge,
		BookingDate:      time.Now().UTC(),
		PaymentStatus:    model.PaymentPending,
		PaymentMethod:    "payfast",
		AmountCents:      class.PriceCents,
		PaymentRef:       &ref,
		Notes:            req.Notes,
	}
	if err := s.bookings.CreateWithCapacityCheck(ctx, &b); err != nil {
		if errors.Is(err, repository.ErrClassFull) {
			metrics.BookingsRejectedFull.Inc()
		}
		return model.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingsCreated.Inc()
	s.logger.Info("booking created",
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("class_id", class.ID),
		zap.String("participant_email", b.ParticipantEmail),
	)
	return b, nil
}

// ConfirmPayment processes a verified gateway notification for the
// booking identified by its payment reference.  Confirming an already
// confirmed booking is a no-op so gateway retries stay safe; the amount
// must match the booking before anything is written.  On success the
// payment row and the status flip commit together and a
// booking.confirmed event is published.
func (s *BookingService) ConfirmPayment(ctx context.Context, paymentRef, gatewayPaymentID, gatewayData string, amountCents uint32) (model.Booking, error) {
	b, err := s.bookings.GetByPaymentRef(ctx, paymentRef)
	if err != nil {
		return model.Booking{}, fmt.Errorf("resolve payment ref: %w", err)
	}
	if b.PaymentStatus == model.PaymentConfirmed {
		return b, nil
	}
	if b.PaymentStatus != model.PaymentPending {
		return model.Booking{}, repository.ErrConflict
	}
	if amountCents != b.AmountCents {
		return model.Booking{}, ErrPaymentMismatch
	}

	now := time.Now().UTC()
	pay := model.Payment{
		BookingID:        b.ID,
		AmountCents:      amountCents,
		Currency:         "ZAR",
		Status:           "complete",
		GatewayPaymentID: &gatewayPaymentID,
		GatewayData:      &gatewayData,
		ProcessedAt:      &now,
	}
	if err := s.bookings.ConfirmWithPayment(ctx, b.ID, &pay); err != nil {
		return model.Booking{}, fmt.Errorf("confirm booking: %w", err)
	}
	b.PaymentStatus = model.PaymentConfirmed

	metrics.BookingsConfirmed.Inc()
	s.logger.Info("booking confirmed",
		zap.Uint64("booking_id", b.ID),
		zap.String("gateway_payment_id", gatewayPaymentID),
	)

	s.publishConfirmed(ctx, b, now)
	return b, nil
}

// ConfirmManual confirms a booking without a gateway notification, for
// payments taken outside the gateway (cash or EFT at the academy).
// Idempotent for already confirmed bookings.
func (s *BookingService) ConfirmManual(ctx context.Context, bookingID uint64) (model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.PaymentStatus == model.PaymentConfirmed {
		return b, nil
	}
	if b.PaymentStatus != model.PaymentPending {
		return model.Booking{}, repository.ErrConflict
	}

	now := time.Now().UTC()
	pay := model.Payment{
		BookingID:   b.ID,
		AmountCents: b.AmountCents,
		Currency:    "ZAR",
		Status:      "manual",
		ProcessedAt: &now,
	}
	if err := s.bookings.ConfirmWithPayment(ctx, b.ID, &pay); err != nil {
		return model.Booking{}, fmt.Errorf("confirm booking: %w", err)
	}
	b.PaymentStatus = model.PaymentConfirmed

	metrics.BookingsConfirmed.Inc()
	s.logger.Info("booking confirmed manually", zap.Uint64("booking_id", b.ID))

	s.publishConfirmed(ctx, b, now)
	return b, nil
}

func (s *BookingService) publishConfirmed(ctx context.Context, b model.Booking, confirmedAt time.Time) {
	class, err := s.classes.GetByID(ctx, b.ClassID)
	if err != nil {
		s.logger.Warn("class lookup for event failed", zap.Error(err), zap.Uint64("class_id", b.ClassID))
		return
	}
	org, err := s.orgs.GetByID(ctx, class.OrganizationID)
	if err != nil {
		s.logger.Warn("organization lookup for event failed", zap.Error(err), zap.Uint64("organization_id", class.OrganizationID))
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:        b.ID,
		ClassID:          class.ID,
		ClassName:        class.Name,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		ParticipantName:  b.ParticipantName,
		ParticipantEmail: b.ParticipantEmail,
		StartsAt:         class.StartTime.UTC().Format(time.RFC3339),
		EndsAt:           class.EndTime.UTC().Format(time.RFC3339),
		AmountCents:      b.AmountCents,
		ConfirmedAt:      confirmedAt.Format(time.RFC3339),
	}
	go s.publisher.BookingConfirmed(context.WithoutCancel(ctx), ev)
}

// Cancel releases a booking's spot.  Pending and confirmed bookings may
// be cancelled; anything else returns ErrNotCancellable.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint64) (model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !model.CountsAgainstCapacity(b.PaymentStatus) {
		return model.Booking{}, ErrNotCancellable
	}
	if err := s.bookings.UpdatePaymentStatus(ctx, bookingID, model.PaymentCancelled); err != nil {
		return model.Booking{}, fmt.Errorf("cancel booking: %w", err)
	}
	b.PaymentStatus = model.PaymentCancelled
	s.logger.Info("booking cancelled", zap.Uint64("booking_id", bookingID))
	return b, nil
}

// Move transfers a booking to another class in the same organization.
// The target must have room; the booking keeps its participant details,
// amount and payment status.
func (s *BookingService) Move(ctx context.Context, bookingID, targetClassID uint64) (model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !model.CountsAgainstCapacity(b.PaymentStatus) {
		return model.Booking{}, repository.ErrConflict
	}
	source, err := s.classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("get source class: %w", err)
	}
	target, err := s.classes.GetByID(ctx, targetClassID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("get target class: %w", err)
	}
	if source.OrganizationID != target.OrganizationID {
		return model.Booking{}, repository.ErrForbidden
	}
	if err := s.bookings.Move(ctx, bookingID, targetClassID); err != nil {
		return model.Booking{}, fmt.Errorf("move booking: %w", err)
	}
	b.ClassID = targetClassID
	s.logger.Info("booking moved",
		zap.Uint64("booking_id", bookingID),
		zap.Uint64("from_class_id", source.ID),
		zap.Uint64("to_class_id", targetClassID),
	)
	return b, nil
}
