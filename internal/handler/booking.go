package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ihacademy/academy-server/internal/config"
	"github.com/ihacademy/academy-server/internal/middleware"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/payment"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/service"
	"github.com/ihacademy/academy-server/internal/utils"
)

// BookingHandler serves the booking endpoints.  Creation and payment
// redirects are public (participants do not need accounts); listing,
// moving and cancelling require an authenticated organization role.
type BookingHandler struct {
	Cfg      config.Config
	Svc      *service.BookingService
	Bookings *repository.BookingRepo
	Classes  *repository.ClassRepo
	Orgs     *repository.OrganizationRepo
	Payments *repository.PaymentRepo
	Gateway  *payment.PayFast
}

func NewBookingHandler(cfg config.Config, svc *service.BookingService, b *repository.BookingRepo, cl *repository.ClassRepo, o *repository.OrganizationRepo, p *repository.PaymentRepo, gw *payment.PayFast) *BookingHandler {
	return &BookingHandler{Cfg: cfg, Svc: svc, Bookings: b, Classes: cl, Orgs: o, Payments: p, Gateway: gw}
}

type bookingReq struct {
	ClassID          uint64  `json:"class_id"`
	ParticipantName  string  `json:"participant_name"`
	ParticipantEmail string  `json:"participant_email"`
	ParticipantPhone *string `json:"participant_phone"`
	ParticipantAge   *uint32 `json:"participant_age"`
	Notes            *string `json:"notes"`
}

type moveReq struct {
	TargetClassID uint64 `json:"class_id"`
}

// Create books a spot in a class and returns the booking together with
// the signed gateway URL for payment.  A full class answers 409.
func (h *BookingHandler) Create(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ParticipantName = strings.TrimSpace(req.ParticipantName)
	req.ParticipantEmail = strings.ToLower(strings.TrimSpace(req.ParticipantEmail))
	if req.ClassID == 0 || req.ParticipantName == "" || req.ParticipantEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_id, participant_name and participant_email required"})
	}

	b, err := h.Svc.Book(c.Request().Context(), service.BookRequest{
		ClassID:          req.ClassID,
		ParticipantName:  req.ParticipantName,
		ParticipantEmail: req.ParticipantEmail,
		ParticipantPhone: req.ParticipantPhone,
		ParticipantAge:   req.ParticipantAge,
		Notes:            req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrClassFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "class is full"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "class already started"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking":     b,
		"payment_url": h.paymentURL(c, b),
	})
}

// Get returns a booking.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	return c.JSON(http.StatusOK, b)
}

// ListByClass returns all bookings of a class for its organization's
// staff.
func (h *BookingHandler) ListByClass(c echo.Context) error {
	classID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	class, err := h.Classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load class failed"})
	}
	if err := h.requireOrgStaff(c, class.OrganizationID); err != nil {
		return err
	}
	bookings, err := h.Bookings.ListByClass(ctx, classID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookings, "count": len(bookings)})
}

// ListByEmail returns a participant's bookings.  ?email= is required.
func (h *BookingHandler) ListByEmail(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	bookings, err := h.Bookings.ListByEmail(c.Request().Context(), email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookings, "count": len(bookings)})
}

// Recent returns the latest bookings across an organization's classes,
// newest first.
func (h *BookingHandler) Recent(c echo.Context) error {
	orgID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireOrgStaff(c, orgID); err != nil {
		return err
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	bookings, err := h.Bookings.ListRecent(c.Request().Context(), orgID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookings, "count": len(bookings)})
}

// Move transfers a booking to another class in the same organization.
func (h *BookingHandler) Move(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req moveReq
	if err := c.Bind(&req); err != nil || req.TargetClassID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_id required"})
	}
	ctx := c.Request().Context()
	if err := h.requireBookingOrgStaff(c, id); err != nil {
		return err
	}
	b, err := h.Svc.Move(ctx, id, req.TargetClassID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "target class not found"})
		case errors.Is(err, repository.ErrClassFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "target class is full"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "target class belongs to another organization"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "move booking failed"})
	}
	return c.JSON(http.StatusOK, b)
}

type paymentStatusReq struct {
	PaymentStatus string `json:"payment_status"`
}

// UpdatePaymentStatus lets staff confirm a booking paid outside the
// gateway or cancel it.  Confirming an already confirmed booking is a
// no-op.
func (h *BookingHandler) UpdatePaymentStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req paymentStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.requireBookingOrgStaff(c, id); err != nil {
		return err
	}

	var b model.Booking
	switch req.PaymentStatus {
	case model.PaymentConfirmed:
		b, err = h.Svc.ConfirmManual(c.Request().Context(), id)
	case model.PaymentCancelled:
		b, err = h.Svc.Cancel(c.Request().Context(), id)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_status must be confirmed or cancelled"})
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrConflict), errors.Is(err, service.ErrNotCancellable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "status change not allowed from current state"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update payment status failed"})
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel releases the booking's spot.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireBookingOrgStaff(c, id); err != nil {
		return err
	}
	b, err := h.Svc.Cancel(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, service.ErrNotCancellable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel booking failed"})
	}
	return c.JSON(http.StatusOK, b)
}

// ListPayments returns the payment records associated with a booking.
func (h *BookingHandler) ListPayments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.requireBookingOrgStaff(c, id); err != nil {
		return err
	}
	payments, err := h.Payments.ListByBooking(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": payments, "count": len(payments)})
}

// ICal serves the booking's class as a downloadable calendar event.
func (h *BookingHandler) ICal(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	class, err := h.Classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load class failed"})
	}
	ics := utils.BookingICal(class, b, time.Now().UTC())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="booking-%d.ics"`, b.ID))
	return c.Blob(http.StatusOK, "text/calendar", []byte(ics))
}

// PaymentURL re-issues the gateway redirect for a pending booking, e.g.
// after the participant abandoned the first attempt.
func (h *BookingHandler) PaymentURL(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	if b.PaymentStatus != model.PaymentPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not awaiting payment"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payment_url": h.paymentURL(c, b)})
}

func (h *BookingHandler) paymentURL(c echo.Context, b model.Booking) string {
	ref := ""
	if b.PaymentRef != nil {
		ref = *b.PaymentRef
	}
	first, last := splitName(b.ParticipantName)
	itemName := fmt.Sprintf("Class booking #%d", b.ID)
	if class, err := h.Classes.GetByID(c.Request().Context(), b.ClassID); err == nil {
		itemName = class.Name
	}
	return h.Gateway.PaymentURL(payment.PaymentRequest{
		ReturnURL: h.Cfg.PublicBaseURL + "/payment/success",
		CancelURL: h.Cfg.PublicBaseURL + "/payment/cancelled",
		NotifyURL: h.Cfg.PublicBaseURL + "/v1/webhooks/payfast",
		NameFirst: first,
		NameLast:  last,
		Email:     b.ParticipantEmail,
		PaymentID: ref,
		Amount:    fmt.Sprintf("%d.%02d", b.AmountCents/100, b.AmountCents%100),
		ItemName:  itemName,
	})
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// requireOrgStaff allows global admins plus any admin or coach of the
// organization.
func (h *BookingHandler) requireOrgStaff(c echo.Context, orgID uint64) error {
	if middleware.Role(c) == model.RoleGlobalAdmin {
		return nil
	}
	uid := middleware.UserID(c)
	memberships, err := h.Orgs.Memberships(c.Request().Context(), uid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "authorization check failed")
	}
	for _, m := range memberships {
		if m.OrganizationID == orgID && m.IsActive && (m.Role == "admin" || m.Role == "coach") {
			return nil
		}
	}
	return echo.NewHTTPError(http.StatusForbidden, "forbidden")
}

func (h *BookingHandler) requireBookingOrgStaff(c echo.Context, bookingID uint64) error {
	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "load booking failed")
	}
	class, err := h.Classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "load class failed")
	}
	return h.requireOrgStaff(c, class.OrganizationID)
}
