package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ihacademy/academy-server/internal/metrics"
	"github.com/ihacademy/academy-server/internal/payment"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/service"
)

// WebhookHandler receives server-to-server payment notifications from
// the gateway.  The gateway retries on non-200 responses, so only
// transient failures answer with an error status; invalid or tampered
// notifications are acknowledged and dropped.
type WebhookHandler struct {
	Svc     *service.BookingService
	Gateway *payment.PayFast
	Logger  *zap.Logger
}

func NewWebhookHandler(svc *service.BookingService, gw *payment.PayFast, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Svc: svc, Gateway: gw, Logger: logger}
}

// PayFastITN handles the instant transaction notification callback.
func (h *WebhookHandler) PayFastITN(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		metrics.PaymentNotifications.WithLabelValues("malformed").Inc()
		return c.NoContent(http.StatusBadRequest)
	}
	n := payment.ParseNotification(form)

	if !h.Gateway.VerifyNotification(n) {
		metrics.PaymentNotifications.WithLabelValues("invalid_signature").Inc()
		h.Logger.Warn("payment notification rejected",
			zap.String("payment_ref", n.PaymentID),
			zap.String("merchant_id", n.MerchantID),
		)
		return c.NoContent(http.StatusOK)
	}

	if n.PaymentStatus != payment.StatusComplete {
		metrics.PaymentNotifications.WithLabelValues("ignored_status").Inc()
		h.Logger.Info("payment notification ignored",
			zap.String("payment_ref", n.PaymentID),
			zap.String("status", n.PaymentStatus),
		)
		return c.NoContent(http.StatusOK)
	}

	amountCents, err := randsToCents(n.AmountGross)
	if err != nil {
		metrics.PaymentNotifications.WithLabelValues("malformed").Inc()
		h.Logger.Warn("payment notification with bad amount",
			zap.String("payment_ref", n.PaymentID),
			zap.String("amount_gross", n.AmountGross),
		)
		return c.NoContent(http.StatusOK)
	}

	rawJSON, _ := json.Marshal(n.Raw)
	_, err = h.Svc.ConfirmPayment(c.Request().Context(), n.PaymentID, n.PFPaymentID, string(rawJSON), amountCents)
	switch {
	case err == nil:
		metrics.PaymentNotifications.WithLabelValues("confirmed").Inc()
		return c.NoContent(http.StatusOK)
	case errors.Is(err, repository.ErrBookingNotFound):
		metrics.PaymentNotifications.WithLabelValues("unknown_ref").Inc()
		h.Logger.Warn("payment notification for unknown booking",
			zap.String("payment_ref", n.PaymentID))
		return c.NoContent(http.StatusOK)
	case errors.Is(err, service.ErrPaymentMismatch):
		metrics.PaymentNotifications.WithLabelValues("amount_mismatch").Inc()
		h.Logger.Warn("payment amount does not match booking",
			zap.String("payment_ref", n.PaymentID),
			zap.Uint32("amount_cents", amountCents))
		return c.NoContent(http.StatusOK)
	case errors.Is(err, repository.ErrConflict):
		metrics.PaymentNotifications.WithLabelValues("stale").Inc()
		return c.NoContent(http.StatusOK)
	}
	// transient failure, let the gateway retry
	metrics.PaymentNotifications.WithLabelValues("error").Inc()
	h.Logger.Error("payment confirmation failed",
		zap.String("payment_ref", n.PaymentID),
		zap.Error(err))
	return c.NoContent(http.StatusInternalServerError)
}

// randsToCents converts the gateway's decimal rand amount ("150.00")
// to integer cents.
func randsToCents(amount string) (uint32, error) {
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil || f < 0 || f > math.MaxUint32/100 {
		return 0, errors.New("invalid amount")
	}
	return uint32(math.Round(f * 100)), nil
}
