package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/payment"
	"github.com/Domenick1991/wabooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

type PaymentParser interface {
	Parse(payload []byte, signature string) (payment.Completed, bool, error)
}

type PaymentReconciler interface {
	ReconcilePayment(ctx context.Context, completed payment.Completed) (*domain.Booking, error)
}

type StripeHandler struct {
	parser   PaymentParser
	bookings PaymentReconciler
	logger   *slog.Logger
}

func NewStripeHandler(parser PaymentParser, bookings PaymentReconciler, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{parser: parser, bookings: bookings, logger: logger}
}

func (h *StripeHandler) Register(router *gin.RouterGroup) {
	router.POST("/webhook", h.webhook)
}

func (h *StripeHandler) webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	completed, ok, err := h.parser.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	b, err := h.bookings.ReconcilePayment(ctx, completed)
	switch {
	case errors.Is(err, booking.ErrNoPendingBooking):
		h.logger.InfoContext(ctx, "payment without pending booking", slog.String("address", completed.Address), slog.String("checkout", completed.CheckoutID))
	case err != nil:
		h.logger.ErrorContext(ctx, "reconcile payment failed", slog.String("checkout", completed.CheckoutID), slog.String("err", err.Error()))
		// Stripe retries non-2xx deliveries; the booking write is idempotent on the checkout id.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
		return
	default:
		h.logger.InfoContext(ctx, "payment reconciled", slog.String("locator", b.Locator), slog.String("checkout", completed.CheckoutID))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
