package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/payment"
	"github.com/Domenick1991/wabooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPaymentParser struct {
	mock.Mock
}

func (m *MockPaymentParser) Parse(payload []byte, signature string) (payment.Completed, bool, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(payment.Completed), args.Bool(1), args.Error(2)
}

type MockPaymentReconciler struct {
	mock.Mock
}

func (m *MockPaymentReconciler) ReconcilePayment(ctx context.Context, completed payment.Completed) (*domain.Booking, error) {
	args := m.Called(ctx, completed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func stripeContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/stripe/webhook", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=abc")
	return c, w
}

func TestStripeHandler_webhook(t *testing.T) {
	completed := payment.Completed{CheckoutID: "cs_1", Address: "+919800000001"}

	testCases := []struct {
		name         string
		parseOK      bool
		parseErr     error
		reconcileErr error
		expectedCode int
	}{
		{name: "Reconciled", parseOK: true, expectedCode: http.StatusOK},
		{name: "Ignored event", parseOK: false, expectedCode: http.StatusOK},
		{name: "Bad signature", parseErr: errors.New("signature mismatch"), expectedCode: http.StatusBadRequest},
		{name: "No pending booking", parseOK: true, reconcileErr: booking.ErrNoPendingBooking, expectedCode: http.StatusOK},
		{name: "Store failure", parseOK: true, reconcileErr: errors.New("db down"), expectedCode: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parser := &MockPaymentParser{}
			reconciler := &MockPaymentReconciler{}
			handler := NewStripeHandler(parser, reconciler, nil)

			c, w := stripeContext(t)
			parser.On("Parse", []byte(`{"id":"evt_1"}`), "t=1,v1=abc").Return(completed, tc.parseOK, tc.parseErr).Once()
			if tc.parseOK {
				if tc.reconcileErr != nil {
					reconciler.On("ReconcilePayment", mock.Anything, completed).Return(nil, tc.reconcileErr).Once()
				} else {
					reconciler.On("ReconcilePayment", mock.Anything, completed).Return(&domain.Booking{Locator: "PAY234"}, nil).Once()
				}
			}

			handler.webhook(c)

			assert.Equal(t, tc.expectedCode, w.Code)
			parser.AssertExpectations(t)
			reconciler.AssertExpectations(t)
			if !tc.parseOK {
				reconciler.AssertNotCalled(t, "ReconcilePayment", mock.Anything, mock.Anything)
			}
		})
	}
}
