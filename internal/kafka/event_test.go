package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingEvent(t *testing.T) {
	dep := time.Date(2030, 3, 2, 4, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		Address:       "+919800000001",
		Locator:       "ABC234",
		SourceCode:    "BOM",
		DestCode:      "DEL",
		DepartAt:      dep,
		Offer:         domain.Offer{FlightNo: "AI 100"},
		Passengers:    []domain.Passenger{{Name: "John Doe", Email: "john@example.com"}},
		Seats:         []string{"5A"},
		TicketURL:     "https://bot.example.com/tickets/abc.pdf",
		PaymentStatus: domain.PaymentStatusIssued,
		Timezone:      "Asia/Kolkata",
	}

	ev := NewBookingEvent(EventBookingIssued, b, "tickets/abc.pdf")
	assert.Equal(t, EventBookingIssued, ev.Type)
	assert.Equal(t, "John Doe", ev.PassengerName)
	assert.Equal(t, "john@example.com", ev.Email)
	assert.Equal(t, "AI 100", ev.FlightNo)
	assert.Equal(t, "ISSUED", ev.PaymentStatus)
	assert.Equal(t, "tickets/abc.pdf", ev.TicketPath)
	assert.False(t, ev.OccurredAt.IsZero())

	ev = NewBookingEvent(EventBookingPaid, &domain.Booking{Address: "+1"}, "")
	assert.Empty(t, ev.Email)
}

func TestDecodeBookingEvent(t *testing.T) {
	data, err := json.Marshal(BookingEvent{Type: EventBookingPaid, Locator: "XYZ789"})
	require.NoError(t, err)

	ev, err := DecodeBookingEvent(kafka.Message{Value: data})
	require.NoError(t, err)
	assert.Equal(t, "XYZ789", ev.Locator)

	_, err = DecodeBookingEvent(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)

	_, err = DecodeBookingEvent(kafka.Message{Value: []byte(`{"locator":"A"}`)})
	assert.Error(t, err)

	ev, err = UnmarshalBookingEvent(data)
	require.NoError(t, err)
	assert.Equal(t, EventBookingPaid, ev.Type)
}
