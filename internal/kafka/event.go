package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	EventBookingIssued = "booking_issued"
	EventBookingPaid   = "booking_paid"
)

// BookingEvent is published after a booking is stored. The worker turns it
// into a confirmation email.
type BookingEvent struct {
	Type          string    `json:"type"`
	Locator       string    `json:"locator"`
	Address       string    `json:"address"`
	Email         string    `json:"email,omitempty"`
	PassengerName string    `json:"passenger_name,omitempty"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	FlightNo      string    `json:"flight_no,omitempty"`
	DepartAt      time.Time `json:"depart_at"`
	Seats         []string  `json:"seats,omitempty"`
	TicketURL     string    `json:"ticket_url,omitempty"`
	TicketPath    string    `json:"ticket_path,omitempty"`
	PaymentStatus string    `json:"payment_status"`
	Timezone      string    `json:"timezone,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, ticketPath string) BookingEvent {
	ev := BookingEvent{
		Type:          eventType,
		Locator:       b.Locator,
		Address:       b.Address,
		Origin:        b.SourceCode,
		Destination:   b.DestCode,
		FlightNo:      b.Offer.FlightNo,
		DepartAt:      b.DepartAt,
		Seats:         b.Seats,
		TicketURL:     b.TicketURL,
		TicketPath:    ticketPath,
		PaymentStatus: string(b.PaymentStatus),
		Timezone:      b.Timezone,
		OccurredAt:    time.Now().UTC(),
	}
	if len(b.Passengers) > 0 {
		ev.PassengerName = b.Passengers[0].Name
		ev.Email = b.Passengers[0].Email
	}
	return ev
}

func DecodeBookingEvent(msg kafka.Message) (BookingEvent, error) {
	ev, err := UnmarshalBookingEvent(msg.Value)
	if err != nil {
		return BookingEvent{}, fmt.Errorf("offset %d: %w", msg.Offset, err)
	}
	return ev, nil
}

// UnmarshalBookingEvent decodes an event body from either broker.
func UnmarshalBookingEvent(data []byte) (BookingEvent, error) {
	var ev BookingEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return BookingEvent{}, fmt.Errorf("decode booking event: %w", err)
	}
	if ev.Type == "" {
		return BookingEvent{}, fmt.Errorf("booking event has no type")
	}
	return ev, nil
}
