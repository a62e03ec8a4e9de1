package domain

import (
	"strings"
	"time"
)

// Flight is a scheduled flight row from the flights table.
type Flight struct {
	ID            int64
	Carrier       string
	Airline       string
	FlightNo      string
	FromAirport   string
	ToAirport     string
	DepartureTime time.Time
	ArrivalTime   time.Time
	PriceCents    int64
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Offer is an ephemeral, session-scoped flight option. ID is unique within
// one search result.
type Offer struct {
	ID              string    `json:"id"`
	Carrier         string    `json:"carrier"`
	Airline         string    `json:"airline,omitempty"`
	FlightNo        string    `json:"flight_no"`
	DepartAt        time.Time `json:"depart"`
	ArriveAt        time.Time `json:"arrive"`
	DurationMinutes int       `json:"duration_min"`
	Price           int64     `json:"price"`
	Currency        string    `json:"currency"`
}

// Offer converts a scheduled flight into a session offer. The ID is stable
// for the same flight number and departure.
func (f Flight) Offer() Offer {
	return Offer{
		ID:              strings.ReplaceAll(f.FlightNo, " ", "") + "-" + f.DepartureTime.UTC().Format("200601021504"),
		Carrier:         f.Carrier,
		Airline:         f.Airline,
		FlightNo:        f.FlightNo,
		DepartAt:        f.DepartureTime,
		ArriveAt:        f.ArrivalTime,
		DurationMinutes: int(f.ArrivalTime.Sub(f.DepartureTime).Minutes()),
		Price:           f.PriceCents / 100,
		Currency:        f.Currency,
	}
}
