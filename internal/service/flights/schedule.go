package flights

import (
	"fmt"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
)

type carrier struct {
	code  string
	name  string
	price int64
}

var scheduleCarriers = []carrier{
	{code: "AI", name: "Air India", price: 5800},
	{code: "6E", name: "IndiGo", price: 6100},
	{code: "UK", name: "Vistara", price: 6400},
}

const scheduleDuration = 125 * time.Minute

// Schedule produces the fallback timetable for a route: one departure per
// carrier at :30 past each of the three hours starting at the requested hour.
// The result depends only on its inputs.
func Schedule(origin, destination string, departure time.Time) []domain.Flight {
	base := time.Date(departure.Year(), departure.Month(), departure.Day(), departure.Hour(), 0, 0, 0, departure.Location())

	flights := make([]domain.Flight, 0, len(scheduleCarriers))
	for i, c := range scheduleCarriers {
		dep := base.Add(time.Duration(60*i+30) * time.Minute)
		flights = append(flights, domain.Flight{
			Carrier:       c.code,
			Airline:       c.name,
			FlightNo:      fmt.Sprintf("%s %d", c.code, 100+i),
			FromAirport:   origin,
			ToAirport:     destination,
			DepartureTime: dep,
			ArrivalTime:   dep.Add(scheduleDuration),
			PriceCents:    c.price * 100,
			Currency:      "INR",
		})
	}
	return flights
}
