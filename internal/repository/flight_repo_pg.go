package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
)

type FlightRepository interface {
	// ListByRoute returns scheduled flights departing in [from, until).
	ListByRoute(ctx context.Context, origin, destination string, from, until time.Time) ([]domain.Flight, error)
}

type PGFlightRepository struct {
	db DB
}

func NewFlightRepository(db DB) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) ListByRoute(ctx context.Context, origin, destination string, from, until time.Time) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT id, carrier, airline, flight_no, from_airport, to_airport, departure_time, arrival_time, price_cents, currency, created_at, updated_at
		FROM flights
		WHERE from_airport=$1 AND to_airport=$2 AND departure_time >= $3 AND departure_time < $4
		ORDER BY departure_time`, origin, destination, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Carrier, &f.Airline, &f.FlightNo, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime,
			&f.PriceCents, &f.Currency, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
