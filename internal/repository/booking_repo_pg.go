package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	// Create inserts booking unless one with the same issue key exists. On
	// conflict booking is overwritten with the stored row and created is false.
	Create(ctx context.Context, booking *domain.Booking) (created bool, err error)
	FindByLocator(ctx context.Context, locator string) (*domain.Booking, error)
	LatestForAddress(ctx context.Context, address string) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, address, issue_key, locator, source_iata, dest_iata, depart_at, offer, passengers, seats, gate,
	ticket_id, ticket_url, price_cents, currency, payment_status, payment_ref, timezone, created_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) (bool, error) {
	offer, err := json.Marshal(booking.Offer)
	if err != nil {
		return false, fmt.Errorf("marshal offer: %w", err)
	}
	if booking.Passengers == nil {
		booking.Passengers = []domain.Passenger{}
	}
	if booking.Seats == nil {
		booking.Seats = []string{}
	}
	passengers, err := json.Marshal(booking.Passengers)
	if err != nil {
		return false, fmt.Errorf("marshal passengers: %w", err)
	}

	err = r.db.QueryRow(ctx, `INSERT INTO bookings (user_id, address, issue_key, locator, source_iata, dest_iata, depart_at, offer,
		passengers, seats, gate, ticket_id, ticket_url, price_cents, currency, payment_status, payment_ref, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (issue_key) DO NOTHING
		RETURNING id, created_at`,
		nullableID(booking.UserID), booking.Address, booking.IssueKey, strings.ToUpper(booking.Locator), booking.SourceCode, booking.DestCode,
		booking.DepartAt, offer, passengers, booking.Seats, booking.Gate, booking.TicketID, booking.TicketURL,
		booking.PriceCents, booking.Currency, booking.PaymentStatus, booking.PaymentRef, booking.Timezone,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	existing, err := r.scanOne(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE issue_key=$1`, booking.IssueKey))
	if err != nil {
		return false, err
	}
	*booking = *existing
	return false, nil
}

func (r *PGBookingRepository) FindByLocator(ctx context.Context, locator string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE locator=$1 ORDER BY created_at DESC LIMIT 1`,
		strings.ToUpper(strings.TrimSpace(locator)))
	return r.scanOne(row)
}

func (r *PGBookingRepository) LatestForAddress(ctx context.Context, address string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE address=$1 ORDER BY created_at DESC LIMIT 1`, address)
	return r.scanOne(row)
}

func (r *PGBookingRepository) scanOne(row pgx.Row) (*domain.Booking, error) {
	var (
		b          domain.Booking
		userID     *int64
		offer      []byte
		passengers []byte
	)
	if err := row.Scan(&b.ID, &userID, &b.Address, &b.IssueKey, &b.Locator, &b.SourceCode, &b.DestCode, &b.DepartAt,
		&offer, &passengers, &b.Seats, &b.Gate, &b.TicketID, &b.TicketURL, &b.PriceCents, &b.Currency,
		&b.PaymentStatus, &b.PaymentRef, &b.Timezone, &b.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	if userID != nil {
		b.UserID = *userID
	}
	if len(offer) > 0 {
		if err := json.Unmarshal(offer, &b.Offer); err != nil {
			return nil, fmt.Errorf("decode offer: %w", err)
		}
	}
	if len(passengers) > 0 {
		if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
			return nil, fmt.Errorf("decode passengers: %w", err)
		}
	}
	return &b, nil
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

var _ BookingRepository = (*PGBookingRepository)(nil)
