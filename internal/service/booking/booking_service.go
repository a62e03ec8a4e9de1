package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/kafka"
	"github.com/Domenick1991/wabooking/internal/normalize"
	"github.com/Domenick1991/wabooking/internal/payment"
	"github.com/Domenick1991/wabooking/internal/repository"
	"github.com/Domenick1991/wabooking/internal/ticket"
)

var (
	// ErrIssuanceInProgress is returned when another request holds the lock
	// for the same issue key.
	ErrIssuanceInProgress = errors.New("issuance already in progress")
	// ErrNoPendingBooking means a payment arrived for an address whose
	// session holds no route to book.
	ErrNoPendingBooking = errors.New("no pending booking for address")
)

type BookingUseCase interface {
	Issue(ctx context.Context, req domain.IssueRequest) (domain.Ticket, error)
	FindByLocator(ctx context.Context, locator string) (*domain.Booking, error)
	LatestForAddress(ctx context.Context, address string) (*domain.Booking, error)
	ReconcilePayment(ctx context.Context, completed payment.Completed) (*domain.Booking, error)
}

type Cache interface {
	AcquireIssueLock(ctx context.Context, issueKey string, ttl time.Duration) (bool, error)
	ReleaseIssueLock(ctx context.Context, issueKey string) error
}

type TicketGenerator interface {
	Generate(ctx context.Context, req domain.IssueRequest) (domain.Ticket, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SessionStore interface {
	Get(ctx context.Context, address string) domain.Session
	ClearIfVersion(ctx context.Context, address string, version int64) bool
}

type BookingService struct {
	bookings           repository.BookingRepository
	users              repository.UserRepository
	tickets            TicketGenerator
	cache              Cache
	producer           Producer
	sessions           SessionStore
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	locator            func(issueKey string) string
	logger             *slog.Logger
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache, lockTTL time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
		s.lockTTL = lockTTL
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithSessions(sessions SessionStore) BookingServiceOption {
	return func(s *BookingService) {
		s.sessions = sessions
	}
}

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	tickets TicketGenerator,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		users:    users,
		tickets:  tickets,
		lockTTL:  30 * time.Second,
		locator:  ticket.Locator,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Issue renders the ticket and stores the booking. It is idempotent on
// req.IssueKey: a retry regenerates the same document and returns it without
// writing a second booking.
func (s *BookingService) Issue(ctx context.Context, req domain.IssueRequest) (domain.Ticket, error) {
	if req.IssueKey == "" {
		return domain.Ticket{}, errors.New("issue key is required")
	}
	if len(req.Passengers) == 0 {
		return domain.Ticket{}, errors.New("at least one passenger is required")
	}

	if s.cache != nil {
		ok, err := s.cache.AcquireIssueLock(ctx, req.IssueKey, s.lockTTL)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "issue lock unavailable, continuing without it",
				slog.String("issue_key", req.IssueKey),
				slog.String("err", err.Error()),
			)
		case !ok:
			return domain.Ticket{}, ErrIssuanceInProgress
		default:
			defer func() {
				if err := s.cache.ReleaseIssueLock(context.WithoutCancel(ctx), req.IssueKey); err != nil {
					s.logger.WarnContext(ctx, "release issue lock failed", slog.String("err", err.Error()))
				}
			}()
		}
	}

	t, err := s.tickets.Generate(ctx, req)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("generate ticket: %w", err)
	}

	userID, err := s.ensureUser(ctx, req.Address, req.Passengers[0].Email)
	if err != nil {
		return domain.Ticket{}, err
	}

	booking := &domain.Booking{
		UserID:        userID,
		Address:       req.Address,
		IssueKey:      req.IssueKey,
		Locator:       t.Locator,
		SourceCode:    req.Origin,
		DestCode:      req.Destination,
		DepartAt:      req.DepartureAt,
		Offer:         req.Offer,
		Passengers:    req.Passengers,
		Seats:         t.Seats,
		Gate:          t.Gate,
		TicketID:      t.DocumentID,
		TicketURL:     t.DocumentURL,
		PriceCents:    req.Offer.Price * 100,
		Currency:      req.Offer.Currency,
		PaymentStatus: domain.PaymentStatusIssued,
		Timezone:      req.Timezone,
	}
	created, err := s.bookings.Create(ctx, booking)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("store booking: %w", err)
	}
	if !created {
		s.logger.InfoContext(ctx, "booking already stored", slog.String("issue_key", req.IssueKey), slog.String("locator", booking.Locator))
		return t, nil
	}

	if err := s.publish(ctx, kafka.EventBookingIssued, booking, t.DocumentPath); err != nil {
		s.logger.WarnContext(ctx, "publish booking_issued failed", slog.String("locator", booking.Locator), slog.String("err", err.Error()))
	}
	s.logger.InfoContext(ctx, "booking issued", slog.String("locator", booking.Locator), slog.String("address", req.Address))
	return t, nil
}

func (s *BookingService) FindByLocator(ctx context.Context, locator string) (*domain.Booking, error) {
	locator = strings.ToUpper(strings.TrimSpace(locator))
	if locator == "" {
		return nil, repository.ErrNotFound
	}
	return s.bookings.FindByLocator(ctx, locator)
}

func (s *BookingService) LatestForAddress(ctx context.Context, address string) (*domain.Booking, error) {
	return s.bookings.LatestForAddress(ctx, address)
}

// ReconcilePayment records a paid booking from the session of the paying
// address. The session is cleared only if nobody saved it since it was read.
func (s *BookingService) ReconcilePayment(ctx context.Context, completed payment.Completed) (*domain.Booking, error) {
	if s.sessions == nil {
		return nil, errors.New("session store is not configured")
	}
	sess := s.sessions.Get(ctx, completed.Address)
	if sess.SourceCode == "" || sess.DestCode == "" || sess.DepartureAt == nil {
		return nil, ErrNoPendingBooking
	}

	offer, ok := sess.SelectedOffer()
	if !ok {
		if len(sess.PresentedFlights) == 0 {
			return nil, ErrNoPendingBooking
		}
		offer = sess.PresentedFlights[0]
	}

	email := ""
	if len(sess.Passengers) > 0 {
		email = sess.Passengers[0].Email
	}
	userID, err := s.ensureUser(ctx, completed.Address, email)
	if err != nil {
		return nil, err
	}

	issueKey := "payment:" + completed.CheckoutID
	priceCents := completed.AmountTotal
	if priceCents == 0 {
		priceCents = offer.Price * 100
	}
	currency := completed.Currency
	if currency == "" {
		currency = "INR"
	}

	booking := &domain.Booking{
		UserID:        userID,
		Address:       completed.Address,
		IssueKey:      issueKey,
		Locator:       s.locator(issueKey),
		SourceCode:    sess.SourceCode,
		DestCode:      sess.DestCode,
		DepartAt:      *sess.DepartureAt,
		Offer:         offer,
		Passengers:    sess.Passengers,
		Seats:         normalize.ParseSeats(strings.Join(sess.AssignedSeats, " "), len(sess.Passengers)),
		PriceCents:    priceCents,
		Currency:      currency,
		PaymentStatus: domain.PaymentStatusPaid,
		PaymentRef:    completed.CheckoutID,
		Timezone:      sess.Timezone,
	}
	created, err := s.bookings.Create(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("store paid booking: %w", err)
	}
	if created {
		if err := s.publish(ctx, kafka.EventBookingPaid, booking, ""); err != nil {
			s.logger.WarnContext(ctx, "publish booking_paid failed", slog.String("locator", booking.Locator), slog.String("err", err.Error()))
		}
	}

	if !s.sessions.ClearIfVersion(ctx, completed.Address, sess.Version) {
		s.logger.InfoContext(ctx, "session changed since payment read, keeping it",
			slog.String("address", completed.Address),
			slog.Int64("version", sess.Version),
		)
	}
	return booking, nil
}

// ensureUser returns 0 without a user repository.
func (s *BookingService) ensureUser(ctx context.Context, address, email string) (int64, error) {
	if s.users == nil {
		return 0, nil
	}
	user, err := s.users.Ensure(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("ensure user: %w", err)
	}
	if email != "" && email != user.Email {
		if err := s.users.UpdateEmail(ctx, user.ID, email); err != nil {
			s.logger.WarnContext(ctx, "update user email failed", slog.Int64("user_id", user.ID), slog.String("err", err.Error()))
		}
	}
	return user.ID, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, ticketPath string) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.NewBookingEvent(eventType, booking, ticketPath)
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Locator, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.Locator, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
