// Package conversation implements the booking dialogue as a pure step
// function. Machine never writes to storage or calls the issuance side
// effect; it returns what should happen and the caller carries it out.
package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/normalize"
	"github.com/google/uuid"
)

const (
	MinPassengers = 1
	MaxPassengers = 4

	dateLayout       = "2006-01-02"
	defaultPassenger = "WhatsApp User"
)

type CityResolver interface {
	Resolve(text string) (string, bool)
}

type FlightSearcher interface {
	Search(ctx context.Context, origin, destination string, departure time.Time) ([]domain.Offer, error)
}

// Action tells the caller what to do with Result.Session.
type Action int

const (
	ActionNone Action = iota
	ActionSave
	ActionClear
)

func (a Action) String() string {
	switch a {
	case ActionSave:
		return "save"
	case ActionClear:
		return "clear"
	}
	return "none"
}

// Lookup asks the caller to answer from booking history instead of the
// session.
type Lookup struct {
	Guard   Guard
	Locator string
}

type Result struct {
	Session domain.Session
	Action  Action
	Reply   Reply
	// Intent is set when the user confirmed and a booking must be issued.
	// Pass the outcome to Machine.Resolve before acting on the result.
	Intent *domain.IssueRequest
	Lookup *Lookup
}

type Settings struct {
	Location   *time.Location
	MinAdvance time.Duration
	Blackouts  map[string]struct{}
}

type Machine struct {
	cities   CityResolver
	flights  FlightSearcher
	settings Settings
	now      func() time.Time
	newID    func() string
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Machine) {
		if newID != nil {
			m.newID = newID
		}
	}
}

func NewMachine(cities CityResolver, flights FlightSearcher, settings Settings, opts ...Option) *Machine {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	m := &Machine{
		cities:   cities,
		flights:  flights,
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step advances sess by one inbound message from address.
func (m *Machine) Step(ctx context.Context, address string, sess domain.Session, body string) Result {
	body = strings.TrimSpace(body)
	sess = sess.Sanitize().Clone()
	if sess.Timezone == "" {
		sess.Timezone = m.settings.Location.String()
	}

	guard, locator := Classify(sess.Step, body)
	switch guard {
	case GuardLocatorLookup, GuardLatestTicket:
		return Result{Session: sess, Lookup: &Lookup{Guard: guard, Locator: locator}}
	case GuardRestart:
		return Result{Session: domain.Session{Step: domain.StepSource}, Action: ActionClear, Reply: text(SourcePrompt())}
	case GuardConfirm:
		return m.confirm(address, sess, body)
	}

	switch sess.Step {
	case domain.StepSource:
		return m.source(sess, body)
	case domain.StepDestination:
		return m.destination(sess, body)
	case domain.StepDate:
		return m.date(ctx, sess, body)
	case domain.StepTime:
		return m.timeOfDay(ctx, sess, body)
	case domain.StepFlights:
		return m.pickFlight(sess, body)
	case domain.StepPassengersCount:
		return m.passengerCount(sess, body)
	case domain.StepDetails:
		return m.details(sess, body)
	case domain.StepSeats:
		return m.seats(sess, body)
	case domain.StepConfirm:
		return m.confirm(address, sess, body)
	}
	return Result{Session: sess, Reply: text(ReplyFallback)}
}

// Resolve completes a confirm step with the outcome of issuance. On success
// the session is cleared; on failure it stays in confirm so the user can
// retry with the same issue key.
func (m *Machine) Resolve(res Result, ticket domain.Ticket, err error) Result {
	if res.Intent == nil {
		return res
	}
	if err != nil {
		sess := res.Session
		sess.Step = domain.StepConfirm
		return Result{Session: sess, Action: ActionSave, Reply: text(ReplyIssueFailed)}
	}
	return Result{
		Session: domain.Session{Step: domain.StepSource},
		Action:  ActionClear,
		Reply:   Reply{Text: TicketIssued(ticket), MediaURL: ticket.DocumentURL},
	}
}

func (m *Machine) source(sess domain.Session, body string) Result {
	if body == "" {
		if sess.SourcePrompted {
			return Result{Session: sess, Reply: text(SourcePrompt())}
		}
		sess.SourcePrompted = true
		return Result{Session: sess, Action: ActionSave, Reply: text(SourcePrompt())}
	}

	city, other := menuChoice(SourceMenu, body)
	if other {
		return Result{Session: sess, Reply: text(ReplyAskSourceCity)}
	}
	code, ok := m.cities.Resolve(city)
	if !ok {
		return Result{Session: sess, Reply: text(ReplyUnknownSource)}
	}

	sess.SourceCity, sess.SourceCode = city, code
	sess.Step = domain.StepDestination
	return Result{Session: sess, Action: ActionSave, Reply: text(DestPrompt())}
}

func (m *Machine) destination(sess domain.Session, body string) Result {
	city, other := menuChoice(DestMenu, body)
	if other {
		return Result{Session: sess, Reply: text(ReplyAskDestCity)}
	}
	if city == "" {
		return Result{Session: sess, Reply: text(DestPrompt())}
	}
	code, ok := m.cities.Resolve(city)
	if !ok {
		return Result{Session: sess, Reply: text(ReplyUnknownDest)}
	}
	if code == sess.SourceCode {
		return Result{Session: sess, Reply: text(ReplySameCity)}
	}

	sess.DestCity, sess.DestCode = city, code
	sess.Step = domain.StepDate
	return Result{Session: sess, Action: ActionSave, Reply: text(DatePrompt(m.localNow(sess)))}
}

func (m *Machine) date(ctx context.Context, sess domain.Session, body string) Result {
	loc := m.location(sess)
	now := m.now().In(loc)

	in, ok := normalize.ParseDate(body, loc)
	if !ok {
		return Result{Session: sess, Reply: text(InvalidDate(now))}
	}

	if !in.HasTime {
		sess.TravelDate = in.Date.Format(dateLayout)
		sess.TimeChoices = normalize.TimeChoices(in.Date, now, m.settings.MinAdvance)
		sess.DepartureAt = nil
		sess.Step = domain.StepTime
		if len(sess.TimeChoices) == 0 {
			return Result{Session: sess, Action: ActionSave, Reply: text(ReplyNoPresetTimes)}
		}
		return Result{Session: sess, Action: ActionSave, Reply: text(TimeMenu(sess.TimeChoices))}
	}

	departure := in.Departure()
	if reply, ok := m.validateDeparture(departure, now); !ok {
		return Result{Session: sess, Reply: text(reply)}
	}
	return m.searchFlights(ctx, sess, departure)
}

func (m *Machine) timeOfDay(ctx context.Context, sess domain.Session, body string) Result {
	loc := m.location(sess)
	now := m.now().In(loc)

	day, err := time.ParseInLocation(dateLayout, sess.TravelDate, loc)
	if err != nil {
		sess.Step = domain.StepDate
		sess.TimeChoices = nil
		return Result{Session: sess, Action: ActionSave, Reply: text(DatePrompt(now))}
	}

	clock, ok := m.pickTime(sess.TimeChoices, body)
	if !ok {
		return Result{Session: sess, Reply: text(ReplyInvalidTime)}
	}

	departure := normalize.DateInput{Date: day}.At(clock)
	if reply, ok := m.validateDeparture(departure, now); !ok {
		return Result{Session: sess, Reply: text(reply)}
	}
	return m.searchFlights(ctx, sess, departure)
}

// pickTime accepts a 1-based index into choices or a free-text clock.
func (m *Machine) pickTime(choices []string, body string) (normalize.Clock, bool) {
	if n, err := strconv.Atoi(body); err == nil && n >= 1 && n <= len(choices) {
		if c, ok := normalize.ParseClock(choices[n-1]); ok {
			return c, true
		}
	}
	return normalize.ParseClock(body)
}

func (m *Machine) validateDeparture(departure, now time.Time) (string, bool) {
	if _, blocked := m.settings.Blackouts[departure.Format(dateLayout)]; blocked {
		return ReplyBlackout, false
	}
	if departure.Before(now.Add(m.settings.MinAdvance)) {
		return MinAdvance(m.settings.MinAdvance), false
	}
	return "", true
}

// searchFlights presents offers for departure. A failed or empty search
// leaves the session where it was.
func (m *Machine) searchFlights(ctx context.Context, sess domain.Session, departure time.Time) Result {
	offers, err := m.flights.Search(ctx, sess.SourceCode, sess.DestCode, departure)
	if err != nil || len(offers) == 0 {
		return Result{Session: sess, Reply: text(ReplyNoFlights)}
	}

	dep := departure
	sess.DepartureAt = &dep
	sess.TravelDate = departure.Format(dateLayout)
	sess.TimeChoices = nil
	sess.PresentedFlights = offers
	sess.SelectedFlightID = ""
	sess.Step = domain.StepFlights
	return Result{Session: sess, Action: ActionSave, Reply: text(FlightList(offers, m.location(sess)))}
}

func (m *Machine) pickFlight(sess domain.Session, body string) Result {
	count := len(sess.PresentedFlights)
	if count == 0 {
		return Result{Session: sess, Reply: text(ReplySessionExpired)}
	}
	n, err := strconv.Atoi(body)
	if err != nil {
		return Result{Session: sess, Reply: text(FlightNaN(count))}
	}
	if n < 1 || n > count {
		return Result{Session: sess, Reply: text(FlightOutOfRange(count))}
	}

	sess.SelectedFlightID = sess.PresentedFlights[n-1].ID
	sess.Step = domain.StepPassengersCount
	return Result{Session: sess, Action: ActionSave, Reply: text(ReplyPassengersPrompt)}
}

func (m *Machine) passengerCount(sess domain.Session, body string) Result {
	n, err := strconv.Atoi(body)
	if err != nil {
		return Result{Session: sess, Reply: text(ReplyPassengersNaN)}
	}
	if n < MinPassengers || n > MaxPassengers {
		return Result{Session: sess, Reply: text(ReplyPassengersRange)}
	}

	sess.PassengersTotal = n
	sess.PassengerIndex = 1
	sess.Passengers = []domain.Passenger{}
	sess.AssignedSeats = nil
	sess.Step = domain.StepDetails
	return Result{Session: sess, Action: ActionSave, Reply: text(PassengerPrompt(1))}
}

func (m *Machine) details(sess domain.Session, body string) Result {
	if sess.PassengersTotal < MinPassengers {
		sess.Step = domain.StepPassengersCount
		return Result{Session: sess, Action: ActionSave, Reply: text(ReplyPassengersPrompt)}
	}

	name, email, err := normalize.ParsePassenger(body)
	switch {
	case errors.Is(err, normalize.ErrMissingName):
		return Result{Session: sess, Reply: text(ReplyMissingName)}
	case err != nil:
		return Result{Session: sess, Reply: text(ReplyInvalidEmail)}
	}

	sess.Passengers = append(sess.Passengers, domain.Passenger{Name: name, Email: email})
	if len(sess.Passengers) < sess.PassengersTotal {
		sess.PassengerIndex = len(sess.Passengers) + 1
		return Result{Session: sess, Action: ActionSave, Reply: text(PassengerPrompt(sess.PassengerIndex))}
	}

	sess.PassengerIndex = sess.PassengersTotal
	sess.Step = domain.StepSeats
	return Result{Session: sess, Action: ActionSave, Reply: text(ReplySeatsPrompt)}
}

func (m *Machine) seats(sess domain.Session, body string) Result {
	sess.AssignedSeats = normalize.ParseSeats(body, sess.PassengersTotal)
	sess.Step = domain.StepConfirm
	if sess.IssueKey == "" {
		sess.IssueKey = m.newID()
	}
	return Result{Session: sess, Action: ActionSave, Reply: text(SeatsSet(sess.AssignedSeats))}
}

func (m *Machine) confirm(address string, sess domain.Session, body string) Result {
	if !strings.EqualFold(body, "confirm") {
		return Result{Session: sess, Reply: text(ReplyConfirmPrompt)}
	}

	offer, ok := sess.SelectedOffer()
	if !ok {
		sess.Step = domain.StepFlights
		sess.SelectedFlightID = ""
		return Result{Session: sess, Action: ActionSave, Reply: text(ReplySessionExpired)}
	}

	sess.Step = domain.StepConfirm
	if sess.IssueKey == "" {
		sess.IssueKey = m.newID()
	}
	departure := offer.DepartAt
	if sess.DepartureAt != nil {
		departure = *sess.DepartureAt
	}

	return Result{
		Session: sess,
		Intent: &domain.IssueRequest{
			Address:     address,
			IssueKey:    sess.IssueKey,
			Passengers:  seatPassengers(sess),
			Offer:       offer,
			Origin:      sess.SourceCode,
			Destination: sess.DestCode,
			DepartureAt: departure,
			Timezone:    sess.Timezone,
		},
	}
}

// seatPassengers merges assigned seats into the passenger list, filling any
// gap the way the seats step would.
func seatPassengers(sess domain.Session) []domain.Passenger {
	pax := append([]domain.Passenger(nil), sess.Passengers...)
	if len(pax) == 0 {
		pax = []domain.Passenger{{Name: defaultPassenger}}
	}
	seats := normalize.ParseSeats(strings.Join(sess.AssignedSeats, " "), len(pax))
	for i := range pax {
		pax[i].Seat = seats[i]
	}
	return pax
}

// menuChoice maps a numeric reply onto items. The last item means "ask for
// the city name" and is reported through other.
func menuChoice(items []string, body string) (city string, other bool) {
	if n, err := strconv.Atoi(body); err == nil && n >= 1 && n <= len(items) {
		if n == len(items) {
			return "", true
		}
		return items[n-1], false
	}
	return body, false
}

func (m *Machine) location(sess domain.Session) *time.Location {
	if sess.Timezone != "" {
		if loc, err := time.LoadLocation(sess.Timezone); err == nil {
			return loc
		}
	}
	return m.settings.Location
}

func (m *Machine) localNow(sess domain.Session) time.Time {
	return m.now().In(m.location(sess))
}
