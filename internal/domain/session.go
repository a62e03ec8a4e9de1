package domain

import "time"

type Step string

const (
	StepSource          Step = "source"
	StepDestination     Step = "destination"
	StepDate            Step = "date"
	StepTime            Step = "time"
	StepFlights         Step = "flights"
	StepPassengersCount Step = "passengers_count"
	StepDetails         Step = "details"
	StepSeats           Step = "seats"
	StepConfirm         Step = "confirm"
	// StepPayment is kept for sessions written before issuance moved to
	// confirm. It behaves exactly like StepConfirm.
	StepPayment Step = "payment"
)

func (s Step) Valid() bool {
	switch s {
	case StepSource, StepDestination, StepDate, StepTime, StepFlights,
		StepPassengersCount, StepDetails, StepSeats, StepConfirm, StepPayment:
		return true
	}
	return false
}

type Passenger struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Seat  string `json:"seat,omitempty"`
}

// Session is the state of one in-progress conversation, keyed by the sender
// address. The zero value is a fresh conversation at the source step.
type Session struct {
	Step             Step        `json:"step"`
	Timezone         string      `json:"timezone,omitempty"`
	SourcePrompted   bool        `json:"source_prompted,omitempty"`
	SourceCity       string      `json:"source_city,omitempty"`
	SourceCode       string      `json:"source_iata,omitempty"`
	DestCity         string      `json:"dest_city,omitempty"`
	DestCode         string      `json:"dest_iata,omitempty"`
	TravelDate       string      `json:"travel_date_iso,omitempty"`
	TimeChoices      []string    `json:"time_choices,omitempty"`
	DepartureAt      *time.Time  `json:"travel_dt_iso,omitempty"`
	PresentedFlights []Offer     `json:"presented_flights,omitempty"`
	SelectedFlightID string      `json:"selected_flight_id,omitempty"`
	PassengersTotal  int         `json:"passengers_total,omitempty"`
	PassengerIndex   int         `json:"passenger_index,omitempty"`
	Passengers       []Passenger `json:"passengers,omitempty"`
	AssignedSeats    []string    `json:"assigned_seats,omitempty"`
	IssueKey         string      `json:"issue_key,omitempty"`
	Version          int64       `json:"version"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Empty reports whether the session carries no booking progress at all.
func (s Session) Empty() bool {
	return s.SourceCode == "" && s.DestCode == "" && s.SelectedFlightID == "" &&
		len(s.PresentedFlights) == 0 && len(s.Passengers) == 0
}

// SelectedOffer resolves SelectedFlightID against PresentedFlights.
func (s Session) SelectedOffer() (Offer, bool) {
	if s.SelectedFlightID == "" {
		return Offer{}, false
	}
	for _, f := range s.PresentedFlights {
		if f.ID == s.SelectedFlightID {
			return f, true
		}
	}
	return Offer{}, false
}

// Sanitize brings a freshly decoded session back within its invariants.
// Missing or unknown fields default to the first step rather than failing.
func (s Session) Sanitize() Session {
	if !s.Step.Valid() {
		s.Step = StepSource
	}
	if s.PassengersTotal < 0 {
		s.PassengersTotal = 0
	}
	if s.PassengerIndex < 0 {
		s.PassengerIndex = 0
	}
	if len(s.Passengers) > s.PassengersTotal {
		s.Passengers = s.Passengers[:s.PassengersTotal]
	}
	if len(s.AssignedSeats) > s.PassengersTotal {
		s.AssignedSeats = s.AssignedSeats[:s.PassengersTotal]
	}
	return s
}

// Clone returns a deep copy so a step can mutate freely without touching the
// value it was handed.
func (s Session) Clone() Session {
	out := s
	if s.TimeChoices != nil {
		out.TimeChoices = append([]string(nil), s.TimeChoices...)
	}
	if s.DepartureAt != nil {
		t := *s.DepartureAt
		out.DepartureAt = &t
	}
	if s.PresentedFlights != nil {
		out.PresentedFlights = append([]Offer(nil), s.PresentedFlights...)
	}
	if s.Passengers != nil {
		out.Passengers = append([]Passenger(nil), s.Passengers...)
	}
	if s.AssignedSeats != nil {
		out.AssignedSeats = append([]string(nil), s.AssignedSeats...)
	}
	return out
}
