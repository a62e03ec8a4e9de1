package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusIssued PaymentStatus = "ISSUED"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// Booking is the durable record written once per successful issuance or
// completed payment.
type Booking struct {
	ID            int64
	UserID        int64
	Address       string
	IssueKey      string
	Locator       string
	SourceCode    string
	DestCode      string
	DepartAt      time.Time
	Offer         Offer
	Passengers    []Passenger
	Seats         []string
	Gate          string
	TicketID      string
	TicketURL     string
	PriceCents    int64
	Currency      string
	PaymentStatus PaymentStatus
	PaymentRef    string
	Timezone      string
	CreatedAt     time.Time
}

// IssueRequest is the single side effect the conversation asks for when the
// user confirms. It carries everything the document generator and the durable
// store need; nothing is read back from the session.
type IssueRequest struct {
	Address     string      `json:"address"`
	IssueKey    string      `json:"issue_key"`
	Passengers  []Passenger `json:"passengers"`
	Offer       Offer       `json:"offer"`
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	DepartureAt time.Time   `json:"departure_at"`
	Timezone    string      `json:"timezone"`
}

// Ticket is what the document generator returns for an IssueRequest.
type Ticket struct {
	DocumentID   string
	DocumentPath string
	DocumentURL  string
	Locator      string
	Seats        []string
	Gate         string
}

type User struct {
	ID        int64
	Address   string
	Email     string
	CreatedAt time.Time
}

type MessageDirection string

const (
	MessageInbound  MessageDirection = "in"
	MessageOutbound MessageDirection = "out"
)

type MessageLog struct {
	ID        int64
	Address   string
	Direction MessageDirection
	Body      string
	CreatedAt time.Time
}
