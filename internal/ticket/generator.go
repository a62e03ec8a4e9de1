// Package ticket renders PDF e-tickets.
package ticket

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/normalize"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	locatorAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	locatorLength   = 6
	gateLetters     = "ABCDEFGH"
	maxGateNumber   = 25
	boardingLead    = 45 * time.Minute
)

var ticketNamespace = uuid.MustParse("6f1c8f0e-3a8e-4d0b-9a8e-5a4f2b1c7d10")

type BaseURLResolver interface {
	BaseURL(ctx context.Context) string
}

type Generator struct {
	dir     string
	brand   string
	baseURL BaseURLResolver
}

func NewGenerator(dir, brand string, baseURL BaseURLResolver) *Generator {
	if brand == "" {
		brand = "Flight Booking"
	}
	return &Generator{dir: dir, brand: brand, baseURL: baseURL}
}

// Generate writes the ticket PDF for req. Identifiers are derived from the
// issue key, so calling it again for the same key rewrites the same file with
// the same locator and gate.
func (g *Generator) Generate(ctx context.Context, req domain.IssueRequest) (domain.Ticket, error) {
	if req.IssueKey == "" {
		return domain.Ticket{}, fmt.Errorf("issue key is required")
	}

	t := domain.Ticket{
		DocumentID: DocumentID(req.IssueKey),
		Locator:    Locator(req.IssueKey),
		Gate:       Gate(req.IssueKey),
		Seats:      seatsFor(req.Passengers),
	}
	t.DocumentPath = filepath.Join(g.dir, t.DocumentID+".pdf")
	base := ""
	if g.baseURL != nil {
		base = strings.TrimRight(g.baseURL.BaseURL(ctx), "/")
	}
	t.DocumentURL = base + "/tickets/" + t.DocumentID + ".pdf"

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return domain.Ticket{}, fmt.Errorf("create tickets dir: %w", err)
	}
	if err := g.render(req, t); err != nil {
		return domain.Ticket{}, fmt.Errorf("render ticket %s: %w", t.DocumentID, err)
	}
	return t, nil
}

func (g *Generator) render(req domain.IssueRequest, t domain.Ticket) error {
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		loc = req.DepartureAt.Location()
	}
	departure := req.DepartureAt.In(loc)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("E-Ticket "+t.Locator, true)
	pdf.AddPage()

	pdf.SetFillColor(11, 95, 255)
	pdf.Rect(0, 0, 210, 40, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(25, 20, tr(g.brand))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(25, 30, "E-Ticket Itinerary / Receipt")

	png, err := qrcode.Encode(t.DocumentURL, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	qrOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", qrOpts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 172, 6, 28, 28, false, qrOpts, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(20, 55, "Passenger & Flight Details")

	y := 70.0
	line := func(label, value string, bold bool) {
		if value == "" {
			value = "-"
		}
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(20, y, label+":")
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.Text(60, y, tr(value))
		y += 8
	}

	primary := "WhatsApp User"
	if len(req.Passengers) > 0 && req.Passengers[0].Name != "" {
		primary = req.Passengers[0].Name
	}
	flight := req.Offer.FlightNo
	if req.Offer.Airline != "" {
		flight += " (" + req.Offer.Airline + ")"
	}

	line("Passenger", primary, true)
	line("Phone", req.Address, false)
	line("PNR", t.Locator, true)
	line("From", req.Origin, false)
	line("To", req.Destination, false)
	line("Flight", flight, false)
	line("Departure", departure.Format("02 Jan 2006, 03:04 PM"), false)
	line("Boarding", departure.Add(-boardingLead).Format("03:04 PM"), false)
	line("Gate", t.Gate, false)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(20, y, "Passengers")
	y += 8
	pdf.SetFont("Helvetica", "", 11)
	for i, p := range req.Passengers {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Passenger %d", i+1)
		}
		pdf.Text(20, y, tr(fmt.Sprintf("%d. %s - Seat %s", i+1, name, t.Seats[i])))
		y += 7
	}
	y += 2
	line("Duration", fmt.Sprintf("%d minutes", req.Offer.DurationMinutes), false)
	line("Fare", fmt.Sprintf("%s %d", req.Offer.Currency, req.Offer.Price), false)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.Text(20, 279, fmt.Sprintf("Ticket ID: %s  |  PNR: %s", t.DocumentID, t.Locator))
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(20, 284, "Please carry a valid photo ID. This is a system-generated ticket.")

	return pdf.OutputFileAndClose(t.DocumentPath)
}

// DocumentID is the file name stem for the ticket of issueKey.
func DocumentID(issueKey string) string {
	id := uuid.NewSHA1(ticketNamespace, []byte(issueKey))
	return strings.ReplaceAll(id.String(), "-", "")[:12]
}

// Locator derives the six-character booking reference. The alphabet leaves
// out 0, O, 1, I and L.
func Locator(issueKey string) string {
	sum := sha256.Sum256([]byte("locator:" + issueKey))
	b := make([]byte, locatorLength)
	for i := range b {
		b[i] = locatorAlphabet[int(sum[i])%len(locatorAlphabet)]
	}
	return string(b)
}

func Gate(issueKey string) string {
	sum := sha256.Sum256([]byte("gate:" + issueKey))
	return fmt.Sprintf("%c%d", gateLetters[int(sum[0])%len(gateLetters)], int(sum[1])%maxGateNumber+1)
}

// seatsFor keeps the passengers' seats and fills any gaps.
func seatsFor(passengers []domain.Passenger) []string {
	given := make([]string, 0, len(passengers))
	for _, p := range passengers {
		if p.Seat != "" {
			given = append(given, p.Seat)
		}
	}
	if len(given) == len(passengers) {
		out := make([]string, len(given))
		for i, s := range given {
			out[i] = strings.ToUpper(s)
		}
		return out
	}
	return normalize.ParseSeats(strings.Join(given, " "), len(passengers))
}
