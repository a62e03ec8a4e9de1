// Package email sends booking confirmations through SendGrid.
package email

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/wabooking/internal/kafka"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNoRecipient means the event carries no email address to write to.
var ErrNoRecipient = errors.New("booking event has no email")

type Client interface {
	SendWithContext(ctx context.Context, msg *mail.SGMailV3) (*rest.Response, error)
}

type Sender struct {
	client   Client
	from     *mail.Email
	logger   *slog.Logger
	readFile func(string) ([]byte, error)
}

// NewSender returns a sender that only logs when apiKey is empty.
func NewSender(apiKey, fromEmail, fromName string, logger *slog.Logger) *Sender {
	var client Client
	if apiKey != "" {
		client = sendgrid.NewSendClient(apiKey)
	}
	return NewSenderWithClient(client, fromEmail, fromName, logger)
}

func NewSenderWithClient(client Client, fromEmail, fromName string, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		client:   client,
		from:     mail.NewEmail(fromName, fromEmail),
		logger:   logger,
		readFile: os.ReadFile,
	}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return ErrNoRecipient
	}
	if s.client == nil {
		s.logger.InfoContext(ctx, "email disabled, skipping",
			slog.String("to", event.Email),
			slog.String("type", event.Type),
			slog.String("locator", event.Locator),
		)
		return nil
	}

	msg := s.Message(event)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	s.logger.InfoContext(ctx, "email sent", slog.String("to", event.Email), slog.String("locator", event.Locator))
	return nil
}

// Message builds the confirmation mail. The ticket PDF is attached when the
// worker can read it from the shared tickets directory.
func (s *Sender) Message(event kafka.BookingEvent) *mail.SGMailV3 {
	to := mail.NewEmail(event.PassengerName, event.Email)
	subject := "Flight Booking Confirmed"
	if event.Locator != "" {
		subject += " - PNR " + event.Locator
	}
	msg := mail.NewSingleEmail(s.from, subject, to, plainBody(event), htmlBody(event))

	if event.TicketPath != "" {
		if data, err := s.readFile(event.TicketPath); err == nil {
			a := mail.NewAttachment()
			a.SetContent(base64.StdEncoding.EncodeToString(data))
			a.SetType("application/pdf")
			a.SetFilename(filepath.Base(event.TicketPath))
			a.SetDisposition("attachment")
			msg.AddAttachment(a)
		}
	}
	return msg
}

func departure(event kafka.BookingEvent) string {
	at := event.DepartAt
	if loc, err := time.LoadLocation(event.Timezone); err == nil {
		at = at.In(loc)
	}
	return at.Format("02 Jan 2006, 03:04 PM")
}

func plainBody(event kafka.BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your flight %s -> %s on %s is confirmed.\n", event.Origin, event.Destination, departure(event))
	if event.Locator != "" {
		fmt.Fprintf(&b, "PNR: %s\n", event.Locator)
	}
	if event.FlightNo != "" {
		fmt.Fprintf(&b, "Flight: %s\n", event.FlightNo)
	}
	if len(event.Seats) > 0 {
		fmt.Fprintf(&b, "Seats: %s\n", strings.Join(event.Seats, ", "))
	}
	if event.TicketURL != "" {
		fmt.Fprintf(&b, "Ticket: %s\n", event.TicketURL)
	}
	return b.String()
}

func htmlBody(event kafka.BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Your flight %s -&gt; %s on %s is confirmed.</p>",
		html.EscapeString(event.Origin), html.EscapeString(event.Destination), html.EscapeString(departure(event)))
	if event.Locator != "" {
		fmt.Fprintf(&b, "<p>PNR: <strong>%s</strong></p>", html.EscapeString(event.Locator))
	}
	if event.TicketURL != "" {
		fmt.Fprintf(&b, `<p><a href="%s">Download your e-ticket</a></p>`, html.EscapeString(event.TicketURL))
	}
	return b.String()
}
