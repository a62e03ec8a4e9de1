package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/normalize"
)

// Reply is the single outbound message produced for one inbound message.
type Reply struct {
	Text     string
	MediaURL string
}

func text(s string) Reply {
	return Reply{Text: s}
}

var (
	SourceMenu = []string{"Mumbai", "Delhi", "Bengaluru", "Other"}
	DestMenu   = []string{"Delhi", "Hyderabad", "Goa", "Other"}
)

const (
	ReplyAskSourceCity    = "Please enter your source city (e.g., Mumbai)"
	ReplyAskDestCity      = "Please enter your destination city (e.g., Delhi)"
	ReplyUnknownSource    = "I couldn't recognize that city. Try again (e.g., Mumbai)"
	ReplyUnknownDest      = "I couldn't recognize that city. Try again (e.g., Delhi)"
	ReplySameCity         = "Destination must be different from source. Please enter another destination."
	ReplyNoPresetTimes    = "All preset times have passed for that date. Reply with a custom time in HH:MM (24h) or 9am/9pm."
	ReplyBlackout         = "Selected date is unavailable. Please choose another date."
	ReplyInvalidTime      = "Invalid time. Reply with a number from the list or HH:MM (24h) or 9am/9pm."
	ReplyNoFlights        = "No flights are available for that time right now. Please try another date or time."
	ReplyPassengersPrompt = "How many passengers? Reply with a number 1-4"
	ReplyPassengersNaN    = "Please reply with a number 1-4 for passengers."
	ReplyPassengersRange  = "Please reply with a number between 1 and 4."
	ReplyMissingName      = "Please provide passenger name, e.g., John Doe, john@example.com"
	ReplyInvalidEmail     = "Please include a valid email as well (e.g., John Doe, john@example.com)"
	ReplySeatsPrompt      = "Seat selection: reply 'auto' or provide seats separated by space (e.g., 12A 12B). Rows 5-30, seats A-F."
	ReplyConfirmPrompt    = "Please reply 'confirm' to generate your ticket PDF, or 'Restart' to start over."
	ReplySessionExpired   = "Session expired. Please pick a flight again: reply 'Restart' to start over."
	ReplyIssueFailed      = "Could not generate ticket right now. Please try again in a moment or reply 'Restart'."
	ReplyPNRNotFound      = "PNR not found."
	ReplyNoTicket         = "No ticket found yet. Reply 'Restart' to book."
	ReplyFallback         = "I didn't get that. Reply 'Restart' to start over."
)

// SourcePrompt is the first message of every conversation.
func SourcePrompt() string {
	return "Where are you flying from?\n" + menu(SourceMenu)
}

func DestPrompt() string {
	return "Where are you flying to?\n" + menu(DestMenu)
}

func DatePrompt(now time.Time) string {
	return "Please enter your travel date (YYYY-MM-DD or DD/MM/YYYY), optionally time (HH:MM or 9am).\n" +
		"Example: 2025-09-03 09:30\n" +
		"It must be a future date.\n\n" +
		normalize.ThreeMonthCalendar(now)
}

func InvalidDate(now time.Time) string {
	return "Invalid date. Please enter YYYY-MM-DD (optional time HH:MM).\n\n" + normalize.ThreeMonthCalendar(now)
}

func TimeMenu(choices []string) string {
	return "Select a time or reply a custom time (HH:MM):\n" + menu(choices)
}

func MinAdvance(d time.Duration) string {
	return fmt.Sprintf("Please choose a time at least %d hours from now.", int(d.Hours()))
}

// FlightList renders offers with local departure and arrival times.
func FlightList(offers []domain.Offer, loc *time.Location) string {
	lines := make([]string, 0, len(offers)+1)
	for i, o := range offers {
		lines = append(lines, fmt.Sprintf("%d) %s %s-%s, %dm, %s %d",
			i+1,
			o.FlightNo,
			o.DepartAt.In(loc).Format("15:04"),
			o.ArriveAt.In(loc).Format("15:04"),
			o.DurationMinutes,
			o.Currency,
			o.Price,
		))
	}
	lines = append(lines, fmt.Sprintf("Reply with %s to select a flight.", choiceRange(len(offers))))
	return strings.Join(lines, "\n")
}

func FlightNaN(n int) string {
	return fmt.Sprintf("Please reply with %s to pick a flight.", choiceRange(n))
}

func FlightOutOfRange(n int) string {
	return fmt.Sprintf("Invalid option. Reply with %s.", choiceRange(n))
}

func PassengerPrompt(index int) string {
	return fmt.Sprintf("Passenger %d - enter full name and email (e.g., John Doe, john@example.com)", index)
}

func SeatsSet(seats []string) string {
	return fmt.Sprintf("Seats set: %s. Reply 'confirm' to generate your ticket PDF, or 'Restart' to start over.", strings.Join(seats, " "))
}

func TicketIssued(t domain.Ticket) string {
	return fmt.Sprintf("Ticket generated ✅ (PNR: %s, Seats: %s, Gate: %s)\nDownload: %s",
		t.Locator, strings.Join(t.Seats, ", "), t.Gate, t.DocumentURL)
}

// TicketNotification is the proactive message sent with the PDF attached.
func TicketNotification(t domain.Ticket) string {
	return fmt.Sprintf("Your flight ticket is ready. PNR: %s • Seats: %s • Gate: %s\nDownload: %s",
		t.Locator, strings.Join(t.Seats, ", "), t.Gate, t.DocumentURL)
}

func LocatorFound(locator, url string) string {
	return fmt.Sprintf("PNR %s: %s", locator, url)
}

func LatestTicket(url string) string {
	return "Your latest ticket: " + url
}

func menu(items []string) string {
	labels := make([]string, 0, len(items))
	for i, item := range items {
		labels = append(labels, fmt.Sprintf("%d) %s", i+1, item))
	}
	return strings.Join(labels, "  ")
}

// choiceRange renders "1", "1 or 2", "1, 2, or 3", ... for n options.
func choiceRange(n int) string {
	switch {
	case n <= 1:
		return "1"
	case n == 2:
		return "1 or 2"
	}
	nums := make([]string, 0, n)
	for i := 1; i < n; i++ {
		nums = append(nums, strconv.Itoa(i))
	}
	return strings.Join(nums, ", ") + ", or " + strconv.Itoa(n)
}
