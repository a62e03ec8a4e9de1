package conversation

import (
	"strings"

	"github.com/Domenick1991/wabooking/internal/domain"
)

// Guard is a pre-dispatch rule that overrides the per-step switch.
type Guard int

const (
	GuardNone Guard = iota
	// GuardLocatorLookup answers "pnr <code>" from booking history.
	GuardLocatorLookup
	// GuardLatestTicket answers "ticket" with the sender's latest booking.
	GuardLatestTicket
	GuardRestart
	GuardConfirm
)

func (g Guard) String() string {
	switch g {
	case GuardLocatorLookup:
		return "locator_lookup"
	case GuardLatestTicket:
		return "latest_ticket"
	case GuardRestart:
		return "restart"
	case GuardConfirm:
		return "confirm"
	}
	return "none"
}

// Classify evaluates the guards in priority order. For GuardLocatorLookup the
// second value is the requested locator.
func Classify(step domain.Step, text string) (Guard, string) {
	low := strings.ToLower(strings.TrimSpace(text))

	if rest, ok := strings.CutPrefix(low, "pnr "); ok {
		if code := strings.TrimSpace(rest); code != "" {
			return GuardLocatorLookup, strings.ToUpper(code)
		}
	}
	switch low {
	case "ticket":
		return GuardLatestTicket, ""
	case "restart", "start":
		return GuardRestart, ""
	case "confirm":
		return GuardConfirm, ""
	}
	if step == domain.StepPayment {
		return GuardConfirm, ""
	}
	return GuardNone, ""
}
