// Package chat runs one inbound WhatsApp message through the conversation:
// load the session, step the machine, carry out its side effects and persist
// the outcome.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Domenick1991/wabooking/internal/conversation"
	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/repository"
)

type SessionStore interface {
	Get(ctx context.Context, address string) domain.Session
	Set(ctx context.Context, address string, sess domain.Session) domain.Session
	Clear(ctx context.Context, address string)
}

type Bookings interface {
	Issue(ctx context.Context, req domain.IssueRequest) (domain.Ticket, error)
	FindByLocator(ctx context.Context, locator string) (*domain.Booking, error)
	LatestForAddress(ctx context.Context, address string) (*domain.Booking, error)
}

type Notifier interface {
	Send(ctx context.Context, to, body, mediaURL string) error
}

type MessageLog interface {
	Append(ctx context.Context, entry *domain.MessageLog) error
}

type Service struct {
	sessions SessionStore
	machine  *conversation.Machine
	bookings Bookings
	notifier Notifier
	messages MessageLog
	logger   *slog.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithMessageLog(l MessageLog) Option {
	return func(s *Service) {
		s.messages = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(sessions SessionStore, machine *conversation.Machine, bookings Bookings, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		machine:  machine,
		bookings: bookings,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleMessage always produces exactly one reply.
func (s *Service) HandleMessage(ctx context.Context, address, body string) conversation.Reply {
	s.record(ctx, address, domain.MessageInbound, body)
	reply := s.handle(ctx, address, body)
	s.record(ctx, address, domain.MessageOutbound, reply.Text)
	return reply
}

func (s *Service) handle(ctx context.Context, address, body string) conversation.Reply {
	sess := s.sessions.Get(ctx, address)
	res := s.machine.Step(ctx, address, sess, body)

	if res.Lookup != nil {
		return s.lookup(ctx, address, *res.Lookup)
	}

	if res.Intent != nil {
		t, err := s.bookings.Issue(ctx, *res.Intent)
		if err != nil {
			s.logger.ErrorContext(ctx, "issue ticket failed",
				slog.String("address", address),
				slog.String("issue_key", res.Intent.IssueKey),
				slog.String("err", err.Error()),
			)
		}
		res = s.machine.Resolve(res, t, err)
		if err == nil && s.notify(ctx, address, t) {
			// the PDF already went out with the notification
			res.Reply.MediaURL = ""
		}
	}

	switch res.Action {
	case conversation.ActionSave:
		s.sessions.Set(ctx, address, res.Session)
	case conversation.ActionClear:
		s.sessions.Clear(ctx, address)
	}
	return res.Reply
}

func (s *Service) lookup(ctx context.Context, address string, l conversation.Lookup) conversation.Reply {
	switch l.Guard {
	case conversation.GuardLocatorLookup:
		b, err := s.bookings.FindByLocator(ctx, l.Locator)
		if err != nil || b.TicketURL == "" {
			s.lookupFailed(ctx, err)
			return conversation.Reply{Text: conversation.ReplyPNRNotFound}
		}
		return conversation.Reply{Text: conversation.LocatorFound(l.Locator, b.TicketURL)}
	default:
		b, err := s.bookings.LatestForAddress(ctx, address)
		if err != nil || b.TicketURL == "" {
			s.lookupFailed(ctx, err)
			return conversation.Reply{Text: conversation.ReplyNoTicket}
		}
		return conversation.Reply{Text: conversation.LatestTicket(b.TicketURL)}
	}
}

func (s *Service) lookupFailed(ctx context.Context, err error) {
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "booking lookup failed", slog.String("err", err.Error()))
	}
}

// notify reports whether the ticket notification was delivered.
func (s *Service) notify(ctx context.Context, address string, t domain.Ticket) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.Send(ctx, address, conversation.TicketNotification(t), t.DocumentURL); err != nil {
		s.logger.WarnContext(ctx, "send ticket notification failed",
			slog.String("address", address),
			slog.String("err", err.Error()),
		)
		return false
	}
	return true
}

func (s *Service) record(ctx context.Context, address string, dir domain.MessageDirection, body string) {
	if s.messages == nil {
		return
	}
	if err := s.messages.Append(ctx, &domain.MessageLog{Address: address, Direction: dir, Body: body}); err != nil {
		s.logger.WarnContext(ctx, "append message log failed", slog.String("err", err.Error()))
	}
}
