// Package transport talks to WhatsApp through Twilio: outbound messages,
// TwiML replies and webhook signature checks.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
)

const whatsAppPrefix = "whatsapp:"

var ErrSenderDisabled = errors.New("twilio sender is not configured")

type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioSender struct {
	api    MessageCreator
	from   string
	logger *slog.Logger
}

// NewTwilioSender returns a sender that reports ErrSenderDisabled when the
// account credentials or the sender number are missing.
func NewTwilioSender(accountSID, authToken, from string, logger *slog.Logger) *TwilioSender {
	var api MessageCreator
	if accountSID != "" && authToken != "" {
		api = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}).Api
	}
	return NewTwilioSenderWithAPI(api, from, logger)
}

func NewTwilioSenderWithAPI(api MessageCreator, from string, logger *slog.Logger) *TwilioSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &TwilioSender{api: api, from: from, logger: logger}
}

// Send delivers body, and the media when mediaURL is set, to the address.
func (s *TwilioSender) Send(ctx context.Context, to, body, mediaURL string) error {
	if s.api == nil || s.from == "" {
		return ErrSenderDisabled
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(WhatsAppAddress(s.from))
	params.SetTo(WhatsAppAddress(to))
	params.SetBody(body)
	if mediaURL != "" {
		params.SetMediaUrl([]string{mediaURL})
	}

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	s.logger.InfoContext(ctx, "whatsapp message sent", slog.String("to", to), slog.String("sid", sid))
	return nil
}

// WhatsAppAddress adds the channel prefix Twilio expects.
func WhatsAppAddress(number string) string {
	if strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}

// Address strips the channel prefix from an inbound From value.
func Address(from string) string {
	return strings.TrimPrefix(strings.TrimSpace(from), whatsAppPrefix)
}

// TwiML renders a messaging response with one message.
func TwiML(text, mediaURL string) (string, error) {
	msg := &twiml.MessagingMessage{Body: text}
	if mediaURL != "" {
		msg.InnerElements = []twiml.Element{&twiml.MessagingMedia{Url: mediaURL}}
	}
	return twiml.Messages([]twiml.Element{msg})
}

type SignatureValidator struct {
	validator client.RequestValidator
}

func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: client.NewRequestValidator(authToken)}
}

// Valid checks the X-Twilio-Signature header against the full request URL
// and the posted form values.
func (v *SignatureValidator) Valid(url string, params map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	return v.validator.Validate(url, params, signature)
}
