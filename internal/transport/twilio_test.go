package transport

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type MockMessageCreator struct {
	mock.Mock
}

func (m *MockMessageCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openapi.ApiV2010Message), args.Error(1)
}

func TestTwilioSender_Send(t *testing.T) {
	api := &MockMessageCreator{}
	sid := "SM123"
	api.On("CreateMessage", mock.MatchedBy(func(p *openapi.CreateMessageParams) bool {
		return *p.From == "whatsapp:+14155238886" &&
			*p.To == "whatsapp:+919800000001" &&
			*p.Body == "Your e-ticket" &&
			len(*p.MediaUrl) == 1 && (*p.MediaUrl)[0] == "https://bot.example.com/tickets/a.pdf"
	})).Return(&openapi.ApiV2010Message{Sid: &sid}, nil).Once()

	s := NewTwilioSenderWithAPI(api, "whatsapp:+14155238886", nil)
	require.NoError(t, s.Send(context.Background(), "+919800000001", "Your e-ticket", "https://bot.example.com/tickets/a.pdf"))
	api.AssertExpectations(t)
}

func TestTwilioSender_SendWithoutMedia(t *testing.T) {
	api := &MockMessageCreator{}
	api.On("CreateMessage", mock.MatchedBy(func(p *openapi.CreateMessageParams) bool {
		return p.MediaUrl == nil
	})).Return(nil, errors.New("rate limited")).Once()

	s := NewTwilioSenderWithAPI(api, "+14155238886", nil)
	err := s.Send(context.Background(), "+919800000001", "hi", "")
	assert.ErrorContains(t, err, "rate limited")
}

func TestTwilioSender_Disabled(t *testing.T) {
	s := NewTwilioSender("", "", "+14155238886", nil)
	assert.ErrorIs(t, s.Send(context.Background(), "+1", "hi", ""), ErrSenderDisabled)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "+919800000001", Address("whatsapp:+919800000001"))
	assert.Equal(t, "+919800000001", Address(" +919800000001 "))
	assert.Equal(t, "whatsapp:+1", WhatsAppAddress("+1"))
	assert.Equal(t, "whatsapp:+1", WhatsAppAddress("whatsapp:+1"))
}

func TestTwiML(t *testing.T) {
	out, err := TwiML("Hello & welcome", "")
	require.NoError(t, err)
	assert.Contains(t, out, "<Response>")
	assert.Contains(t, out, "<Message>Hello &amp; welcome</Message>")
	assert.NotContains(t, out, "<Media>")

	out, err = TwiML("Ticket", "https://bot.example.com/tickets/a.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, "<Media>https://bot.example.com/tickets/a.pdf</Media>")
	assert.Contains(t, out, "Ticket")
}

func TestSignatureValidator(t *testing.T) {
	const token = "secret-token"
	url := "https://bot.example.com/whatsapp/webhook"
	params := map[string]string{"From": "whatsapp:+919800000001", "Body": "hi"}

	// Twilio signs the URL followed by the sorted key/value pairs.
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(url + "Bodyhi" + "Fromwhatsapp:+919800000001"))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	v := NewSignatureValidator(token)
	assert.True(t, v.Valid(url, params, signature))
	assert.False(t, v.Valid(url, params, "bogus"))
	assert.False(t, v.Valid(url, params, ""))
}
