package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Domenick1991/wabooking/internal/conversation"
	"github.com/Domenick1991/wabooking/internal/transport"
	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	HandleMessage(ctx context.Context, address, body string) conversation.Reply
}

type SignatureChecker interface {
	Valid(url string, params map[string]string, signature string) bool
}

type BaseURLResolver interface {
	BaseURL(ctx context.Context) string
}

type WhatsAppHandler struct {
	chat      MessageHandler
	signature SignatureChecker
	baseURL   BaseURLResolver
	logger    *slog.Logger
}

// NewWhatsAppHandler skips signature checks when signature is nil.
func NewWhatsAppHandler(chat MessageHandler, signature SignatureChecker, baseURL BaseURLResolver, logger *slog.Logger) *WhatsAppHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WhatsAppHandler{chat: chat, signature: signature, baseURL: baseURL, logger: logger}
}

func (h *WhatsAppHandler) Register(router *gin.RouterGroup) {
	router.POST("/webhook", h.webhook)
}

func (h *WhatsAppHandler) webhook(c *gin.Context) {
	from := strings.TrimSpace(c.PostForm("From"))
	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender"})
		return
	}

	if h.signature != nil && !h.signature.Valid(h.requestURL(c), formParams(c), c.GetHeader("X-Twilio-Signature")) {
		h.logger.WarnContext(c.Request.Context(), "rejected webhook with bad signature", slog.String("from", from))
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	reply := h.chat.HandleMessage(c.Request.Context(), transport.Address(from), c.PostForm("Body"))

	xml, err := transport.TwiML(reply.Text, reply.MediaURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(xml))
}

// requestURL rebuilds the public URL Twilio signed.
func (h *WhatsAppHandler) requestURL(c *gin.Context) string {
	if h.baseURL != nil {
		return strings.TrimRight(h.baseURL.BaseURL(c.Request.Context()), "/") + c.Request.URL.RequestURI()
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}

func formParams(c *gin.Context) map[string]string {
	params := make(map[string]string, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
