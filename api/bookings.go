package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/repository"
	"github.com/gin-gonic/gin"
)

type BookingLookup interface {
	FindByLocator(ctx context.Context, locator string) (*domain.Booking, error)
}

type BookingHandler struct {
	service    BookingLookup
	ticketsDir string
}

type passengerResponse struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Seat  string `json:"seat,omitempty"`
}

type bookingResponse struct {
	PNR           string              `json:"pnr"`
	Source        string              `json:"source"`
	Destination   string              `json:"destination"`
	DepartAt      string              `json:"depart_at"`
	FlightNo      string              `json:"flight_no,omitempty"`
	Seats         []string            `json:"seats"`
	Gate          string              `json:"gate,omitempty"`
	Passengers    []passengerResponse `json:"passengers"`
	TicketURL     string              `json:"ticket_url,omitempty"`
	Price         float64             `json:"price"`
	Currency      string              `json:"currency"`
	PaymentStatus string              `json:"payment_status"`
}

func NewBookingHandler(service BookingLookup, ticketsDir string) *BookingHandler {
	return &BookingHandler{service: service, ticketsDir: ticketsDir}
}

// Register mounts the lookup and the ticket files. PDFs are served by one
// catch-all so the by-pnr route can share the /tickets prefix.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/booking/:pnr", h.get)
	router.GET("/tickets/*path", h.ticket)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, ok := h.find(c, c.Param("pnr"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) ticket(c *gin.Context) {
	path := c.Param("path")
	if pnr, ok := strings.CutPrefix(path, "/by-pnr/"); ok {
		h.ticketByPNR(c, pnr)
		return
	}

	name := strings.TrimPrefix(path, "/")
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, ".pdf") {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	h.serveFile(c, name, "")
}

func (h *BookingHandler) ticketByPNR(c *gin.Context, pnr string) {
	b, ok := h.find(c, pnr)
	if !ok {
		return
	}
	if b.TicketID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	h.serveFile(c, b.TicketID+".pdf", "ticket-"+b.Locator+".pdf")
}

func (h *BookingHandler) serveFile(c *gin.Context, name, attachment string) {
	path := filepath.Join(h.ticketsDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	if attachment != "" {
		c.FileAttachment(path, attachment)
		return
	}
	c.File(path)
}

func (h *BookingHandler) find(c *gin.Context, pnr string) (*domain.Booking, bool) {
	b, err := h.service.FindByLocator(c.Request.Context(), pnr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "PNR not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return b, true
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	depart := b.DepartAt
	if loc, err := time.LoadLocation(b.Timezone); err == nil && b.Timezone != "" {
		depart = depart.In(loc)
	}
	passengers := make([]passengerResponse, 0, len(b.Passengers))
	for i, p := range b.Passengers {
		seat := p.Seat
		if seat == "" && i < len(b.Seats) {
			seat = b.Seats[i]
		}
		passengers = append(passengers, passengerResponse{Name: p.Name, Email: p.Email, Seat: seat})
	}
	seats := b.Seats
	if seats == nil {
		seats = []string{}
	}
	return bookingResponse{
		PNR:           b.Locator,
		Source:        b.SourceCode,
		Destination:   b.DestCode,
		DepartAt:      depart.Format(time.RFC3339),
		FlightNo:      b.Offer.FlightNo,
		Seats:         seats,
		Gate:          b.Gate,
		Passengers:    passengers,
		TicketURL:     b.TicketURL,
		Price:         float64(b.PriceCents) / 100,
		Currency:      b.Currency,
		PaymentStatus: string(b.PaymentStatus),
	}
}
