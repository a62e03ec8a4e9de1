package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/wabooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service  flights.FlightUseCase
	location *time.Location
}

func NewFlightHandler(service flights.FlightUseCase, location *time.Location) *FlightHandler {
	if location == nil {
		location = time.UTC
	}
	return &FlightHandler{service: service, location: location}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.search)
}

// search expects from, to (location codes) and departure as RFC 3339 or
// "YYYY-MM-DD HH:MM" in the booking time zone.
func (h *FlightHandler) search(c *gin.Context) {
	from := strings.ToUpper(strings.TrimSpace(c.Query("from")))
	to := strings.ToUpper(strings.TrimSpace(c.Query("to")))
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	departure, ok := h.parseDeparture(c.Query("departure"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid departure"})
		return
	}

	offers, err := h.service.Search(c.Request.Context(), from, to, departure)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (h *FlightHandler) parseDeparture(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, h.location); err == nil {
		return t, true
	}
	return time.Time{}, false
}
