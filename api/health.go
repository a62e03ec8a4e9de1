package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Degradable interface {
	Degraded() bool
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	sessions Degradable
	checks   map[string]Pinger
}

func NewHealthHandler(sessions Degradable, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{sessions: sessions, checks: checks}
}

func (h *HealthHandler) Register(router *gin.RouterGroup) {
	router.GET("/health", h.health)
}

// health answers 503 only when a hard dependency is down. A session store
// running on its in-memory fallback still serves traffic and reports
// "degraded".
func (h *HealthHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	store := "redis"
	if h.sessions != nil && h.sessions.Degraded() {
		status = "degraded"
		store = "memory"
	}

	checks := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(code, gin.H{"status": status, "session_store": store, "checks": checks})
}
