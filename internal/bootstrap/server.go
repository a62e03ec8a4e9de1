package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/wabooking/api"
	"github.com/Domenick1991/wabooking/config"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP surface. Nil handlers are not mounted.
type Handlers struct {
	WhatsApp *api.WhatsAppHandler
	Stripe   *api.StripeHandler
	Bookings *api.BookingHandler
	Flights  *api.FlightHandler
	Health   *api.HealthHandler
}

// Run serves HTTP and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve http %s: %w", cfg.HTTP.Address, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(h Handlers, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	root := router.Group("/")
	if h.Health != nil {
		h.Health.Register(root)
	}
	if h.Bookings != nil {
		h.Bookings.Register(root)
	}
	if h.Flights != nil {
		h.Flights.Register(router.Group("/flights"))
	}
	if h.WhatsApp != nil {
		h.WhatsApp.Register(router.Group("/whatsapp"))
	}
	if h.Stripe != nil {
		h.Stripe.Register(router.Group("/stripe"))
	}
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
