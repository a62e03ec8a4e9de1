package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/wabooking/api"
	"github.com/Domenick1991/wabooking/config"
	"github.com/Domenick1991/wabooking/internal/bootstrap"
	"github.com/Domenick1991/wabooking/internal/cache"
	"github.com/Domenick1991/wabooking/internal/conversation"
	"github.com/Domenick1991/wabooking/internal/database"
	"github.com/Domenick1991/wabooking/internal/kafka"
	"github.com/Domenick1991/wabooking/internal/logger"
	"github.com/Domenick1991/wabooking/internal/normalize"
	"github.com/Domenick1991/wabooking/internal/payment"
	"github.com/Domenick1991/wabooking/internal/publicurl"
	"github.com/Domenick1991/wabooking/internal/queue"
	"github.com/Domenick1991/wabooking/internal/repository"
	"github.com/Domenick1991/wabooking/internal/service/booking"
	"github.com/Domenick1991/wabooking/internal/service/chat"
	"github.com/Domenick1991/wabooking/internal/service/flights"
	"github.com/Domenick1991/wabooking/internal/session"
	"github.com/Domenick1991/wabooking/internal/ticket"
	"github.com/Domenick1991/wabooking/internal/transport"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	pool, err := database.Connect(ctx, cfg.Database, 10*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.MigrateURL(), logger.Component(log, "migrate")); err != nil {
			return err
		}
	}

	// Redis backs sessions, the offer cache and the issue lock. Without it
	// sessions live in memory and the other two are skipped.
	var (
		primary     session.Backend
		offerCache  flights.OfferCache
		bookingOpts []booking.BookingServiceOption
	)
	redisClient := cache.NewClient(cfg.Redis)
	defer redisClient.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		log.Warn("redis unavailable, sessions kept in memory", slog.String("addr", cfg.Redis.Addr), slog.String("err", err.Error()))
	} else {
		redisCache := cache.NewRedisCache(redisClient, cfg.Booking.FlightsCacheTTLDuration())
		primary = session.NewRedisBackend(redisClient)
		offerCache = redisCache
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache, cfg.Booking.IssueLockTTL()))
	}

	sessions := session.NewStore(primary,
		session.WithTTL(cfg.Booking.SessionTTL()),
		session.WithLogger(logger.Component(log, "session")),
	)

	switch {
	case cfg.AMQP.URL != "":
		publisher := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Component(log, "rabbitmq"))
		defer publisher.Close()
		bookingOpts = append(bookingOpts, booking.WithProducer(publisher, cfg.Kafka.BookingTopic))
	case len(cfg.Kafka.Brokers) > 0:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger.Component(log, "kafka"))
		defer producer.Close()
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	resolver := publicurl.NewResolver(cfg.Tickets.BaseURL)
	generator := ticket.NewGenerator(cfg.Tickets.Dir, cfg.Tickets.Brand, resolver)

	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)

	flightService := flights.NewFlightService(flightRepo, offerCache, logger.Component(log, "flights"))
	bookingOpts = append(bookingOpts,
		booking.WithSessions(sessions),
		booking.WithLogger(logger.Component(log, "booking")),
	)
	bookingService := booking.NewBookingService(bookingRepo, userRepo, generator, bookingOpts...)

	machine := conversation.NewMachine(
		normalize.NewCityResolver(normalize.DefaultCities),
		flightService,
		conversation.Settings{
			Location:   loc,
			MinAdvance: cfg.Booking.MinAdvance(),
			Blackouts:  cfg.Booking.Blackouts(),
		},
	)

	chatOpts := []chat.Option{
		chat.WithMessageLog(repository.NewMessageLogRepository(pool)),
		chat.WithLogger(logger.Component(log, "chat")),
	}
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" && cfg.Twilio.WhatsAppNumber != "" {
		sender := transport.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppNumber, logger.Component(log, "twilio"))
		chatOpts = append(chatOpts, chat.WithNotifier(sender))
	}
	chatService := chat.NewService(sessions, machine, bookingService, chatOpts...)

	var signature api.SignatureChecker
	if cfg.Twilio.ValidateSignature {
		signature = transport.NewSignatureValidator(cfg.Twilio.AuthToken)
	}

	handlers := bootstrap.Handlers{
		WhatsApp: api.NewWhatsAppHandler(chatService, signature, resolver, logger.Component(log, "whatsapp")),
		Bookings: api.NewBookingHandler(bookingService, cfg.Tickets.Dir),
		Flights:  api.NewFlightHandler(flightService, loc),
		Health:   api.NewHealthHandler(sessions, map[string]api.Pinger{"postgres": pool}),
	}
	if cfg.Stripe.WebhookSecret != "" {
		handlers.Stripe = api.NewStripeHandler(payment.NewWebhookParser(cfg.Stripe.WebhookSecret), bookingService, logger.Component(log, "stripe"))
	}

	return bootstrap.Run(ctx, cfg, handlers, log)
}
