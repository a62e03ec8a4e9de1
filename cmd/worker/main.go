package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/wabooking/config"
	"github.com/Domenick1991/wabooking/internal/email"
	"github.com/Domenick1991/wabooking/internal/kafka"
	"github.com/Domenick1991/wabooking/internal/logger"
	"github.com/Domenick1991/wabooking/internal/queue"
	kafkaGo "github.com/segmentio/kafka-go"
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

	sender := email.NewSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, logger.Component(log, "email"))
	handle := func(ctx context.Context, event kafka.BookingEvent) error {
		err := sender.Send(ctx, event)
		if errors.Is(err, email.ErrNoRecipient) {
			log.InfoContext(ctx, "no email on booking, skipping", slog.String("locator", event.Locator))
			return nil
		}
		return err
	}

	switch {
	case cfg.AMQP.URL != "":
		consumer := queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Component(log, "rabbitmq"))
		log.Info("consuming booking events", slog.String("queue", cfg.AMQP.Queue))
		err = consumer.Consume(ctx, func(ctx context.Context, body []byte) error {
			event, err := kafka.UnmarshalBookingEvent(body)
			if err != nil {
				return err
			}
			return handle(ctx, event)
		})
	case len(cfg.Kafka.Brokers) > 0:
		topic := cfg.Kafka.NotificationsTopic
		if topic == "" {
			topic = cfg.Kafka.BookingTopic
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, logger.Component(log, "kafka"))
		defer consumer.Close()
		log.Info("consuming booking events", slog.String("topic", topic))
		err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeBookingEvent(msg)
			if err != nil {
				return err
			}
			return handle(ctx, event)
		})
	default:
		log.Error("no event broker configured: set kafka.brokers or amqp.url")
		os.Exit(1)
	}

	if err != nil {
		log.Error("consumer stopped", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("worker stopped")
}
