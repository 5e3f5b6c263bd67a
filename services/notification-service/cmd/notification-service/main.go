package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bhcare/patient-portal/libs/config"
	"github.com/bhcare/patient-portal/libs/db"
	"github.com/bhcare/patient-portal/libs/httpx"
	"github.com/bhcare/patient-portal/libs/kafkax"
	otelx "github.com/bhcare/patient-portal/libs/otel"
	"github.com/bhcare/patient-portal/libs/runtime"
	"github.com/bhcare/patient-portal/services/notification-service/internal/consumer"
	"github.com/bhcare/patient-portal/services/notification-service/internal/email"
	"github.com/bhcare/patient-portal/services/notification-service/internal/handlers"
	"github.com/bhcare/patient-portal/services/notification-service/internal/inbox"
	"github.com/bhcare/patient-portal/services/notification-service/internal/notify"
	"github.com/bhcare/patient-portal/services/notification-service/internal/sms"
	"github.com/bhcare/patient-portal/services/notification-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	var emailSender email.Sender
	if config.Bool("EMAIL_ENABLED", true) {
		emailSender = email.NewSMTPSender(
			config.String("SMTP_HOST", "mailpit"),
			config.String("SMTP_PORT", "1025"),
			config.String("SMTP_FROM", "no-reply@bhcare.local"),
		)
	}

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	default:
		smsSender = sms.NewNoopSender()
	}

	handleEvent := func(ctx context.Context, msg kafka.Message) error {
		n, err := notify.FromEvent(msg.Topic, msg.Value)
		if err != nil {
			if errors.Is(err, notify.ErrUnknownEvent) {
				logger.Warn("unhandled event type", "topic", msg.Topic)
				return nil
			}
			// Malformed payloads never become processable; drop them.
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}

		id, err := notificationsRepo.Insert(ctx, n)
		if err != nil {
			return err
		}
		logger.Info("notification stored", "id", id, "user_id", n.UserID, "event_type", n.EventType)

		// Best effort: mirror the notification to the patient's email and
		// phone. Delivery failures never fail the event.
		emailAddr, phone, err := notificationsRepo.ContactFor(ctx, n.UserID)
		if err != nil {
			logger.Warn("contact lookup failed", "err", err, "user_id", n.UserID)
			return nil
		}
		if emailSender != nil && emailAddr != "" {
			if err := emailSender.Send(emailAddr, n.Title, n.Body); err != nil {
				logger.Warn("email send failed", "err", err, "user_id", n.UserID)
			}
		}
		if phone != "" {
			if err := smsSender.Send(ctx, phone, fmt.Sprintf("%s: %s", n.Title, n.Body)); err != nil {
				logger.Warn("sms send failed", "err", err, "user_id", n.UserID)
			}
		}
		return nil
	}

	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   topic,
		}, handleEvent)
		go eventConsumer.Run(ctx)
	}

	startConsumer(config.String("KAFKA_TOPIC_BOOKED", "portal.appointment.booked.v1"))
	startConsumer(config.String("KAFKA_TOPIC_CANCELLED", "portal.appointment.cancelled.v1"))
	startConsumer(config.String("KAFKA_TOPIC_RESCHEDULED", "portal.appointment.rescheduled.v1"))

	notificationHandler := handlers.NewNotificationHandler(notificationsRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	notificationHandler.Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
