package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"saggita/internal/config"
	"saggita/internal/external"
	"saggita/internal/logger"
	"saggita/internal/messaging"
	"saggita/internal/models"

	"github.com/nats-io/stan.go"
)

const queueGroup = "mailer"

// Dispatcher consumes notification events and sends the mails. It runs as
// its own binary; the API publishes and never blocks on mail delivery.
type Dispatcher struct {
	nats   *messaging.NATSClient
	mailer *external.Mailer
	subs   []stan.Subscription
}

func New(cfg *config.Config) (*Dispatcher, error) {
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Dispatcher{
		nats:   natsClient,
		mailer: external.NewMailer(cfg.Mailer),
	}, nil
}

// Start subscribes to every notification subject
func (d *Dispatcher) Start() error {
	subjects := map[string]stan.MsgHandler{
		models.EventRegistrationCreated: d.onRegistrationCreated,
		models.EventActionSubmitted:     d.onActionSubmitted,
		models.EventPaymentStatusSet:    d.onPaymentStatusSet,
	}

	for subject, handler := range subjects {
		sub, err := d.nats.SubscribeQueue(subject, queueGroup, handler)
		if err != nil {
			return err
		}
		d.subs = append(d.subs, sub)
	}

	return nil
}

func (d *Dispatcher) onRegistrationCreated(msg *stan.Msg) {
	log := logger.Get()

	var event models.RegistrationCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error("Failed to decode registration event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := d.mailer.SendRegistrationConfirmation(ctx, &event); err != nil {
		log.Error("Failed to send confirmation mail",
			"registration_id", event.RegistrationID, "error", err)
	}
	if err := d.mailer.SendRegistrationAdminCopy(ctx, &event); err != nil {
		log.Error("Failed to send admin copy",
			"registration_id", event.RegistrationID, "error", err)
	}

	log.Info("Registration mails dispatched",
		"registration_id", event.RegistrationID, "waitlist", event.IsWaitlist)
}

func (d *Dispatcher) onActionSubmitted(msg *stan.Msg) {
	log := logger.Get()

	var event models.ActionSubmittedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error("Failed to decode action event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := d.mailer.SendActionMail(ctx, &event); err != nil {
		log.Error("Failed to send action mail",
			"registration_id", event.RegistrationID, "action", event.Action, "error", err)
		return
	}

	log.Info("Action mail dispatched",
		"registration_id", event.RegistrationID, "action", event.Action)
}

// onPaymentStatusSet only records the override; administrative payment
// changes do not mail the registrant
func (d *Dispatcher) onPaymentStatusSet(msg *stan.Msg) {
	var event models.PaymentStatusSetEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Get().Error("Failed to decode payment status event", "error", err)
		return
	}

	logger.Get().Info("Payment status changed",
		"registration_id", event.RegistrationID,
		"payment_ref", event.PaymentRef,
		"payment_status", event.PaymentStatus)
}

// Shutdown unsubscribes and closes the bus connection
func (d *Dispatcher) Shutdown() error {
	for _, sub := range d.subs {
		if err := sub.Close(); err != nil {
			logger.Get().Error("Failed to close subscription", "error", err)
		}
	}
	return d.nats.Close()
}
