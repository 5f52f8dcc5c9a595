package worker

import (
	"context"
	"encoding/json"

	"github.com/leaptra/scheduling-core/internal/email"
	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/pkg/event"
	"github.com/leaptra/scheduling-core/pkg/logger"
	"github.com/leaptra/scheduling-core/pkg/messaging"
)

// Notifier subscribes to booking events on the broker and relays them to
// the email service. It sits on the outbound boundary: everything past
// the Subscribe call belongs to the communication collaborator.
type Notifier struct {
	broker messaging.Broker
	email  email.Service
	logger *logger.Logger
}

func NewNotifier(broker messaging.Broker, emailSvc email.Service, log *logger.Logger) *Notifier {
	return &Notifier{
		broker: broker,
		email:  emailSvc,
		logger: log,
	}
}

func (n *Notifier) Start(ctx context.Context) error {
	confirmed, err := n.broker.Subscribe(ctx, string(event.BookingConfirmed))
	if err != nil {
		return err
	}
	cancelled, err := n.broker.Subscribe(ctx, string(event.BookingCancelled))
	if err != nil {
		return err
	}

	n.logger.Info("starting booking notifier")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("shutting down booking notifier")
			return nil
		case raw, ok := <-confirmed:
			if !ok {
				return nil
			}
			n.handle(ctx, raw, n.email.SendBookingConfirmation)
		case raw, ok := <-cancelled:
			if !ok {
				return nil
			}
			n.handle(ctx, raw, n.email.SendCancellationNotice)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, raw []byte, send func(context.Context, *model.BookingEventPayload) error) {
	var payload model.BookingEventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		n.logger.Error(err, "failed to decode booking event")
		return
	}
	if err := send(ctx, &payload); err != nil {
		n.logger.Error(err, "failed to send booking notification")
	}
}
