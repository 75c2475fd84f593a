package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/charity/pkg/eventbus"
	"github.com/amirasaad/charity/pkg/handler/common"
	"github.com/amirasaad/charity/pkg/provider/mail"
	svc "github.com/amirasaad/charity/pkg/service/notification"
)

// HandleMail renders notification messages and sends them through mailer.
// Errors are returned so the bus dead-letters the message.
func HandleMail(
	mailer mail.Mailer,
	defaults map[string]string,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	return func(ctx context.Context, e eventbus.Event) error {
		log := logger.With("handler", "notification.HandleMail", "event_type", e.Type())
		msg, ok := e.(*svc.Message)
		if !ok {
			log.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		log = log.With("template", msg.Template, "to", msg.To)

		email, err := svc.Render(msg, defaults)
		if err != nil {
			log.Error("failed to render notification", "error", err)
			return err
		}
		if err := mailer.Send(ctx, email); err != nil {
			log.Warn("failed to send notification", "error", err)
			return fmt.Errorf("send %s: %w", msg.Template, err)
		}
		log.Info("✅ Notification sent")
		return nil
	}
}

// Register subscribes the mail handler on bus, delivering each keyed
// message at most once.
func Register(
	bus eventbus.Bus,
	mailer mail.Mailer,
	defaults map[string]string,
	logger *slog.Logger,
) {
	handler := common.WithIdempotency(
		HandleMail(mailer, defaults, logger),
		common.NewIdempotencyTracker(),
		func(e eventbus.Event) string {
			if m, ok := e.(*svc.Message); ok && m.Key != "" {
				return m.Template + ":" + m.Key
			}
			return ""
		},
		"notification.HandleMail",
		logger,
	)
	bus.Register(svc.EventType, handler)
}
