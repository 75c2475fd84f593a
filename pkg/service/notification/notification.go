// Package notification sends best-effort emails for lifecycle events.
// Callers publish a Message and move on; delivery happens in a bus handler
// and failures end up in the dead-letter log, never in the caller.
package notification

import (
	"context"
	"log/slog"

	"github.com/amirasaad/charity/pkg/eventbus"
)

// EventType is the bus event type for every notification.
const EventType = "notification.requested"

// Template names.
const (
	ContributionCreated      = "contribution.created"
	ContributionCreatedAdmin = "contribution.created.admin"
	ContributionCompleted    = "contribution.completed"
	ContributionMatched      = "contribution.matched"
	VolunteerApplied         = "volunteer.applied.admin"
	VolunteerApproved        = "volunteer.approved"
	PasswordResetRequested   = "password.reset_requested"
)

// Message asks for one email. Key, when set, makes delivery happen at most
// once per key.
type Message struct {
	Key      string            `json:"key,omitempty"`
	Template string            `json:"template"`
	To       []string          `json:"to"`
	Data     map[string]string `json:"data"`
}

func (m *Message) Type() string { return EventType }

// Factories lets JSON transports rebuild notification events.
func Factories() eventbus.Factories {
	return eventbus.Factories{EventType: func() eventbus.Event { return &Message{} }}
}

// Dispatcher publishes notifications on the event bus.
type Dispatcher struct {
	bus        eventbus.Bus
	adminEmail string
	logger     *slog.Logger
}

func NewDispatcher(bus eventbus.Bus, adminEmail string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{bus: bus, adminEmail: adminEmail, logger: logger.With("component", "notification")}
}

// AdminEmail is the configured administrator address, possibly empty.
func (d *Dispatcher) AdminEmail() string { return d.adminEmail }

// Notify publishes msg. It never fails the caller: messages without
// recipients are dropped and publish errors are only logged.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if d == nil || d.bus == nil {
		return
	}
	if len(msg.To) == 0 {
		d.logger.Debug("notification without recipients dropped", "template", msg.Template)
		return
	}
	if err := d.bus.Emit(ctx, &msg); err != nil {
		d.logger.Warn("failed to publish notification", "template", msg.Template, "error", err)
	}
}

// NotifyAdmin sends msg to the administrator address when configured.
func (d *Dispatcher) NotifyAdmin(ctx context.Context, msg Message) {
	if d == nil || d.adminEmail == "" {
		return
	}
	msg.To = []string{d.adminEmail}
	d.Notify(ctx, msg)
}
