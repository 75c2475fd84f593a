package notification

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/amirasaad/charity/infra/eventbus"
	"github.com/amirasaad/charity/internal/fixtures/mocks"
	"github.com/amirasaad/charity/pkg/provider/mail"
	svc "github.com/amirasaad/charity/pkg/service/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var defaults = map[string]string{"org": "Hope House", "site": "https://hope.test"}

func TestRegister_DeliversOncePerKey(t *testing.T) {
	bus := eventbus.NewWithMemory(logger)
	mailer := mocks.NewMockMailer(t)
	var sent []*mail.Message
	mailer.EXPECT().Send(mock.Anything, mock.Anything).
		Run(func(_ context.Context, msg *mail.Message) { sent = append(sent, msg) }).
		Return(nil)
	Register(bus, mailer, defaults, logger)
	d := svc.NewDispatcher(bus, "admin@hope.test", logger)

	msg := svc.Message{
		Key:      "rec-1",
		Template: svc.ContributionCompleted,
		To:       []string{"ada@example.org"},
		Data:     map[string]string{"name": "Ada", "amount": "25.00", "currency": "USD", "reference": "cs_1", "kind": "donation"},
	}
	d.Notify(context.Background(), msg)
	d.Notify(context.Background(), msg)

	mailer.AssertNumberOfCalls(t, "Send", 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "Receipt for your donation to Hope House", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "25.00 USD")
	assert.Contains(t, sent[0].Text, "cs_1")
}

func TestRegister_FailureIsDeadLetteredNotReturned(t *testing.T) {
	bus := eventbus.NewWithMemory(logger)
	mailer := mocks.NewMockMailer(t)
	mailer.EXPECT().Send(mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	mailer.EXPECT().Send(mock.Anything, mock.MatchedBy(func(msg *mail.Message) bool {
		return len(msg.To) == 1 && msg.To[0] == "ada@example.org"
	})).Return(nil).Once()
	Register(bus, mailer, defaults, logger)
	d := svc.NewDispatcher(bus, "", logger)

	d.Notify(context.Background(), svc.Message{
		Key: "rec-2", Template: svc.ContributionCreated, To: []string{"ada@example.org"},
	})

	letters, err := bus.DeadLetters(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Contains(t, letters[0].Error, "smtp down")

	d.Notify(context.Background(), svc.Message{
		Key: "rec-2", Template: svc.ContributionCreated, To: []string{"ada@example.org"},
	})
	mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestHandleMail_UnknownTemplate(t *testing.T) {
	mailer := mocks.NewMockMailer(t)
	h := HandleMail(mailer, defaults, logger)
	err := h(context.Background(), &svc.Message{Template: "nope", To: []string{"a@b.c"}})
	assert.Error(t, err)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_AdminAndEmptyRecipients(t *testing.T) {
	bus := eventbus.NewWithMemory(logger)
	d := svc.NewDispatcher(bus, "", logger)
	d.NotifyAdmin(context.Background(), svc.Message{Template: svc.ContributionCreatedAdmin})
	d.Notify(context.Background(), svc.Message{Template: svc.ContributionCreated})
	assert.Empty(t, bus.Published())

	d = svc.NewDispatcher(bus, "admin@hope.test", logger)
	d.NotifyAdmin(context.Background(), svc.Message{Template: svc.ContributionCreatedAdmin})
	require.Len(t, bus.Published(), 1)
	assert.Equal(t, []string{"admin@hope.test"}, bus.Published()[0].(*svc.Message).To)
}
