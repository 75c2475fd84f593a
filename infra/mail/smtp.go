package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/amirasaad/charity/pkg/config"
	"github.com/amirasaad/charity/pkg/provider/mail"
	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer sends email through an SMTP relay.
type SMTPMailer struct {
	cfg    *config.Mail
	opts   []gomail.Option
	logger *slog.Logger
}

// NewSMTPMailer validates cfg and prepares the client options. No
// connection is made until the first Send.
func NewSMTPMailer(cfg *config.Mail, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp mailer: host is required")
	}
	policy, err := tlsPolicy(cfg.TLS)
	if err != nil {
		return nil, err
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(policy),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	return &SMTPMailer{cfg: cfg, opts: opts, logger: logger.With("component", "smtp-mailer")}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg *mail.Message) error {
	gm, err := buildMessage(m.cfg.From, msg)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(m.cfg.Host, m.opts...)
	if err != nil {
		return fmt.Errorf("smtp mailer: new client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		m.logger.Error("failed to send email", "to", msg.To, "subject", msg.Subject, "error", err)
		return fmt.Errorf("smtp mailer: send: %w", err)
	}
	m.logger.Info("📧 Email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func buildMessage(from string, msg *mail.Message) (*gomail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("smtp mailer: no recipients")
	}
	gm := gomail.NewMsg()
	if err := gm.From(from); err != nil {
		return nil, fmt.Errorf("smtp mailer: from: %w", err)
	}
	if err := gm.To(msg.To...); err != nil {
		return nil, fmt.Errorf("smtp mailer: to: %w", err)
	}
	gm.Subject(msg.Subject)
	gm.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		gm.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return gm, nil
}

func tlsPolicy(name string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(name) {
	case "", "opportunistic":
		return gomail.TLSOpportunistic, nil
	case "mandatory":
		return gomail.TLSMandatory, nil
	case "none":
		return gomail.NoTLS, nil
	default:
		return gomail.NoTLS, fmt.Errorf("smtp mailer: unknown tls policy %q", name)
	}
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "log-mailer")}
}

func (m *LogMailer) Send(_ context.Context, msg *mail.Message) error {
	m.logger.Info("📧 Email (not sent, SMTP disabled)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

// Recorder keeps sent emails in memory. Err, when set, fails every Send.
type Recorder struct {
	mu   sync.Mutex
	sent []mail.Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg *mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, *msg)
	return nil
}

// Sent returns a copy of the recorded emails.
func (r *Recorder) Sent() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

// SetErr changes the failure returned by Send.
func (r *Recorder) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = err
}

var (
	_ mail.Mailer = (*SMTPMailer)(nil)
	_ mail.Mailer = (*LogMailer)(nil)
	_ mail.Mailer = (*Recorder)(nil)
)
