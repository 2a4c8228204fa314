package manager

import (
	"context"
	"fmt"
)

// MailMessage is what the MailNotifier hands to the host's sender. Delivery
// itself lives outside this module.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// SendFunc delivers a single message. Implementations are expected to be
// safe for concurrent use across requests.
type SendFunc func(ctx context.Context, msg MailMessage) error

// MailNotifier turns account lifecycle events into outbound messages with
// activation and reset links. Attach subscribes it to the dispatcher the
// workflow emits on.
type MailNotifier struct {
	baseURL string
	send    SendFunc
	logger  Logger
}

// NewMailNotifier builds a notifier; baseURL is prepended to the generated
// activation/reset paths.
func NewMailNotifier(baseURL string, send SendFunc) *MailNotifier {
	return &MailNotifier{
		baseURL: baseURL,
		send:    send,
		logger:  defLogger{},
	}
}

func (n *MailNotifier) WithLogger(logger Logger) *MailNotifier {
	if logger != nil {
		n.logger = logger
	}
	return n
}

// Attach subscribes the notifier to the registration and forgot-password
// events.
func (n *MailNotifier) Attach(bus *Dispatcher) {
	bus.Subscribe(EventAfterRegister, n.afterRegister)
	bus.Subscribe(EventAfterForgotPassword, n.afterForgotPassword)
}

func (n *MailNotifier) afterRegister(ctx context.Context, event Event) {
	account := event.Account
	if account == nil || account.ActivationToken == "" {
		return
	}

	msg := MailMessage{
		To:      account.Email,
		Subject: "Activate your account",
		Body: fmt.Sprintf(
			"Welcome! Activate your account: %s/activate/%s/%s",
			n.baseURL, account.Email, account.ActivationToken,
		),
	}

	n.deliver(ctx, msg)
}

func (n *MailNotifier) afterForgotPassword(ctx context.Context, event Event) {
	account := event.Account
	if account == nil || account.ActivationToken == "" {
		return
	}

	msg := MailMessage{
		To:      account.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"A password reset was requested for your account: %s/reset-password/%s/%s",
			n.baseURL, account.Email, account.ActivationToken,
		),
	}

	n.deliver(ctx, msg)
}

func (n *MailNotifier) deliver(ctx context.Context, msg MailMessage) {
	if n.send == nil {
		return
	}
	if err := n.send(ctx, msg); err != nil {
		// Mail failures never surface to the account owner's request.
		n.logger.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
	}
}
