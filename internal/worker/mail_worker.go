// Package worker hosts the queue consumers: verification-mail delivery
// and settled-month spreadsheet export.
package worker

import (
	"context"
	"fmt"

	"paga/internal/amqp"
	"paga/internal/log"
	"paga/internal/mailer"
)

// MailWorker delivers staged verification codes to the operator's
// mailbox.
type MailWorker struct {
	sender mailer.Sender
	logger *log.Logger
}

func NewMailWorker(sender mailer.Sender, logger *log.Logger) *MailWorker {
	return &MailWorker{
		sender: sender,
		logger: logger.WithComponent("mail-worker"),
	}
}

// Handle processes one verification-mail message.
func (w *MailWorker) Handle(ctx context.Context, body []byte) error {
	msg, err := amqp.VerificationMailMessageFromJSON(body)
	if err != nil {
		// Undecodable messages are dropped, not redelivered forever.
		w.logger.ErrorContext(ctx, "Dropping malformed mail message", "error", err)
		return nil
	}

	if err := w.sender.SendVerificationCode(ctx, msg.Username, msg.Code); err != nil {
		return fmt.Errorf("send verification mail for %q: %w", msg.Username, err)
	}

	w.logger.InfoContext(ctx, "Verification mail sent", "username", msg.Username)
	return nil
}
