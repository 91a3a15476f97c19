// Package notify renders account emails and hands them to the job queue
// for delivery.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/courtlist/courtlist/internal/accounts"
	"github.com/courtlist/courtlist/jobs"
)

// Enqueuer submits prepared emails for asynchronous delivery.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Notifier implements accounts.Notifier on top of the job queue.
type Notifier struct {
	queue     Enqueuer
	signature string
}

// NewNotifier constructs a Notifier. The signature closes every email.
func NewNotifier(queue Enqueuer, signature string) *Notifier {
	if signature == "" {
		signature = "The Court and Tribunal Listings team"
	}
	return &Notifier{queue: queue, signature: signature}
}

// SendWelcome sends the account welcome email.
func (n *Notifier) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Dear %s,\n\nYour court and tribunal listings account has been created. Sign in with this email address to get started. You will be asked to set a new password on first sign-in.\n\n%s", salutation(name), n.signature)
	return n.enqueue(ctx, email, "Your listings account is ready", body)
}

// SendVerificationReminder asks a media account holder to re-verify.
func (n *Notifier) SendVerificationReminder(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Dear %s,\n\nYour media account needs to be re-verified. Please sign in and complete verification, or the account will eventually be removed.\n\n%s", salutation(name), n.signature)
	return n.enqueue(ctx, email, "Action required: verify your media account", body)
}

// SendInactivityNotice warns an admin account holder their account is
// dormant and scheduled for removal.
func (n *Notifier) SendInactivityNotice(ctx context.Context, email, name string, provenance accounts.Provenance, lastDate time.Time) error {
	body := fmt.Sprintf("Dear %s,\n\nYour administrator account (%s) was last used on %s and is now dormant. Sign in to keep it, or it will be removed.\n\n%s",
		salutation(name), provenance, lastDate.Format("2 January 2006"), n.signature)
	return n.enqueue(ctx, email, "Your administrator account is dormant", body)
}

func (n *Notifier) enqueue(ctx context.Context, to, subject, body string) error {
	_, err := n.queue.EnqueueSendEmail(ctx, jobs.SendEmailPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("notify: enqueue %q: %w", subject, err)
	}
	return nil
}

func salutation(name string) string {
	if name == "" {
		return "account holder"
	}
	return name
}
