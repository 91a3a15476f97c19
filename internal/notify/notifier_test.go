package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtlist/courtlist/internal/accounts"
	"github.com/courtlist/courtlist/jobs"
)

type captureQueue struct {
	payloads []jobs.SendEmailPayload
	err      error
}

func (q *captureQueue) EnqueueSendEmail(_ context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.payloads = append(q.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

func TestWelcomeEmailPayload(t *testing.T) {
	queue := &captureQueue{}
	notifier := NewNotifier(queue, "")

	require.NoError(t, notifier.SendWelcome(context.Background(), "clerk@example.com", "Pat Clerk"))

	require.Len(t, queue.payloads, 1)
	payload := queue.payloads[0]
	assert.Equal(t, "clerk@example.com", payload.To)
	assert.Equal(t, "Your listings account is ready", payload.Subject)
	assert.Contains(t, payload.Body, "Dear Pat Clerk,")
	assert.Contains(t, payload.Body, "set a new password on first sign-in")
	assert.Contains(t, payload.Body, "The Court and Tribunal Listings team")
}

func TestEmptyNameFallsBackToGenericSalutation(t *testing.T) {
	queue := &captureQueue{}
	notifier := NewNotifier(queue, "")

	require.NoError(t, notifier.SendVerificationReminder(context.Background(), "press@example.com", ""))

	require.Len(t, queue.payloads, 1)
	assert.Contains(t, queue.payloads[0].Body, "Dear account holder,")
	assert.Equal(t, "Action required: verify your media account", queue.payloads[0].Subject)
}

func TestInactivityNoticeFormatsProvenanceAndDate(t *testing.T) {
	queue := &captureQueue{}
	notifier := NewNotifier(queue, "The CaTH service")

	lastSeen := time.Date(2024, time.July, 9, 10, 30, 0, 0, time.UTC)
	require.NoError(t, notifier.SendInactivityNotice(context.Background(), "admin@example.com", "Ada Admin", accounts.ProvenanceInternalDirectory, lastSeen))

	require.Len(t, queue.payloads, 1)
	body := queue.payloads[0].Body
	assert.Contains(t, body, "(INTERNAL_DIRECTORY)")
	assert.Contains(t, body, "last used on 9 July 2024")
	assert.Contains(t, body, "The CaTH service")
}

func TestEnqueueFailureIsWrappedWithSubject(t *testing.T) {
	queue := &captureQueue{err: errors.New("queue unavailable")}
	notifier := NewNotifier(queue, "")

	err := notifier.SendWelcome(context.Background(), "clerk@example.com", "Pat Clerk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your listings account is ready")
	assert.Contains(t, err.Error(), "queue unavailable")
}
