// Package lifecycle progresses inactive accounts through a
// notify-then-delete state machine on a recurring schedule.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/courtlist/courtlist/internal/accounts"
)

// Thresholds holds the two staleness windows for one account class. An
// account past Notify receives a reminder on every run until it passes
// Delete, at which point it is removed without further confirmation.
type Thresholds struct {
	Notify time.Duration
	Delete time.Duration
}

// Config carries the per-class thresholds. The three classes run on
// independent timers and never share state.
type Config struct {
	Media               Thresholds
	DirectoryAdmin      Thresholds
	CaseManagementAdmin Thresholds
}

// StaleSource queries accounts past an activity threshold.
type StaleSource interface {
	FindStaleByClass(ctx context.Context, class accounts.StaleClass, threshold time.Time) ([]accounts.Account, error)
}

// Deleter is the provisioning pipeline's deletion primitive.
type Deleter interface {
	DeleteAccount(ctx context.Context, id string) (accounts.Account, error)
}

// OutcomeRecorder counts sweep outcomes per account class.
type OutcomeRecorder interface {
	AddLifecycleOutcome(class, outcome string, count int)
}

// Service runs one lifecycle sweep per invocation.
type Service struct {
	logger   *slog.Logger
	repo     StaleSource
	notifier accounts.Notifier
	deleter  Deleter
	cfg      Config
	clock    func() time.Time
	metrics  OutcomeRecorder
}

// NewService builds a lifecycle Service.
func NewService(logger *slog.Logger, repo StaleSource, notifier accounts.Notifier, deleter Deleter, cfg Config) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		notifier: notifier,
		deleter:  deleter,
		cfg:      cfg,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// WithMetrics attaches an outcome recorder used by subsequent sweeps.
func (s *Service) WithMetrics(rec OutcomeRecorder) *Service {
	s.metrics = rec
	return s
}

// Run sweeps all three account classes concurrently. A failure in one
// class never prevents the others from completing; the first error is
// returned once every class has finished.
func (s *Service) Run(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.RunClass(ctx, accounts.ClassMedia) })
	g.Go(func() error { return s.RunClass(ctx, accounts.ClassDirectoryAdmin) })
	g.Go(func() error { return s.RunClass(ctx, accounts.ClassCaseManagementAdmin) })
	return g.Wait()
}

// RunClass sweeps a single account class: reminders first, then
// deletions. Per-account failures are logged and skipped so one broken
// account never blocks the rest of the run.
func (s *Service) RunClass(ctx context.Context, class accounts.StaleClass) error {
	thresholds, err := s.thresholds(class)
	if err != nil {
		return err
	}
	now := s.clock()

	due, err := s.repo.FindStaleByClass(ctx, class, now.Add(-thresholds.Notify))
	if err != nil {
		return err
	}
	notified := 0
	for _, account := range due {
		if err := s.notify(ctx, class, account); err != nil {
			s.logger.Warn("inactivity notification failed",
				slog.String("class", string(class)),
				slog.String("account_id", account.ID),
				slog.Any("error", err))
			continue
		}
		notified++
	}

	expired, err := s.repo.FindStaleByClass(ctx, class, now.Add(-thresholds.Delete))
	if err != nil {
		return err
	}
	deleted := 0
	for _, account := range expired {
		if _, err := s.deleter.DeleteAccount(ctx, account.ID); err != nil {
			s.logger.Warn("inactive account deletion failed",
				slog.String("class", string(class)),
				slog.String("account_id", account.ID),
				slog.Any("error", err))
			continue
		}
		deleted++
	}

	if s.metrics != nil {
		s.metrics.AddLifecycleOutcome(string(class), "notified", notified)
		s.metrics.AddLifecycleOutcome(string(class), "deleted", deleted)
	}
	s.logger.Info("lifecycle sweep complete",
		slog.String("class", string(class)),
		slog.Int("due", len(due)),
		slog.Int("notified", notified),
		slog.Int("expired", len(expired)),
		slog.Int("deleted", deleted))
	return nil
}

// notify sends the class-appropriate reminder. Media accounts are asked
// to re-verify; admin accounts receive an inactivity notice anchored on
// their last sign-in.
func (s *Service) notify(ctx context.Context, class accounts.StaleClass, account accounts.Account) error {
	if class == accounts.ClassMedia {
		return s.notifier.SendVerificationReminder(ctx, account.Email, account.DisplayName())
	}
	last := account.CreatedDate
	if account.LastSignedIn != nil {
		last = *account.LastSignedIn
	}
	return s.notifier.SendInactivityNotice(ctx, account.Email, account.DisplayName(), account.Provenance, last)
}

func (s *Service) thresholds(class accounts.StaleClass) (Thresholds, error) {
	switch class {
	case accounts.ClassMedia:
		return s.cfg.Media, nil
	case accounts.ClassDirectoryAdmin:
		return s.cfg.DirectoryAdmin, nil
	case accounts.ClassCaseManagementAdmin:
		return s.cfg.CaseManagementAdmin, nil
	}
	return Thresholds{}, errors.New("lifecycle: unrecognised account class")
}
