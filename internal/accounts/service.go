package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/courtlist/courtlist/internal/shared"
)

// Service runs the batch provisioning pipeline and the single-account
// operations built on it.
type Service struct {
	logger          *slog.Logger
	repo            RepositoryPort
	provider        IdentityProvider
	notifier        Notifier
	validator       *Validator
	maxSystemAdmins int
	clock           func() time.Time
}

// NewService builds a Service instance. maxSystemAdmins caps the number
// of non-SSO SYSTEM_ADMIN accounts that may exist at once.
func NewService(logger *slog.Logger, repo RepositoryPort, provider IdentityProvider, notifier Notifier, maxSystemAdmins int) *Service {
	return &Service{
		logger:          logger,
		repo:            repo,
		provider:        provider,
		notifier:        notifier,
		validator:       NewValidator(),
		maxSystemAdmins: maxSystemAdmins,
		clock:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccounts processes a batch of candidates submitted by issuerID.
// Items are independent: a failing candidate never aborts its siblings.
// The returned error is reserved for misconfiguration; per-item failures
// land in the result's errored list.
func (s *Service) CreateAccounts(ctx context.Context, issuerID string, candidates []Candidate) (BatchResult, error) {
	if s.repo == nil || s.provider == nil {
		return BatchResult{}, errors.New("accounts: service not configured")
	}
	var result BatchResult
	for _, candidate := range candidates {
		s.processCandidate(ctx, issuerID, candidate, &result)
	}
	s.logger.Info("provisioning batch complete",
		slog.String("issuer_id", issuerID),
		slog.Int("submitted", len(candidates)),
		slog.Int("created", len(result.Created)),
		slog.Int("errored", len(result.Errored)))
	return result, nil
}

func (s *Service) processCandidate(ctx context.Context, issuerID string, candidate Candidate, result *BatchResult) {
	// Structural validation runs before anything touches an external
	// system; a malformed candidate must cause zero provider calls.
	if messages := s.validator.Check(candidate); len(messages) > 0 {
		result.errored(candidate, messages...)
		return
	}

	if candidate.Role == RoleSystemAdmin && candidate.Provenance != ProvenanceSSO {
		count, err := s.repo.CountSystemAdmins(ctx)
		if err != nil {
			result.errored(candidate, fmt.Sprintf("persistence: %s", err.Error()))
			return
		}
		if count >= s.maxSystemAdmins {
			result.errored(candidate, fmt.Sprintf("role: %s", shared.ErrSystemAdminCapReached.Error()))
			return
		}
	}

	provenanceID := candidate.ProvenanceID
	if candidate.Provenance == ProvenanceInternalDirectory {
		id, ok := s.provisionIdentity(ctx, candidate, result)
		if !ok {
			return
		}
		provenanceID = id
	}

	now := s.clock()
	account := Account{
		ID:           uuid.NewString(),
		Provenance:   candidate.Provenance,
		ProvenanceID: provenanceID,
		Email:        candidate.Email,
		Role:         candidate.Role,
		Forenames:    candidate.Forenames,
		Surname:      candidate.Surname,
		CreatedDate:  now,
	}
	saved, err := s.repo.Save(ctx, account)
	if err != nil {
		// The provider identity, if one was created, is left in place:
		// an orphaned external identity is preferred over a lost account.
		result.errored(candidate, persistenceMessage(err))
		return
	}

	if !roleRequiresWelcome(saved.Role) {
		result.created(saved)
		return
	}
	if err := s.notifier.SendWelcome(ctx, saved.Email, saved.DisplayName()); err != nil {
		s.logger.Warn("welcome notification failed",
			slog.String("account_id", saved.ID),
			slog.Any("error", err))
		// Dual-reporting: the account exists and stays in created, and the
		// errored entry tells the operator to retry the notification only.
		result.created(saved)
		result.errored(candidate, fmt.Sprintf("account created, notification failed: %s", err.Error()))
		return
	}
	result.created(saved)
}

// provisionIdentity performs the duplicate check and external creation
// for directory-backed candidates. It reports per-item failures into
// the result and returns the provider identifier on success.
func (s *Service) provisionIdentity(ctx context.Context, candidate Candidate, result *BatchResult) (string, bool) {
	existing, err := s.provider.FindIdentityByEmail(ctx, candidate.Email)
	if err != nil {
		result.errored(candidate, err.Error())
		return "", false
	}
	if existing != nil {
		if existing.DisplayName != "" {
			result.errored(candidate, fmt.Sprintf("email: %s for %s", shared.ErrDuplicateIdentity.Error(), candidate.Email))
			return "", false
		}
		// An identity without a display name was never fully set up.
		// Finish it in place instead of minting a second identity.
		if err := s.provider.UpdateRole(ctx, existing.ProviderID, candidate.Role); err != nil {
			result.errored(candidate, err.Error())
			return "", false
		}
		return existing.ProviderID, true
	}

	password, err := GeneratePassword()
	if err != nil {
		result.errored(candidate, fmt.Sprintf("password generation: %s", err.Error()))
		return "", false
	}
	identity, err := s.provider.CreateIdentity(ctx, CreateIdentityRequest{
		Email:               candidate.Email,
		Forenames:           candidate.Forenames,
		Surname:             candidate.Surname,
		Role:                candidate.Role,
		Password:            password,
		ForcePasswordChange: true,
	})
	if err != nil {
		// Provider error text passes through verbatim so operators see
		// exactly what the directory rejected.
		result.errored(candidate, err.Error())
		return "", false
	}
	return identity.ProviderID, true
}

// GetAccount fetches an account by its identifier.
func (s *Service) GetAccount(ctx context.Context, id string) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

// GetAccountByProvenance fetches the account holding the
// (provenance, provenanceID) pair, which is unique across the store.
func (s *Service) GetAccountByProvenance(ctx context.Context, provenance Provenance, provenanceID string) (Account, error) {
	if !provenance.Valid() {
		return Account{}, fmt.Errorf("accounts: unrecognised provenance %q", string(provenance))
	}
	return s.repo.FindByProvenance(ctx, provenance, provenanceID)
}

// GetAccountByEmail fetches the account registered under the email
// within one provenance.
func (s *Service) GetAccountByEmail(ctx context.Context, email string, provenance Provenance) (Account, error) {
	if !provenance.Valid() {
		return Account{}, fmt.Errorf("accounts: unrecognised provenance %q", string(provenance))
	}
	return s.repo.FindByEmailAndProvenance(ctx, email, provenance)
}

// DeleteAccount removes the local record and, for internal-directory
// accounts, the provider identity. A provider identity that is already
// gone counts as deleted.
func (s *Service) DeleteAccount(ctx context.Context, id string) (Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := s.repo.Delete(ctx, account.ID); err != nil {
		return Account{}, fmt.Errorf("accounts: delete %s: %w", account.ID, err)
	}
	if account.Provenance == ProvenanceInternalDirectory {
		if err := s.provider.DeleteIdentity(ctx, account.ProvenanceID); err != nil && !errors.Is(err, ErrIdentityNotFound) {
			return Account{}, fmt.Errorf("accounts: delete provider identity for %s: %w", account.ID, err)
		}
	}
	s.logger.Info("account deleted",
		slog.String("account_id", account.ID),
		slog.String("provenance", string(account.Provenance)))
	return account, nil
}

// UpdateRole changes an account's role, propagating the change to the
// identity provider for internal-directory accounts.
func (s *Service) UpdateRole(ctx context.Context, id string, role Role) (Account, error) {
	if !role.Valid() {
		return Account{}, fmt.Errorf("accounts: unrecognised role %q", string(role))
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if role.IsThirdParty() != (account.Provenance == ProvenanceThirdParty) {
		return Account{}, fmt.Errorf("accounts: role %s may not be combined with provenance %s", role, account.Provenance)
	}
	if err := s.repo.UpdateRole(ctx, account.ID, role); err != nil {
		return Account{}, err
	}
	if account.Provenance == ProvenanceInternalDirectory {
		if err := s.provider.UpdateRole(ctx, account.ProvenanceID, role); err != nil {
			return Account{}, fmt.Errorf("accounts: provider role update for %s: %w", account.ID, err)
		}
	}
	account.Role = role
	return account, nil
}

// TouchVerified records a successful verification for media accounts.
func (s *Service) TouchVerified(ctx context.Context, id string) error {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if account.Role != RoleVerified {
		return fmt.Errorf("accounts: %s is not a verified media account", id)
	}
	return s.repo.UpdateLastVerified(ctx, account.ID, s.clock())
}

// TouchSignedIn records a sign-in event against the account.
func (s *Service) TouchSignedIn(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateLastSignedIn(ctx, id, s.clock())
}

func roleRequiresWelcome(role Role) bool {
	switch role.Tier() {
	case TierStandard:
		return true
	case TierAdmin, TierSuperAdmin, TierSystemAdmin:
		return true
	}
	return false
}

func persistenceMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Sprintf("persistence: account already exists (%s)", pgErr.ConstraintName)
	}
	return fmt.Sprintf("persistence: %s", err.Error())
}
