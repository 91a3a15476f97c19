package accounts

import (
	"context"
	"errors"
	"time"
)

// ErrIdentityNotFound is returned by identity provider implementations
// when the referenced identity does not exist. The deletion primitive
// treats it as success.
var ErrIdentityNotFound = errors.New("provider identity not found")

// Identity is the provider-side view of an account.
type Identity struct {
	ProviderID  string
	Email       string
	DisplayName string
	Role        Role
}

// CreateIdentityRequest carries the fields the provider needs to mint a
// new identity. The password is temporary and the provider is told to
// force a change on first sign-in.
type CreateIdentityRequest struct {
	Email               string
	Forenames           string
	Surname             string
	Role                Role
	Password            string
	ForcePasswordChange bool
}

// IdentityProvider is the external identity provider contract. Find
// returns nil with no error when no identity holds the email.
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, req CreateIdentityRequest) (Identity, error)
	FindIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	DeleteIdentity(ctx context.Context, providerID string) error
	UpdateRole(ctx context.Context, providerID string, role Role) error
}

// StaleClass selects one of the three independently scheduled
// inactivity populations.
type StaleClass string

const (
	// ClassMedia covers VERIFIED accounts, measured against lastVerified.
	ClassMedia StaleClass = "MEDIA"
	// ClassDirectoryAdmin covers admin-tier accounts provisioned in the
	// internal directory, measured against lastSignedIn.
	ClassDirectoryAdmin StaleClass = "DIRECTORY_ADMIN"
	// ClassCaseManagementAdmin covers admin-tier accounts originating from
	// the court or crime case-management systems, measured against
	// lastSignedIn.
	ClassCaseManagementAdmin StaleClass = "CASE_MANAGEMENT_ADMIN"
)

// RepositoryPort defines persistence operations for accounts.
type RepositoryPort interface {
	Save(ctx context.Context, account Account) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	FindByProvenance(ctx context.Context, provenance Provenance, provenanceID string) (Account, error)
	FindByEmailAndProvenance(ctx context.Context, email string, provenance Provenance) (Account, error)
	FindStaleByClass(ctx context.Context, class StaleClass, threshold time.Time) ([]Account, error)
	CountSystemAdmins(ctx context.Context) (int, error)
	UpdateRole(ctx context.Context, id string, role Role) error
	UpdateLastVerified(ctx context.Context, id string, at time.Time) error
	UpdateLastSignedIn(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Notifier dispatches account emails. Implementations own templating and
// delivery; failures here never undo a created account.
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendVerificationReminder(ctx context.Context, email, name string) error
	SendInactivityNotice(ctx context.Context, email, name string, provenance Provenance, lastDate time.Time) error
}
