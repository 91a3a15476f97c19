package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtlist/courtlist/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, provenance, provenance_id, email, role, forenames, surname, created_date, last_verified_date, last_signed_in_date`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Provenance, &a.ProvenanceID, &a.Email, &a.Role,
		&a.Forenames, &a.Surname, &a.CreatedDate, &a.LastVerified, &a.LastSignedIn)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrNotFound
	}
	return a, err
}

// Save inserts the account and returns the persisted record.
func (r *Repository) Save(ctx context.Context, account Account) (Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, provenance, provenance_id, email, role, forenames, surname, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+accountColumns,
		account.ID, account.Provenance, account.ProvenanceID, account.Email,
		account.Role, account.Forenames, account.Surname, account.CreatedDate)
	return scanAccount(row)
}

// FindByID returns the account with the given identifier.
func (r *Repository) FindByID(ctx context.Context, id string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindByProvenance returns the account holding (provenance, provenanceID).
func (r *Repository) FindByProvenance(ctx context.Context, provenance Provenance, provenanceID string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE provenance = $1 AND provenance_id = $2`, provenance, provenanceID)
	return scanAccount(row)
}

// FindByEmailAndProvenance returns the account holding (email, provenance).
func (r *Repository) FindByEmailAndProvenance(ctx context.Context, email string, provenance Provenance) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1 AND provenance = $2`, email, provenance)
	return scanAccount(row)
}

// CountSystemAdmins counts SYSTEM_ADMIN accounts outside the SSO flow.
func (r *Repository) CountSystemAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE role = $1 AND provenance <> $2`,
		RoleSystemAdmin, ProvenanceSSO).Scan(&count)
	return count, err
}

// UpdateRole changes the stored role.
func (r *Repository) UpdateRole(ctx context.Context, id string, role Role) error {
	return r.exec(ctx, `UPDATE accounts SET role = $2 WHERE id = $1`, id, role)
}

// UpdateLastVerified stamps the last verification instant.
func (r *Repository) UpdateLastVerified(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_verified_date = $2 WHERE id = $1`, id, at)
}

// UpdateLastSignedIn stamps the last sign-in instant.
func (r *Repository) UpdateLastSignedIn(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE accounts SET last_signed_in_date = $2 WHERE id = $1`, id, at)
}

// Delete removes the account row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindStaleByClass returns accounts of the given class whose relevant
// activity date falls before the threshold. Accounts that were never
// verified or never signed in are measured from their creation date.
func (r *Repository) FindStaleByClass(ctx context.Context, class StaleClass, threshold time.Time) ([]Account, error) {
	var (
		sql  string
		args []any
	)
	switch class {
	case ClassMedia:
		sql = `SELECT ` + accountColumns + ` FROM accounts
			WHERE role = $1 AND COALESCE(last_verified_date, created_date) < $2
			ORDER BY created_date`
		args = []any{RoleVerified, threshold}
	case ClassDirectoryAdmin:
		sql = `SELECT ` + accountColumns + ` FROM accounts
			WHERE role = ANY($1) AND provenance = $2 AND COALESCE(last_signed_in_date, created_date) < $3
			ORDER BY created_date`
		args = []any{adminRoles(), ProvenanceInternalDirectory, threshold}
	case ClassCaseManagementAdmin:
		sql = `SELECT ` + accountColumns + ` FROM accounts
			WHERE role = ANY($1) AND provenance = ANY($2) AND COALESCE(last_signed_in_date, created_date) < $3
			ORDER BY created_date`
		args = []any{adminRoles(), []Provenance{ProvenanceCourtIdam, ProvenanceCrimeIdam}, threshold}
	default:
		return nil, fmt.Errorf("accounts: unrecognised stale class %q", string(class))
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Provenance, &a.ProvenanceID, &a.Email, &a.Role,
			&a.Forenames, &a.Surname, &a.CreatedDate, &a.LastVerified, &a.LastSignedIn); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func adminRoles() []Role {
	return []Role{RoleSystemAdmin, RoleSuperAdminCTSC, RoleSuperAdminLocal, RoleAdminCTSC, RoleAdminLocal}
}
