// Package authz decides whether an acting administrator may manage
// another account, based on the role hierarchy.
package authz

import (
	"context"
	"log/slog"

	"github.com/courtlist/courtlist/internal/accounts"
	"github.com/courtlist/courtlist/internal/shared"
)

// Action labels the two management entry points. They share one rule
// table today but stay separate because delete and update policy may
// diverge.
type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AccountSource resolves accounts by identifier.
type AccountSource interface {
	FindByID(ctx context.Context, id string) (accounts.Account, error)
}

// Recorder persists audit entries for denied checks.
type Recorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Authorizer evaluates the role hierarchy for account management.
type Authorizer struct {
	logger   *slog.Logger
	accounts AccountSource
	audit    Recorder
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(logger *slog.Logger, source AccountSource, audit Recorder) *Authorizer {
	return &Authorizer{logger: logger, accounts: source, audit: audit}
}

// managedTiers is the closed rule table: which target tiers each actor
// tier may manage. Third-party targets are excluded below the table and
// never appear as permitted targets.
var managedTiers = map[accounts.Tier][]accounts.Tier{
	accounts.TierSystemAdmin: {accounts.TierSystemAdmin, accounts.TierSuperAdmin, accounts.TierAdmin, accounts.TierStandard},
	accounts.TierSuperAdmin:  {accounts.TierSuperAdmin, accounts.TierAdmin},
	accounts.TierAdmin:       {},
	accounts.TierStandard:    {},
	accounts.TierThirdParty:  {},
}

// CanUpdate reports whether actorID may update targetID. A missing
// actor or target propagates as shared.ErrNotFound, never as a denial.
func (a *Authorizer) CanUpdate(ctx context.Context, actorID, targetID string) (bool, error) {
	return a.decide(ctx, ActionUpdate, actorID, targetID)
}

// CanDelete reports whether actorID may delete targetID.
func (a *Authorizer) CanDelete(ctx context.Context, actorID, targetID string) (bool, error) {
	return a.decide(ctx, ActionDelete, actorID, targetID)
}

func (a *Authorizer) decide(ctx context.Context, action Action, actorID, targetID string) (bool, error) {
	actor, err := a.accounts.FindByID(ctx, actorID)
	if err != nil {
		return false, err
	}
	target, err := a.accounts.FindByID(ctx, targetID)
	if err != nil {
		return false, err
	}

	if actor.ID == target.ID {
		a.deny(ctx, action, actor, target, "self-management is not permitted")
		return false, nil
	}
	if target.Role.IsThirdParty() {
		a.deny(ctx, action, actor, target, "third-party accounts are not managed through this path")
		return false, nil
	}
	for _, tier := range managedTiers[actor.Role.Tier()] {
		if tier == target.Role.Tier() {
			return true, nil
		}
	}
	a.deny(ctx, action, actor, target, "actor tier does not manage target tier")
	return false, nil
}

// deny emits exactly one security-audit log line per refused check and
// records it to the audit trail. Granted checks are not logged.
func (a *Authorizer) deny(ctx context.Context, action Action, actor, target accounts.Account, reason string) {
	a.logger.Warn("account management denied",
		slog.String("action", string(action)),
		slog.String("actor_id", actor.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_tier", actor.Role.Tier().String()),
		slog.String("target_tier", target.Role.Tier().String()),
		slog.String("reason", reason))
	if a.audit == nil {
		return
	}
	err := a.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "account." + string(action) + ".denied",
		Entity:   "account",
		EntityID: target.ID,
		Meta: map[string]any{
			"actor_tier":  actor.Role.Tier().String(),
			"target_tier": target.Role.Tier().String(),
			"reason":      reason,
		},
	})
	if err != nil {
		a.logger.Error("record denial audit entry", slog.Any("error", err))
	}
}
