package accounts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtlist/courtlist/internal/platform/httpx"
	"github.com/courtlist/courtlist/internal/shared"
)

// ManagementAuthorizer decides whether the acting account may update or
// delete the target account.
type ManagementAuthorizer interface {
	CanUpdate(ctx context.Context, actorID, targetID string) (bool, error)
	CanDelete(ctx context.Context, actorID, targetID string) (bool, error)
}

// ReplayGuard rejects request keys that were already processed, so a
// retried batch POST cannot provision its accounts twice.
type ReplayGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

// Handler exposes the account management endpoints. The upstream
// gateway authenticates callers and forwards the acting account id in
// X-Actor-Id.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	authorizer  ManagementAuthorizer
	idempotency ReplayGuard
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authorizer ManagementAuthorizer, idempotency ReplayGuard) *Handler {
	return &Handler{logger: logger, service: service, authorizer: authorizer, idempotency: idempotency}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createAccounts)
	r.Get("/by-email", h.getAccountByEmail)
	r.Get("/provenance/{provenance}/{provenanceId}", h.getAccountByProvenance)
	r.Get("/{id}", h.getAccount)
	r.Delete("/{id}", h.deleteAccount)
	r.Put("/{id}/role", h.updateRole)
	r.Post("/{id}/verified", h.touchVerified)
	r.Post("/{id}/signed-in", h.touchSignedIn)
}

func (h *Handler) createAccounts(w http.ResponseWriter, r *http.Request) {
	var candidates []Candidate
	if err := httpx.DecodeJSON(r, &candidates); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "request body must be a JSON array of candidates")
		return
	}
	if len(candidates) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "at least one candidate is required")
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "accounts"); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	issuerID := shared.ActorFromContext(r.Context())
	result, err := h.service.CreateAccounts(r.Context(), issuerID, candidates)
	if err != nil {
		h.logger.Error("create accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusCreated
	if len(result.Created) == 0 {
		status = http.StatusBadRequest
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accountResponse(account))
}

func (h *Handler) getAccountByProvenance(w http.ResponseWriter, r *http.Request) {
	provenance := Provenance(chi.URLParam(r, "provenance"))
	account, err := h.service.GetAccountByProvenance(r.Context(), provenance, chi.URLParam(r, "provenanceId"))
	if err != nil {
		if !provenance.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "provenance: unrecognised value")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accountResponse(account))
}

func (h *Handler) getAccountByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	provenance := Provenance(r.URL.Query().Get("provenance"))
	if email == "" || !provenance.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and a recognised provenance are required")
		return
	}
	account, err := h.service.GetAccountByEmail(r.Context(), email, provenance)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accountResponse(account))
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	actorID := shared.ActorFromContext(r.Context())
	targetID := chi.URLParam(r, "id")
	ok, err := h.authorizer.CanDelete(r.Context(), actorID, targetID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !ok {
		httpx.RespondError(w, shared.ErrPermissionDenied)
		return
	}
	if _, err := h.service.DeleteAccount(r.Context(), targetID); err != nil {
		h.logger.Error("delete account", slog.String("target_id", targetID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateRoleRequest struct {
	Role Role `json:"role"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || !req.Role.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "role: unrecognised value")
		return
	}
	actorID := shared.ActorFromContext(r.Context())
	targetID := chi.URLParam(r, "id")
	ok, err := h.authorizer.CanUpdate(r.Context(), actorID, targetID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !ok {
		httpx.RespondError(w, shared.ErrPermissionDenied)
		return
	}
	account, err := h.service.UpdateRole(r.Context(), targetID, req.Role)
	if err != nil {
		h.logger.Error("update role", slog.String("target_id", targetID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accountResponse(account))
}

func (h *Handler) touchVerified(w http.ResponseWriter, r *http.Request) {
	if err := h.service.TouchVerified(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) touchSignedIn(w http.ResponseWriter, r *http.Request) {
	if err := h.service.TouchSignedIn(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type accountDTO struct {
	ID           string  `json:"id"`
	Provenance   string  `json:"provenance"`
	ProvenanceID string  `json:"provenanceId"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	Forenames    string  `json:"forenames,omitempty"`
	Surname      string  `json:"surname,omitempty"`
	CreatedDate  string  `json:"createdDate"`
	LastVerified *string `json:"lastVerifiedDate,omitempty"`
	LastSignedIn *string `json:"lastSignedInDate,omitempty"`
}

func accountResponse(a Account) accountDTO {
	dto := accountDTO{
		ID:           a.ID,
		Provenance:   string(a.Provenance),
		ProvenanceID: a.ProvenanceID,
		Email:        a.Email,
		Role:         string(a.Role),
		Forenames:    a.Forenames,
		Surname:      a.Surname,
		CreatedDate:  a.CreatedDate.Format("2006-01-02T15:04:05Z07:00"),
	}
	if a.LastVerified != nil {
		s := a.LastVerified.Format("2006-01-02T15:04:05Z07:00")
		dto.LastVerified = &s
	}
	if a.LastSignedIn != nil {
		s := a.LastSignedIn.Format("2006-01-02T15:04:05Z07:00")
		dto.LastSignedIn = &s
	}
	return dto
}
