package listings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtlist/courtlist/internal/accounts"
	"github.com/courtlist/courtlist/internal/platform/httpx"
)

// AccountSource resolves accounts for visibility checks.
type AccountSource interface {
	GetAccount(ctx context.Context, id string) (accounts.Account, error)
}

// Handler exposes the content visibility check endpoint.
type Handler struct {
	logger   *slog.Logger
	accounts AccountSource
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, source AccountSource) *Handler {
	return &Handler{logger: logger, accounts: source}
}

// MountRoutes registers visibility routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts/{id}/can-view", h.canView)
}

func (h *Handler) canView(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	listType := ListType(r.URL.Query().Get("listType"))
	sensitivity := Sensitivity(r.URL.Query().Get("sensitivity"))
	allowed := MayView(account.Role, account.Provenance, listType, sensitivity)
	httpx.JSON(w, http.StatusOK, map[string]bool{"authorized": allowed})
}
