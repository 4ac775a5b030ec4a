package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dak6000/ETax-Togo/internal/server/middleware"
	"github.com/Dak6000/ETax-Togo/internal/server/respond"
	"github.com/Dak6000/ETax-Togo/internal/tax/domain"
)

// TaxLister is the tax lookup needed by the handler.
type TaxLister interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.Tax, error)
}

// Handler serves a user's own tax records.
type Handler struct {
	taxes  TaxLister
	logger *slog.Logger
}

// NewHandler returns a tax Handler.
func NewHandler(taxes TaxLister, logger *slog.Logger) *Handler {
	return &Handler{taxes: taxes, logger: logger}
}

type taxDTO struct {
	ID        string     `json:"id"`
	Amount    float64    `json:"amount"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	DueAt     time.Time  `json:"due_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// List handles GET /api/taxes, returning the authenticated user's records.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	taxes, err := h.taxes.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list taxes failed", "user_id", user.ID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]taxDTO, len(taxes))
	for i, t := range taxes {
		out[i] = taxDTO{
			ID:        t.ID,
			Amount:    t.Amount,
			Type:      t.Type,
			Status:    string(t.Status),
			DueAt:     t.DueAt,
			PaidAt:    t.PaidAt,
			CreatedAt: t.CreatedAt,
		}
	}
	respond.JSON(w, http.StatusOK, "", map[string]any{"taxes": out})
}
