package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Dak6000/ETax-Togo/internal/admin/service"
	"github.com/Dak6000/ETax-Togo/internal/server/respond"
)

// Handler exposes the admin service over HTTP. All routes assume the
// authentication and admin-role middleware already ran.
type Handler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewHandler returns an admin Handler.
func NewHandler(admin *service.AdminService, logger *slog.Logger) *Handler {
	return &Handler{admin: admin, logger: logger}
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		h.serverError(w, "load stats", err)
		return
	}
	respond.JSON(w, http.StatusOK, "", stats)
}

// Revenue handles GET /api/admin/revenue?period=monthly|yearly.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	series, err := h.admin.Revenue(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.serverError(w, "load revenue", err)
		return
	}
	respond.JSON(w, http.StatusOK, "", series)
}

// Activity handles GET /api/admin/activity.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 10)
	feed, err := h.admin.RecentActivity(r.Context(), limit)
	if err != nil {
		h.serverError(w, "load activity", err)
		return
	}
	respond.JSON(w, http.StatusOK, "", map[string]any{"activities": feed})
}

// Users handles GET /api/admin/users.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 10)
	users, err := h.admin.UsersList(r.Context(), limit)
	if err != nil {
		h.serverError(w, "load users", err)
		return
	}
	respond.JSON(w, http.StatusOK, "", map[string]any{"users": users})
}

// UnpaidTaxes handles GET /api/admin/unpaid-taxes?sector=...
func (h *Handler) UnpaidTaxes(w http.ResponseWriter, r *http.Request) {
	items, err := h.admin.UnpaidTaxes(r.Context(), r.URL.Query().Get("sector"))
	if err != nil {
		h.serverError(w, "load unpaid taxes", err)
		return
	}
	respond.JSON(w, http.StatusOK, "", map[string]any{"taxes": items})
}

type taxActionRequest struct {
	TaxID string `json:"tax_id"`
}

// MarkPaid handles POST /api/admin/mark-paid.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req taxActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaxID == "" {
		respond.Error(w, http.StatusBadRequest, "tax_id is required")
		return
	}
	if err := h.admin.MarkTaxPaid(r.Context(), req.TaxID); err != nil {
		if errors.Is(err, service.ErrTaxNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.serverError(w, "mark tax paid", err)
		return
	}
	respond.JSON(w, http.StatusOK, "tax marked as paid", nil)
}

// SendReminder handles POST /api/admin/remind-payment.
func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	var req taxActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaxID == "" {
		respond.Error(w, http.StatusBadRequest, "tax_id is required")
		return
	}
	if err := h.admin.SendReminder(r.Context(), req.TaxID); err != nil {
		if errors.Is(err, service.ErrTaxNotFound) {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		h.serverError(w, "send reminder", err)
		return
	}
	respond.JSON(w, http.StatusOK, "reminder sent", nil)
}

// Export handles GET /api/admin/export/{type}, streaming a CSV attachment
// for the "unpaid_taxes" or "users" dataset.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.admin.Export(r.Context(), mux.Vars(r)["type"])
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedExport) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.serverError(w, "export", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+data.Filename+`"`)
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Header); err != nil {
		h.logger.Error("write csv header", "error", err)
		return
	}
	if err := cw.WriteAll(data.Rows); err != nil {
		h.logger.Error("write csv rows", "error", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("admin request failed", "op", op, "error", err)
	respond.Error(w, http.StatusInternalServerError, "internal server error")
}

func queryLimit(r *http.Request, fallback int32) int32 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n <= 0 {
		return fallback
	}
	return int32(n)
}
