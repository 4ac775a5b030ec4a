package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dak6000/ETax-Togo/internal/auth/service"
	"github.com/Dak6000/ETax-Togo/internal/server/middleware"
	"github.com/Dak6000/ETax-Togo/internal/server/respond"
	userdomain "github.com/Dak6000/ETax-Togo/internal/user/domain"
)

// Handler exposes the auth service over HTTP.
type Handler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewHandler returns an auth Handler.
func NewHandler(auth *service.AuthService, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

type registerRequest struct {
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	Address      string `json:"address"`
	FiscalNumber string `json:"fiscal_number"`
	Sector       string `json:"sector"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	FiscalNumber    string `json:"fiscal_number"`
	Sector          string `json:"sector"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// userDTO is the wire form of a user, without the password hash.
type userDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	FiscalNumber string    `json:"fiscal_number"`
	Sector       string    `json:"sector"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserDTO(u *userdomain.User) userDTO {
	return userDTO{
		ID:           u.ID,
		Name:         u.FirstName,
		Surname:      u.LastName,
		Email:        u.Email,
		Phone:        u.Phone,
		Address:      u.Address,
		FiscalNumber: u.FiscalNumber,
		Sector:       u.Sector,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

type authPayload struct {
	User       userDTO   `json:"user"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	RedirectTo string    `json:"redirect_to"`
}

func toAuthPayload(res *service.AuthResult) authPayload {
	return authPayload{
		User:       toUserDTO(res.User),
		Token:      res.Token,
		ExpiresAt:  res.ExpiresAt,
		RedirectTo: res.RedirectTo,
	}
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		FirstName:    req.Name,
		LastName:     req.Surname,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Address:      req.Address,
		FiscalNumber: req.FiscalNumber,
		Sector:       req.Sector,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "registration successful", toAuthPayload(res))
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", toAuthPayload(res))
}

// Logout handles POST /api/auth/logout. Logging out without a token, or with
// a token that no longer maps to a session, still succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "logout successful", nil)
}

// Profile handles GET /api/auth/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	profile, err := h.auth.Profile(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "", toUserDTO(profile))
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := middleware.UserFromContext(r.Context())
	updated, err := h.auth.UpdateProfile(r.Context(), user.ID, service.UpdateProfileInput{
		FirstName:       req.Name,
		LastName:        req.Surname,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		FiscalNumber:    req.FiscalNumber,
		Sector:          req.Sector,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", toUserDTO(updated))
}

// writeError maps service errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respond.ErrorData(w, http.StatusBadRequest, "validation failed", map[string]any{"errors": verrs})
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrFiscalNumberTaken),
		errors.Is(err, service.ErrCurrentPasswordMissing),
		errors.Is(err, service.ErrCurrentPasswordMismatch):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("auth request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
