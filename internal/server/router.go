// Package server assembles the HTTP API from handlers and middleware.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	adminhandler "github.com/Dak6000/ETax-Togo/internal/admin/handler"
	authhandler "github.com/Dak6000/ETax-Togo/internal/auth/handler"
	"github.com/Dak6000/ETax-Togo/internal/server/middleware"
	"github.com/Dak6000/ETax-Togo/internal/server/respond"
	taxhandler "github.com/Dak6000/ETax-Togo/internal/tax/handler"
)

// Deps carries everything the router needs.
type Deps struct {
	Auth          *authhandler.Handler
	Taxes         *taxhandler.Handler
	Admin         *adminhandler.Handler
	Authenticator *middleware.Authenticator
	Logger        *slog.Logger
}

// NewRouter builds the full route table: public auth routes, token-protected
// user routes, and admin-only routes.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(d.Logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "route not found")
	})

	r.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, "ok", nil)
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", d.Auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", d.Auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", d.Auth.Logout).Methods(http.MethodPost)

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(d.Authenticator.Authenticate)
	authed.HandleFunc("/auth/profile", d.Auth.Profile).Methods(http.MethodGet)
	authed.HandleFunc("/auth/profile", d.Auth.UpdateProfile).Methods(http.MethodPut)
	authed.HandleFunc("/taxes", d.Taxes.List).Methods(http.MethodGet)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(d.Authenticator.Authenticate, middleware.RequireAdmin)
	admin.HandleFunc("/stats", d.Admin.Stats).Methods(http.MethodGet)
	admin.HandleFunc("/revenue", d.Admin.Revenue).Methods(http.MethodGet)
	admin.HandleFunc("/activity", d.Admin.Activity).Methods(http.MethodGet)
	admin.HandleFunc("/users", d.Admin.Users).Methods(http.MethodGet)
	admin.HandleFunc("/unpaid-taxes", d.Admin.UnpaidTaxes).Methods(http.MethodGet)
	admin.HandleFunc("/mark-paid", d.Admin.MarkPaid).Methods(http.MethodPost)
	admin.HandleFunc("/remind-payment", d.Admin.SendReminder).Methods(http.MethodPost)
	admin.HandleFunc("/export/{type}", d.Admin.Export).Methods(http.MethodGet)

	return r
}
