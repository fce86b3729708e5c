package router

import (
	"go-clinic-auth/handler"
	"go-clinic-auth/model"
	"net/http"
)

func NewRouter(authHandler *handler.AuthHandler, guard *handler.AuthGuard) http.Handler {
	mux := http.NewServeMux()

	// Public routes bypass the guard entirely.
	mux.HandleFunc("/health", handler.HealthCheck)
	mux.Handle("/auth/sign-in", handler.ErrorHandlingMiddleware(authHandler.SignIn))
	mux.Handle("/auth/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))
	mux.Handle("/auth/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
	mux.Handle("/auth/recover-password", handler.ErrorHandlingMiddleware(authHandler.RecoverPassword))
	mux.Handle("/auth/reset-password", handler.ErrorHandlingMiddleware(authHandler.ResetPassword))
	mux.Handle("/auth/register", handler.ErrorHandlingMiddleware(authHandler.Register))

	// Authenticated routes, each declaring its allowed-role set.
	anyRole := guard.RequireRoles(model.RoleAll)
	elevated := guard.RequireRoles(model.RoleManager)

	mux.Handle("/auth/me", anyRole(handler.ErrorHandlingMiddleware(authHandler.Me)))
	mux.Handle("/auth/change-password", anyRole(handler.ErrorHandlingMiddleware(authHandler.ChangePassword)))
	mux.Handle("/auth/invites", elevated(handler.ErrorHandlingMiddleware(authHandler.CreateInvite)))

	return mux
}
