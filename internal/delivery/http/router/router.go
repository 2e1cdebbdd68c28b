// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"clio/internal/delivery/http/middleware"
	"clio/internal/delivery/http/router/handler"
	"clio/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	SessionHandler *handler.SessionHandler
	ProfileHandler *handler.ProfileHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	sessionHandler *handler.SessionHandler
	profileHandler *handler.ProfileHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		sessionHandler: params.SessionHandler,
		profileHandler: params.ProfileHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.RegisterUser)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh", r.authHandler.Refresh)
	}

	// Auth routes that require a live session
	authedAuthGroup := e.Group("/auth", r.authMiddleware.Authenticate)
	{
		authedAuthGroup.POST("/logout", r.authHandler.Logout)
		authedAuthGroup.POST("/logout-all", r.authHandler.LogoutAll)
	}

	// Session management routes
	sessionGroup := e.Group("/sessions", r.authMiddleware.Authenticate)
	{
		sessionGroup.GET("", r.sessionHandler.ListSessions)
		sessionGroup.DELETE("/others", r.sessionHandler.RevokeOtherSessions)
		sessionGroup.DELETE("/:id", r.sessionHandler.RevokeSession)
	}

	// Profile routes
	profileGroup := e.Group("/profile", r.authMiddleware.Authenticate)
	{
		profileGroup.GET("", r.profileHandler.GetProfile)
		profileGroup.POST("/image", r.profileHandler.UploadProfileImage)
	}

	// Back-office routes require the admin role on top of authentication
	adminGroup := e.Group("/admin", r.authMiddleware.Authenticate, r.authMiddleware.RequireRole(entity.RoleAdmin))
	{
		adminGroup.DELETE("/users/:id/sessions", r.sessionHandler.AdminRevokeUserSessions)
	}
}
