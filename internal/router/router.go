// Package router registers the HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/authflow/internal/handler"
	"github.com/iliyamo/authflow/internal/middleware"
	"github.com/iliyamo/authflow/internal/utils"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints.  Signup, login, email
// verification and 2FA redemption are public; everything that acts on "my
// account" sits behind JWTAuth.  Phone verification also accepts the
// onboarding credential, since an account cannot log in before it is active.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, sessions *utils.SessionIssuer) {
	g := e.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.GET("/verify-email", a.VerifyEmail)
	g.POST("/verify-2fa", a.VerifyTwoFactor)

	onboarding := middleware.JWTAuth(sessions, utils.PurposeAccess, utils.PurposeOnboarding)
	g.POST("/send-phone-verification", a.SendPhoneVerification, onboarding)
	g.POST("/verify-phone", a.VerifyPhone, onboarding)

	auth := g.Group("", middleware.JWTAuth(sessions))
	auth.GET("/me", a.Me)
	auth.PUT("/profile/name", a.UpdateName)
	auth.PUT("/profile/phone", a.UpdatePhone)
	auth.POST("/profile/2fa/toggle", a.Toggle2FA)
}
