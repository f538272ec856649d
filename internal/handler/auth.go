package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/authflow/internal/middleware"
	"github.com/iliyamo/authflow/internal/service"
)

// requestTimeout bounds store and dispatch calls made for a single request.
const requestTimeout = 10 * time.Second

// AuthHandler exposes the account service over HTTP.
type AuthHandler struct {
	Svc *service.AccountService
}

func NewAuthHandler(svc *service.AccountService) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// Signup: create the account, then send the verification email.  A failed
// email still leaves the account in place, so the 500 body carries both.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	trimAll(&req.Name, &req.Email, &req.Phone)
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Svc.Signup(ctx, service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}
	if res.DeliveryErr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":          errorBody(res.DeliveryErr),
			"accountCreated": true,
			"user":           res.Account.Public(),
			"onboarding":     res.Onboarding,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "User created successfully. Please check your email to verify your account.",
		"user":       res.Account.Public(),
		"onboarding": res.Onboarding,
	})
}

// Login returns a bearer credential, or a 2FA challenge when the account
// has SMS confirmation enabled.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	trimAll(&req.Email)
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrNotActivated) && res != nil && res.Onboarding != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":      errorBody(err),
			"onboarding": res.Onboarding,
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	if res.Requires2FA {
		return c.JSON(http.StatusOK, echo.Map{
			"message":     "Verification code sent",
			"requires2FA": true,
			"challenge":   res.Challenge,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    res.Account.Public(),
		"token":   res.Session.Token,
		"expires": res.Session.Exp,
	})
}

// VerifyTwoFactor redeems a login challenge with the texted code.
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req twoFactorReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	trimAll(&req.Challenge, &req.Code)
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Svc.VerifyTwoFactor(ctx, req.Challenge, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    res.Account.Public(),
		"token":   res.Session.Token,
		"expires": res.Session.Exp,
	})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Svc.VerifyEmail(ctx, c.QueryParam("token")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Email verified successfully"})
}

func (h *AuthHandler) SendPhoneVerification(c echo.Context) error {
	var req phoneReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	trimAll(&req.Phone)
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Svc.SendPhoneVerification(ctx, middleware.AccountID(c), req.Phone); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Verification code sent successfully"})
}

func (h *AuthHandler) VerifyPhone(c echo.Context) error {
	var req codeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	trimAll(&req.Code)
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Svc.VerifyPhone(ctx, middleware.AccountID(c), req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Phone number verified successfully",
		"user":    a.Public(),
	})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Svc.Me(ctx, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": a.Public()})
}
