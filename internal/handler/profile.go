package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/authflow/internal/middleware"
)

func (h *AuthHandler) UpdateName(c echo.Context) error {
	var req nameReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	trimAll(&req.Name)
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Svc.UpdateName(ctx, middleware.AccountID(c), req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Name updated", "user": a.Public()})
}

// UpdatePhone always drops phone verification, even for the same number.
func (h *AuthHandler) UpdatePhone(c echo.Context) error {
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

	a, err := h.Svc.UpdatePhone(ctx, middleware.AccountID(c), req.Phone)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Phone updated. Please verify the new number.",
		"user":    a.Public(),
	})
}

func (h *AuthHandler) Toggle2FA(c echo.Context) error {
	var req toggleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	a, err := h.Svc.Toggle2FA(ctx, middleware.AccountID(c), *req.Enabled)
	if err != nil {
		return writeError(c, err)
	}
	msg := "Two-factor authentication disabled"
	if a.Is2FAEnabled {
		msg = "Two-factor authentication enabled"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "user": a.Public()})
}
