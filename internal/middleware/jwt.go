// Package middleware holds the echo middleware shared by the HTTP routes:
// bearer authentication and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/authflow/internal/utils"
)

// AccountIDKey is the echo context key holding the authenticated account id.
const AccountIDKey = "account_id"

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error": echo.Map{"kind": "authentication", "message": msg},
	})
}

// JWTAuth validates a Bearer credential and stores its subject under
// AccountIDKey.  Only tokens minted for one of purposes pass; with none given
// that is utils.PurposeAccess.  Login challenges are signed with the same key
// but are never accepted here.
func JWTAuth(sessions *utils.SessionIssuer, purposes ...string) echo.MiddlewareFunc {
	if len(purposes) == 0 {
		purposes = []string{utils.PurposeAccess}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			id, err := sessions.Parse(raw, purposes...)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			c.Set(AccountIDKey, id)
			return next(c)
		}
	}
}

// AccountID returns the id stored by JWTAuth, or "" on unauthenticated routes.
func AccountID(c echo.Context) string {
	id, _ := c.Get(AccountIDKey).(string)
	return id
}
