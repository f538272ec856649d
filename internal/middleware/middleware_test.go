package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/authflow/internal/logging"
	"github.com/iliyamo/authflow/internal/utils"
)

func protected(sessions *utils.SessionIssuer) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, AccountID(c))
	}, JWTAuth(sessions))
	return e
}

func get(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	sessions := utils.NewSessionIssuer("secret")
	e := protected(sessions)

	tok, err := sessions.Issue("acc-1")
	require.NoError(t, err)
	rec := get(e, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-1", rec.Body.String())

	rec = get(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"kind":"authentication","message":"missing bearer token"}}`, rec.Body.String())

	rec = get(e, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"kind":"authentication","message":"invalid token"}}`, rec.Body.String())

	foreign, err := utils.NewSessionIssuer("other").Issue("acc-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(e, "Bearer "+foreign.Token).Code)
}

func TestJWTAuthRejectsChallengeTokens(t *testing.T) {
	sessions := utils.NewSessionIssuer("secret")
	ch, err := sessions.IssueChallenge("acc-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(protected(sessions), "Bearer "+ch.Token).Code)
}

func TestJWTAuthOnboardingPurpose(t *testing.T) {
	sessions := utils.NewSessionIssuer("secret")
	ob, err := sessions.IssueOnboarding("acc-9")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(protected(sessions), "Bearer "+ob.Token).Code)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, AccountID(c))
	}, JWTAuth(sessions, utils.PurposeAccess, utils.PurposeOnboarding))
	rec := get(e, "Bearer "+ob.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-9", rec.Body.String())
}

type captureLogger struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := map[string]any{"level": level, "msg": msg}
	for i := 0; i+1 < len(args); i += 2 {
		m[args[i].(string)] = args[i+1]
	}
	l.entries = append(l.entries, m)
}

func (l *captureLogger) Debug(_ context.Context, msg string, args ...any) { l.record("debug", msg, args) }
func (l *captureLogger) Info(_ context.Context, msg string, args ...any) { l.record("info", msg, args) }
func (l *captureLogger) Warn(_ context.Context, msg string, args ...any) { l.record("warn", msg, args) }
func (l *captureLogger) Error(_ context.Context, msg string, args ...any) { l.record("error", msg, args) }
func (l *captureLogger) With(...any) logging.Logger { return l }

func TestRequestLogger(t *testing.T) {
	log := &captureLogger{}
	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/bad", func(c echo.Context) error { return c.JSON(http.StatusBadRequest, echo.Map{}) })

	for _, path := range []string{"/ok", "/bad"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, bytes.NewReader(nil)))
	}

	require.Len(t, log.entries, 2)
	assert.Equal(t, "info", log.entries[0]["level"])
	assert.Equal(t, "/ok", log.entries[0]["path"])
	assert.Equal(t, http.StatusOK, log.entries[0]["status"])
	assert.Equal(t, "warn", log.entries[1]["level"])
	assert.Equal(t, http.StatusBadRequest, log.entries[1]["status"])
}
