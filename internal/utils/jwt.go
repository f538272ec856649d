package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // sentinel errors for token parsing
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Purposes distinguish a bearer credential from a short-lived 2FA challenge
// and from the onboarding credential an inactive account uses to verify its
// phone.  A token minted for one purpose is rejected when parsed for another.
const (
	PurposeAccess     = "access"
	PurposeChallenge  = "2fa"
	PurposeOnboarding = "onboarding"
)

// SessionTTL is the fixed validity window of a bearer credential.
const SessionTTL = 24 * time.Hour

// ChallengeTTL is the validity window of a 2FA login challenge.
const ChallengeTTL = 10 * time.Minute

// OnboardingTTL is the validity window of an onboarding credential.
const OnboardingTTL = time.Hour

// ErrInvalidSession is returned for any token that fails signature, expiry
// or purpose checks.
var ErrInvalidSession = errors.New("invalid session token")

// AccessToken represents a signed JWT along with its expiry.  The Token field
// contains the JWT string.  Exp stores the expiration timestamp.
type AccessToken struct {
	Token string    `json:"token"`   // the serialized JWT string
	Exp   time.Time `json:"expires"` // the UTC expiration time
}

// Claims carries the account id in the standard subject claim plus the
// purpose the token was minted for.
type Claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// SessionIssuer signs and verifies HS256 tokens scoped to an account id.
type SessionIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewSessionIssuer builds an issuer for the given signing secret.
func NewSessionIssuer(secret string) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.  Used by tests.
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	c := *s
	c.now = now
	return &c
}

// Issue builds a bearer credential valid for SessionTTL.
func (s *SessionIssuer) Issue(accountID string) (AccessToken, error) {
	return s.sign(accountID, PurposeAccess, SessionTTL)
}

// IssueChallenge builds a 2FA challenge valid for ChallengeTTL.
func (s *SessionIssuer) IssueChallenge(accountID string) (AccessToken, error) {
	return s.sign(accountID, PurposeChallenge, ChallengeTTL)
}

// IssueOnboarding builds a credential that only unlocks phone verification.
func (s *SessionIssuer) IssueOnboarding(accountID string) (AccessToken, error) {
	return s.sign(accountID, PurposeOnboarding, OnboardingTTL)
}

// Parse validates raw and returns the account id if it was minted for one of
// the accepted purposes.
func (s *SessionIssuer) Parse(raw string, purposes ...string) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Ensure the signing method is what we expect.  Reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return "", ErrInvalidSession
	}
	if claims.Subject == "" {
		return "", ErrInvalidSession
	}
	for _, p := range purposes {
		if claims.Purpose == p {
			return claims.Subject, nil
		}
	}
	return "", ErrInvalidSession
}

func (s *SessionIssuer) sign(accountID, purpose string, ttl time.Duration) (AccessToken, error) {
	// Calculate the expiration time by adding the TTL to the current UTC time.
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Purpose: purpose,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// Sign the token with the secret and obtain the string form.
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
