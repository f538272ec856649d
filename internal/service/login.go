package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/authflow/internal/model"
	"github.com/iliyamo/authflow/internal/repository"
	"github.com/iliyamo/authflow/internal/utils"
)

// LoginResult is either a bearer credential (Session) or, for accounts with
// 2FA enabled, a challenge that must be redeemed with the texted code.
type LoginResult struct {
	Account     *model.Account
	Session     *utils.AccessToken
	Requires2FA bool
	Challenge   *utils.AccessToken
	Onboarding  *utils.AccessToken
}

// Login checks existence, then the password, then activation.  The first
// two failures are indistinguishable to the caller.
//
// When only activation fails, Login returns ErrNotActivated together with a
// result carrying an onboarding credential: the password was right, and the
// caller needs a way to finish phone verification.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validation("email and password are required")
	}

	a, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Verify(s.dummy(), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, internal("lookup account", err)
	}
	if !s.hasher.Verify(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !a.IsActive {
		ob, err := s.sessions.IssueOnboarding(a.ID)
		if err != nil {
			return nil, ErrNotActivated
		}
		return &LoginResult{Account: a, Onboarding: &ob}, ErrNotActivated
	}

	if a.Is2FAEnabled && a.IsPhoneVerified && a.Phone != nil {
		return s.startTwoFactor(ctx, a)
	}
	tok, err := s.sessions.Issue(a.ID)
	if err != nil {
		return nil, internal("issue session", err)
	}
	s.log.Info(ctx, "login", "account_id", a.ID)
	return &LoginResult{Account: a, Session: &tok}, nil
}

func (s *AccountService) startTwoFactor(ctx context.Context, a *model.Account) (*LoginResult, error) {
	code, err := utils.NewPhoneCode()
	if err != nil {
		return nil, internal("generate login code", err)
	}
	if err := s.dispatch.SendLoginCode(ctx, *a.Phone, code); err != nil {
		s.log.Warn(ctx, "login code not sent", "account_id", a.ID, "error", err)
		return nil, delivery("failed to send login code", err)
	}
	now := s.now()
	updated, err := s.store.Update(ctx, a.ID, func(a *model.Account) error {
		a.SetTwoFactorCode(code, now.Add(utils.PhoneCodeTTL).UTC())
		a.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrInvalidCredentials)
	}
	ch, err := s.sessions.IssueChallenge(a.ID)
	if err != nil {
		return nil, internal("issue challenge", err)
	}
	s.log.Info(ctx, "login challenge issued", "account_id", a.ID)
	return &LoginResult{Account: updated, Requires2FA: true, Challenge: &ch}, nil
}

// VerifyTwoFactor redeems a login challenge with the texted code and issues
// the bearer credential.  The code is single-use.
func (s *AccountService) VerifyTwoFactor(ctx context.Context, challenge, code string) (*LoginResult, error) {
	challenge, code = strings.TrimSpace(challenge), strings.TrimSpace(code)
	if challenge == "" || code == "" {
		return nil, validation("challenge and code are required")
	}
	id, err := s.sessions.Parse(challenge, utils.PurposeChallenge)
	if err != nil {
		return nil, ErrInvalidCode
	}
	now := s.now()
	a, err := s.store.Update(ctx, id, func(a *model.Account) error {
		if !a.TwoFactorCodeMatches(code, now) {
			return ErrInvalidCode
		}
		a.ConsumeTwoFactorCode()
		a.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrInvalidCode)
	}
	if !a.IsActive {
		return nil, ErrNotActivated
	}
	tok, err := s.sessions.Issue(a.ID)
	if err != nil {
		return nil, internal("issue session", err)
	}
	s.log.Info(ctx, "login", "account_id", a.ID, "2fa", true)
	return &LoginResult{Account: a, Session: &tok}, nil
}

func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(dummyPassword)
	})
	return s.dummyHash
}
