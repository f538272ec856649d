// Package service implements the account state machine: signup, email and
// phone verification, login with optional SMS confirmation, and profile
// changes.  It talks to storage, hashing, token signing and message dispatch
// only through the collaborators passed to NewAccountService.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/authflow/internal/logging"
	"github.com/iliyamo/authflow/internal/model"
	"github.com/iliyamo/authflow/internal/repository"
	"github.com/iliyamo/authflow/internal/utils"
)

// Hasher is the one-way password hash capability.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// Dispatcher delivers verification secrets.  Any returned error means the
// message was not accepted for delivery.
type Dispatcher interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendVerificationSMS(ctx context.Context, phone, code string) error
	SendLoginCode(ctx context.Context, phone, code string) error
}

// dummyPassword is hashed once so that logins for unknown emails still pay
// for a bcrypt comparison.
const dummyPassword = "authflow-timing-equalizer"

// AccountService owns every transition of an Account.
type AccountService struct {
	store       repository.AccountStore
	hasher      Hasher
	dispatch    Dispatcher
	sessions    *utils.SessionIssuer
	log         logging.Logger
	now         func() time.Time
	newID       func() string
	phoneRegion string

	dummyOnce sync.Once
	dummyHash string
}

// Option customizes an AccountService.
type Option func(*AccountService)

// WithClock injects the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *AccountService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for transition and delivery logs.
func WithLogger(l logging.Logger) Option {
	return func(s *AccountService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPhoneRegion sets the region used for numbers without a leading +.
func WithPhoneRegion(region string) Option {
	return func(s *AccountService) {
		if region != "" {
			s.phoneRegion = region
		}
	}
}

// WithIDGenerator overrides how account ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *AccountService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func NewAccountService(store repository.AccountStore, hasher Hasher, dispatch Dispatcher, sessions *utils.SessionIssuer, opts ...Option) *AccountService {
	s := &AccountService{
		store:       store,
		hasher:      hasher,
		dispatch:    dispatch,
		sessions:    sessions,
		log:         logging.Discard(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		phoneRegion: "US",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SignupInput carries the signup form.  Phone is optional.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// SignupResult reports the two independent outcomes of a signup: the
// account that was created, and whether the verification email was accepted
// for delivery.  DeliveryErr is a KindDelivery error or nil.  Onboarding lets
// the new, still inactive account verify its phone.
type SignupResult struct {
	Account     *model.Account
	Onboarding  *utils.AccessToken
	DeliveryErr error
}

// Signup creates an unverified, inactive account and sends the email
// verification link.  A delivery failure does not undo the account.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, validation("name, email, and password are required")
	}
	var phone *string
	if strings.TrimSpace(in.Phone) != "" {
		p, err := utils.NormalizePhone(in.Phone, s.phoneRegion)
		if err != nil {
			return nil, validation("invalid phone number")
		}
		phone = &p
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, internal("lookup account", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	token, err := utils.NewEmailToken()
	if err != nil {
		return nil, internal("generate email token", err)
	}

	now := s.now().UTC()
	a := &model.Account{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	a.SetEmailToken(token, now.Add(utils.EmailTokenTTL))
	a.Recompute()

	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, internal("create account", err)
	}
	s.log.Info(ctx, "account created", "account_id", a.ID)

	res := &SignupResult{Account: a}
	if ob, err := s.sessions.IssueOnboarding(a.ID); err == nil {
		res.Onboarding = &ob
	} else {
		s.log.Warn(ctx, "onboarding credential not issued", "account_id", a.ID, "error", err)
	}
	if err := s.dispatch.SendVerificationEmail(ctx, email, token); err != nil {
		s.log.Warn(ctx, "verification email not sent", "account_id", a.ID, "error", err)
		res.DeliveryErr = delivery("failed to send verification email", err)
	}
	return res, nil
}

// VerifyEmail consumes an email token.  Unknown, expired and already used
// tokens all fail with ErrInvalidToken.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*model.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	now := s.now()
	id, err := s.store.FindIDByEmailToken(ctx, token, now)
	if err != nil {
		return nil, s.storeErr(err, ErrInvalidToken)
	}
	a, err := s.store.Update(ctx, id, func(a *model.Account) error {
		// re-checked inside the atomic section: a concurrent caller may have consumed it
		if !a.EmailTokenMatches(token, now) {
			return ErrInvalidToken
		}
		a.ConsumeEmailToken()
		a.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrInvalidToken)
	}
	s.log.Info(ctx, "email verified", "account_id", a.ID, "active", a.IsActive)
	return a, nil
}

// SendPhoneVerification texts a fresh code to phone and records it on the
// account.  The code is stored only after the SMS was accepted.
func (s *AccountService) SendPhoneVerification(ctx context.Context, accountID, phone string) (*model.Account, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, validation("phone number is required")
	}
	normalized, err := utils.NormalizePhone(phone, s.phoneRegion)
	if err != nil {
		return nil, validation("invalid phone number")
	}
	if _, err := s.store.GetByID(ctx, accountID); err != nil {
		return nil, s.storeErr(err, ErrAccountNotFound)
	}
	code, err := utils.NewPhoneCode()
	if err != nil {
		return nil, internal("generate phone code", err)
	}
	if err := s.dispatch.SendVerificationSMS(ctx, normalized, code); err != nil {
		s.log.Warn(ctx, "verification sms not sent", "account_id", accountID, "error", err)
		return nil, delivery("failed to send verification code", err)
	}

	now := s.now()
	a, err := s.store.Update(ctx, accountID, func(a *model.Account) error {
		if a.Phone == nil || *a.Phone != normalized {
			a.ChangePhone(normalized)
		}
		a.SetPhoneCode(code, now.Add(utils.PhoneCodeTTL).UTC())
		a.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrAccountNotFound)
	}
	s.log.Info(ctx, "phone code issued", "account_id", a.ID)
	return a, nil
}

// VerifyPhone consumes the pending phone code of the caller's own account.
func (s *AccountService) VerifyPhone(ctx context.Context, accountID, code string) (*model.Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validation("verification code is required")
	}
	now := s.now()
	a, err := s.store.Update(ctx, accountID, func(a *model.Account) error {
		if !a.PhoneCodeMatches(code, now) {
			return ErrInvalidCode
		}
		a.ConsumePhoneCode()
		a.UpdatedAt = now.UTC()
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrInvalidCode)
	}
	s.log.Info(ctx, "phone verified", "account_id", a.ID, "active", a.IsActive)
	return a, nil
}

// storeErr passes service errors through, maps a missing account to
// notFound and wraps everything else as internal.
func (s *AccountService) storeErr(err error, notFound error) error {
	var se *Error
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return internal("account store", err)
	}
}
