package model

import "time"

// Account is the single persisted entity of the service.  It holds the
// credentials of a user together with the verification flags and the
// pending single-use secrets that drive them.
//
// Fields:
//
//	ID                       – opaque identifier (UUID string), immutable.
//	Name                     – display name, trimmed and never empty.
//	Email                    – unique, set once at signup.
//	PasswordHash             – bcrypt hash; never leaves the repository/service layer.
//	Phone                    – optional E.164 number.
//	IsEmailVerified          – set by consuming the email token.
//	IsPhoneVerified          – set by consuming the SMS code; cleared whenever Phone is written.
//	Is2FAEnabled             – only true while IsPhoneVerified is true.
//	IsActive                 – derived from the two verification flags, see Recompute.
//	EmailVerificationToken   – pending email token (nil when none is pending).
//	EmailVerificationExpires – instant at which the email token stops being valid.
//	PhoneVerificationToken   – pending 6-digit phone code.
//	PhoneVerificationExpires – instant at which the phone code stops being valid.
//	TwoFactorCode            – pending 6-digit login confirmation code.
//	TwoFactorExpires         – instant at which the login code stops being valid.
type Account struct {
	ID                       string
	Name                     string
	Email                    string
	PasswordHash             string
	Phone                    *string
	IsEmailVerified          bool
	IsPhoneVerified          bool
	Is2FAEnabled             bool
	IsActive                 bool
	EmailVerificationToken   *string
	EmailVerificationExpires *time.Time
	PhoneVerificationToken   *string
	PhoneVerificationExpires *time.Time
	TwoFactorCode            *string
	TwoFactorExpires         *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Recompute re-derives the flags that depend on other flags.  It must run
// after every write to IsEmailVerified or IsPhoneVerified.
func (a *Account) Recompute() {
	a.IsActive = a.IsEmailVerified && a.IsPhoneVerified
	if !a.IsPhoneVerified {
		a.Is2FAEnabled = false
	}
}

// SetEmailToken replaces any pending email token.
func (a *Account) SetEmailToken(token string, expires time.Time) {
	a.EmailVerificationToken = &token
	a.EmailVerificationExpires = &expires
}

// SetPhoneCode replaces any pending phone verification code.
func (a *Account) SetPhoneCode(code string, expires time.Time) {
	a.PhoneVerificationToken = &code
	a.PhoneVerificationExpires = &expires
}

// SetTwoFactorCode replaces any pending login confirmation code.
func (a *Account) SetTwoFactorCode(code string, expires time.Time) {
	a.TwoFactorCode = &code
	a.TwoFactorExpires = &expires
}

// EmailTokenMatches reports whether token is the pending email token and is
// still valid at now.  Expiry is exclusive: a token is dead at its expiry instant.
func (a *Account) EmailTokenMatches(token string, now time.Time) bool {
	return secretMatches(a.EmailVerificationToken, a.EmailVerificationExpires, token, now)
}

// PhoneCodeMatches is the phone counterpart of EmailTokenMatches.
func (a *Account) PhoneCodeMatches(code string, now time.Time) bool {
	return secretMatches(a.PhoneVerificationToken, a.PhoneVerificationExpires, code, now)
}

// TwoFactorCodeMatches is the login-code counterpart of EmailTokenMatches.
func (a *Account) TwoFactorCodeMatches(code string, now time.Time) bool {
	return secretMatches(a.TwoFactorCode, a.TwoFactorExpires, code, now)
}

// ConsumeEmailToken marks the email verified and clears the token fields.
func (a *Account) ConsumeEmailToken() {
	a.IsEmailVerified = true
	a.EmailVerificationToken = nil
	a.EmailVerificationExpires = nil
	a.Recompute()
}

// ConsumePhoneCode marks the phone verified and clears the code fields.
func (a *Account) ConsumePhoneCode() {
	a.IsPhoneVerified = true
	a.PhoneVerificationToken = nil
	a.PhoneVerificationExpires = nil
	a.Recompute()
}

// ConsumeTwoFactorCode clears the pending login code.
func (a *Account) ConsumeTwoFactorCode() {
	a.TwoFactorCode = nil
	a.TwoFactorExpires = nil
}

// ChangePhone stores a new phone number.  Any prior phone verification is
// lost, even if the number is unchanged, and codes sent to the previous
// number can no longer be redeemed.
func (a *Account) ChangePhone(phone string) {
	a.Phone = &phone
	a.IsPhoneVerified = false
	a.PhoneVerificationToken = nil
	a.PhoneVerificationExpires = nil
	a.TwoFactorCode = nil
	a.TwoFactorExpires = nil
	a.Recompute()
}

// Clone returns a deep copy so stores can hand out values that callers may
// mutate freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Phone = cloneString(a.Phone)
	c.EmailVerificationToken = cloneString(a.EmailVerificationToken)
	c.EmailVerificationExpires = cloneTime(a.EmailVerificationExpires)
	c.PhoneVerificationToken = cloneString(a.PhoneVerificationToken)
	c.PhoneVerificationExpires = cloneTime(a.PhoneVerificationExpires)
	c.TwoFactorCode = cloneString(a.TwoFactorCode)
	c.TwoFactorExpires = cloneTime(a.TwoFactorExpires)
	return &c
}

func secretMatches(stored *string, expires *time.Time, given string, now time.Time) bool {
	if stored == nil || expires == nil || given == "" {
		return false
	}
	return *stored == given && expires.After(now)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
