package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute_RequiresBothFlags(t *testing.T) {
	tests := []struct {
		email, phone bool
		want         bool
	}{
		{false, false, false},
		{true, false, false},
		{false, true, false},
		{true, true, true},
	}
	for _, tc := range tests {
		a := &Account{IsEmailVerified: tc.email, IsPhoneVerified: tc.phone, IsActive: !tc.want}
		a.Recompute()
		assert.Equal(t, tc.want, a.IsActive, "email=%v phone=%v", tc.email, tc.phone)
	}
}

func TestConsumeEmailToken_PhoneFirstThenEmailActivates(t *testing.T) {
	a := &Account{}
	a.ConsumePhoneCode()
	assert.False(t, a.IsActive)

	a.SetEmailToken("tok", time.Now().Add(time.Hour))
	a.ConsumeEmailToken()
	assert.True(t, a.IsActive)
	assert.Nil(t, a.EmailVerificationToken)
	assert.Nil(t, a.EmailVerificationExpires)
}

func TestChangePhone_ClearsVerificationAndTwoFactor(t *testing.T) {
	phone := "+15551234567"
	a := &Account{Phone: &phone, IsEmailVerified: true, IsPhoneVerified: true, Is2FAEnabled: true, IsActive: true}

	a.SetPhoneCode("111111", time.Now().Add(time.Minute))
	a.SetTwoFactorCode("222222", time.Now().Add(time.Minute))
	a.ChangePhone(phone)

	assert.False(t, a.IsPhoneVerified)
	assert.False(t, a.Is2FAEnabled)
	assert.False(t, a.IsActive)
	assert.True(t, a.IsEmailVerified)
	require.NotNil(t, a.Phone)
	assert.Equal(t, phone, *a.Phone)
	assert.Nil(t, a.PhoneVerificationToken)
	assert.Nil(t, a.TwoFactorCode)
}

func TestSecretMatches_ExpiryIsExclusive(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	a := &Account{}
	a.SetEmailToken("abc", now)

	assert.False(t, a.EmailTokenMatches("abc", now), "token must be dead at its expiry instant")
	assert.True(t, a.EmailTokenMatches("abc", now.Add(-time.Nanosecond)))
	assert.False(t, a.EmailTokenMatches("abd", now.Add(-time.Minute)))
	assert.False(t, a.EmailTokenMatches("", now.Add(-time.Minute)))
	assert.False(t, (&Account{}).PhoneCodeMatches("123456", now))
}

func TestClone_IsDeep(t *testing.T) {
	a := &Account{ID: "1"}
	a.SetPhoneCode("123456", time.Now())
	c := a.Clone()
	*c.PhoneVerificationToken = "000000"
	assert.Equal(t, "123456", *a.PhoneVerificationToken)
	assert.Nil(t, (*Account)(nil).Clone())
}

func TestPublic_OmitsSecrets(t *testing.T) {
	a := &Account{ID: "1", Name: "Alice", Email: "a@x.com", PasswordHash: "$2a$hash"}
	a.SetEmailToken("secret-token", time.Now().Add(time.Hour))
	a.SetPhoneCode("424242", time.Now().Add(time.Hour))

	b, err := json.Marshal(a.Public())
	require.NoError(t, err)
	out := string(b)
	assert.NotContains(t, out, "secret-token")
	assert.NotContains(t, out, "424242")
	assert.NotContains(t, out, "$2a$hash")
	assert.Contains(t, out, `"is2FAEnabled":false`)
	assert.Contains(t, out, `"phone":null`)
}
