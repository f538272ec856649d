package utils

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of the email token
	"fmt"
	"math/big"
	"time"
)

// Validity windows of the verification secrets.
const (
	EmailTokenTTL = 24 * time.Hour
	PhoneCodeTTL  = 10 * time.Minute
)

// emailTokenBytes gives 256 bits of entropy (64 hex chars).
const emailTokenBytes = 32

var codeSpan = big.NewInt(900000)

// NewEmailToken returns an unguessable hex token for email verification links.
func NewEmailToken() (string, error) {
	return randomHex(emailTokenBytes)
}

// NewPhoneCode returns a uniformly random 6-digit code in [100000, 999999].
func NewPhoneCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
