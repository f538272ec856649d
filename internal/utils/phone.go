package utils

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone is returned for input that cannot be a phone number.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone trims raw, parses it (numbers without a leading + are read
// in defaultRegion) and returns it in E.164 form.  Only the length/shape of
// the number is checked, not whether it is currently assigned.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
