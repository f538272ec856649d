package handler

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

func (r signupReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate only checks presence.  A malformed email can never match an
// account, so it fails as invalid credentials.
func (r loginReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type phoneReq struct {
	Phone string `json:"phone"`
}

func (r phoneReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Phone, validation.Required, validation.Length(1, 32)),
	)
}

type codeReq struct {
	Code string `json:"code"`
}

func (r codeReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required),
	)
}

type twoFactorReq struct {
	Challenge string `json:"challenge"`
	Code      string `json:"code"`
}

func (r twoFactorReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Challenge, validation.Required),
		validation.Field(&r.Code, validation.Required),
	)
}

type nameReq struct {
	Name string `json:"name"`
}

func (r nameReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
	)
}

// toggleReq uses a pointer so a missing "enabled" is told apart from false.
type toggleReq struct {
	Enabled *bool `json:"enabled"`
}

func (r toggleReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Enabled, validation.NotNil),
	)
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
