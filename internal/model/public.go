package model

// PublicAccount is the sanitized projection returned to clients.  It never
// carries the password hash or any pending token or code.
type PublicAccount struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone"`
	IsActive        bool    `json:"isActive"`
	IsEmailVerified bool    `json:"isEmailVerified"`
	IsPhoneVerified bool    `json:"isPhoneVerified"`
	Is2FAEnabled    bool    `json:"is2FAEnabled"`
}

// Public projects the account onto the fields safe to expose.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:              a.ID,
		Name:            a.Name,
		Email:           a.Email,
		Phone:           cloneString(a.Phone),
		IsActive:        a.IsActive,
		IsEmailVerified: a.IsEmailVerified,
		IsPhoneVerified: a.IsPhoneVerified,
		Is2FAEnabled:    a.Is2FAEnabled,
	}
}
