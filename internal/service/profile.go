package service

import (
	"context"
	"strings"

	"github.com/iliyamo/authflow/internal/model"
	"github.com/iliyamo/authflow/internal/utils"
)

// Me returns the caller's account.
func (s *AccountService) Me(ctx context.Context, accountID string) (*model.Account, error) {
	a, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, s.storeErr(err, ErrAccountNotFound)
	}
	return a, nil
}

// UpdateName sets a trimmed, non-empty display name.
func (s *AccountService) UpdateName(ctx context.Context, accountID, name string) (*model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("name is required")
	}
	now := s.now().UTC()
	a, err := s.store.Update(ctx, accountID, func(a *model.Account) error {
		a.Name = name
		a.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrAccountNotFound)
	}
	return a, nil
}

// UpdatePhone stores a new number and always drops phone verification,
// which in turn deactivates the account and disables 2FA.
func (s *AccountService) UpdatePhone(ctx context.Context, accountID, phone string) (*model.Account, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, validation("phone number is required")
	}
	normalized, err := utils.NormalizePhone(phone, s.phoneRegion)
	if err != nil {
		return nil, validation("invalid phone number")
	}
	now := s.now().UTC()
	a, err := s.store.Update(ctx, accountID, func(a *model.Account) error {
		a.ChangePhone(normalized)
		a.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrAccountNotFound)
	}
	s.log.Info(ctx, "phone changed", "account_id", a.ID, "active", a.IsActive)
	return a, nil
}

// Toggle2FA enables or disables login confirmation by SMS.  Enabling needs a
// verified phone; disabling is always allowed.
func (s *AccountService) Toggle2FA(ctx context.Context, accountID string, enabled bool) (*model.Account, error) {
	now := s.now().UTC()
	a, err := s.store.Update(ctx, accountID, func(a *model.Account) error {
		if enabled && !a.IsPhoneVerified {
			return ErrPhoneNotVerified
		}
		a.Is2FAEnabled = enabled
		if !enabled {
			a.ConsumeTwoFactorCode()
		}
		a.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.storeErr(err, ErrAccountNotFound)
	}
	s.log.Info(ctx, "2fa toggled", "account_id", a.ID, "enabled", a.Is2FAEnabled)
	return a, nil
}
