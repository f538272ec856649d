package repository

import (
	"context"
	"time"

	"github.com/iliyamo/authflow/internal/model"
)

// UpdateFunc mutates an account inside an atomic section.  Returning an
// error aborts the update and nothing is written.
type UpdateFunc func(a *model.Account) error

// AccountStore is the storage contract of the account state machine.
type AccountStore interface {
	// Create inserts a new account.  Email uniqueness is exact-match.
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// FindIDByEmailToken returns the id of the account whose pending email
	// token equals token and expires strictly after now.
	FindIDByEmailToken(ctx context.Context, token string, now time.Time) (string, error)
	// Update loads the account, applies fn and persists the result as one
	// atomic step.  Concurrent Updates of the same id are serialized.
	Update(ctx context.Context, id string, fn UpdateFunc) (*model.Account, error)
}
