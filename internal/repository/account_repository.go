package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/authflow/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

const accountColumns = "id,name,email,password_hash,phone,is_email_verified,is_phone_verified,is_2fa_enabled,is_active," +
	"email_verification_token,email_verification_expires,phone_verification_token,phone_verification_expires," +
	"two_factor_code,two_factor_expires,created_at,updated_at"

// MySQLAccountStore mirrors the 'accounts' table.
type MySQLAccountStore struct{ DB *sql.DB }

func NewMySQLAccountStore(db *sql.DB) *MySQLAccountStore { return &MySQLAccountStore{DB: db} }

// Create inserts an account row.
func (r *MySQLAccountStore) Create(ctx context.Context, a *model.Account) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		a.ID, a.Name, a.Email, a.PasswordHash, nullString(a.Phone),
		a.IsEmailVerified, a.IsPhoneVerified, a.Is2FAEnabled, a.IsActive,
		nullString(a.EmailVerificationToken), nullTime(a.EmailVerificationExpires),
		nullString(a.PhoneVerificationToken), nullTime(a.PhoneVerificationExpires),
		nullString(a.TwoFactorCode), nullTime(a.TwoFactorExpires),
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrEmailExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by id.
func (r *MySQLAccountStore) GetByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	return scanAccount(row)
}

// GetByEmail fetches an account by exact email.
func (r *MySQLAccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", email)
	return scanAccount(row)
}

// FindIDByEmailToken resolves a pending, unexpired email token to its account.
func (r *MySQLAccountStore) FindIDByEmailToken(ctx context.Context, token string, now time.Time) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE email_verification_token=? AND email_verification_expires>? LIMIT 1",
		token, now.UTC()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find by email token: %w", err)
	}
	return id, nil
}

// Update locks the row with SELECT ... FOR UPDATE, applies fn and writes every
// mutable column back inside the same transaction.
func (r *MySQLAccountStore) Update(ctx context.Context, id string, fn UpdateFunc) (*model.Account, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := scanAccount(tx.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id=? FOR UPDATE", id))
	if err != nil {
		return nil, err
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE accounts SET name=?,phone=?,is_email_verified=?,is_phone_verified=?,is_2fa_enabled=?,is_active=?,"+
			"email_verification_token=?,email_verification_expires=?,phone_verification_token=?,phone_verification_expires=?,"+
			"two_factor_code=?,two_factor_expires=?,updated_at=? WHERE id=?",
		a.Name, nullString(a.Phone), a.IsEmailVerified, a.IsPhoneVerified, a.Is2FAEnabled, a.IsActive,
		nullString(a.EmailVerificationToken), nullTime(a.EmailVerificationExpires),
		nullString(a.PhoneVerificationToken), nullTime(a.PhoneVerificationExpires),
		nullString(a.TwoFactorCode), nullTime(a.TwoFactorExpires),
		a.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a                                  model.Account
		phone, emailTok, phoneTok, tfaCode sql.NullString
		emailExp, phoneExp, tfaExp         sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &phone,
		&a.IsEmailVerified, &a.IsPhoneVerified, &a.Is2FAEnabled, &a.IsActive,
		&emailTok, &emailExp, &phoneTok, &phoneExp, &tfaCode, &tfaExp,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.Phone = fromNullString(phone)
	a.EmailVerificationToken = fromNullString(emailTok)
	a.EmailVerificationExpires = fromNullTime(emailExp)
	a.PhoneVerificationToken = fromNullString(phoneTok)
	a.PhoneVerificationExpires = fromNullTime(phoneExp)
	a.TwoFactorCode = fromNullString(tfaCode)
	a.TwoFactorExpires = fromNullTime(tfaExp)
	return &a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
