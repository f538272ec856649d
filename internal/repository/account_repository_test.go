package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/authflow/internal/model"
)

var columnNames = []string{
	"id", "name", "email", "password_hash", "phone", "is_email_verified", "is_phone_verified", "is_2fa_enabled", "is_active",
	"email_verification_token", "email_verification_expires", "phone_verification_token", "phone_verification_expires",
	"two_factor_code", "two_factor_expires", "created_at", "updated_at",
}

func newMySQLWithMock(t *testing.T) (*MySQLAccountStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLAccountStore(db), mock
}

func accountRow(now time.Time, code any) *sqlmock.Rows {
	return sqlmock.NewRows(columnNames).AddRow(
		"id-1", "Alice", "a@x.com", "hash", "+15551234567", true, false, false, false,
		nil, nil, code, now.Add(10*time.Minute), nil, nil, now, now)
}

func TestMySQLCreate_Success(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	mock.ExpectExec(`^INSERT INTO accounts \(id,name,email,`).
		WithArgs(append([]driver.Value{"id-1", "Alice", "a@x.com", "hash"}, anyArgs(13)...)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Account{ID: "id-1", Name: "Alice", Email: "a@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	mock.ExpectExec(`^INSERT INTO accounts`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'uq_accounts_email'"})

	err := repo.Create(context.Background(), &model.Account{ID: "id-1", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestMySQLCreate_OtherErrorIsWrapped(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	mock.ExpectExec(`^INSERT INTO accounts`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &model.Account{ID: "id-1", Email: "a@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.Contains(t, err.Error(), "insert account: db down")
}

func TestMySQLGetByID_ScansNullables(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`^SELECT .* FROM accounts WHERE id=\? LIMIT 1$`).
		WithArgs("id-1").
		WillReturnRows(accountRow(now, "123456"))

	a, err := repo.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	require.NotNil(t, a.Phone)
	assert.Equal(t, "+15551234567", *a.Phone)
	assert.Nil(t, a.EmailVerificationToken)
	require.NotNil(t, a.PhoneVerificationToken)
	assert.Equal(t, "123456", *a.PhoneVerificationToken)
	assert.Equal(t, now.Add(10*time.Minute), *a.PhoneVerificationExpires)
}

func TestMySQLGetByEmail_NotFound(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	mock.ExpectQuery(`FROM accounts WHERE email=\?`).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQLFindIDByEmailToken(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	now := time.Now()
	mock.ExpectQuery(`^SELECT id FROM accounts WHERE email_verification_token=\? AND email_verification_expires>\?`).
		WithArgs("tok", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("id-1"))
	mock.ExpectQuery(`^SELECT id FROM accounts WHERE email_verification_token=\?`).
		WithArgs("gone", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	id, err := repo.FindIDByEmailToken(context.Background(), "tok", now)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	_, err = repo.FindIDByEmailToken(context.Background(), "gone", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQLUpdate_LocksAppliesAndCommits(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT .* FROM accounts WHERE id=\? FOR UPDATE$`).
		WithArgs("id-1").
		WillReturnRows(accountRow(now, "123456"))
	mock.ExpectExec(`^UPDATE accounts SET name=\?,phone=\?,is_email_verified=\?,is_phone_verified=\?`).
		WithArgs("Alice", sqlmock.AnyArg(), true, true, false, true,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a, err := repo.Update(context.Background(), "id-1", func(a *model.Account) error {
		if !a.PhoneCodeMatches("123456", now) {
			return errStale
		}
		a.ConsumePhoneCode()
		return nil
	})
	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.Nil(t, a.PhoneVerificationToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUpdate_FnErrorRollsBack(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE$`).WithArgs("id-1").WillReturnRows(accountRow(now, nil))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "id-1", func(*model.Account) error { return errStale })
	assert.ErrorIs(t, err, errStale)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUpdate_MissingRow(t *testing.T) {
	repo, mock := newMySQLWithMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE$`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "nope", func(*model.Account) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}
