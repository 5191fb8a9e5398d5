package accounts

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testMinPasswordLen = 8

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, testMinPasswordLen), mock
}

func accountColumns() []string {
	return []string{"id", "username", "locked", "created_at", "updated_at"}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "alice", true},
		{"underscore prefix", "_svc", true},
		{"with digits", "user2", true},
		{"empty", "", false},
		{"leading digit", "2user", false},
		{"space", "a b", false},
		{"quote", "a'b", false},
		{"dash", "a-b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidUsername)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM _qb_accounts WHERE username = ?")).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _qb_accounts (username, password_hash) VALUES (?, ?)")).
		WithArgs("bob", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id, username, locked, created_at, updated_at").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(1, "bob", 0, "2024-01-01 00:00:00", "2024-01-01 00:00:00"))

	acct, err := store.Create(context.Background(), "bob", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "bob", acct.Username)
	assert.False(t, acct.Locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidation(t *testing.T) {
	store, _ := newMockStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "not valid!", "a long password")
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = store.Create(ctx, "bob", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCreateDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM _qb_accounts WHERE username = ?")).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := store.Create(context.Background(), "bob", "a long password")
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, username, locked, created_at, updated_at").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(accountColumns()))

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestList(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, username, locked, created_at, updated_at").
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(1, "alice", 0, "2024-01-01 00:00:00", "2024-01-01 00:00:00").
			AddRow(2, "bob", 1, "2024-01-02 00:00:00", "2024-01-03 00:00:00"))

	accts, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accts, 2)
	assert.False(t, accts[0].Locked)
	assert.True(t, accts[1].Locked)
}

func TestSetLocked(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE _qb_accounts SET locked").
		WithArgs(1, "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetLocked(context.Background(), "bob", true))

	mock.ExpectExec("UPDATE _qb_accounts SET locked").
		WithArgs(0, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetLocked(context.Background(), "ghost", false)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestChangePassword(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE _qb_accounts SET password_hash").
		WithArgs(sqlmock.AnyArg(), "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.ChangePassword(context.Background(), "bob", "a new long password"))

	err := store.ChangePassword(context.Background(), "bob", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM _qb_accounts WHERE username").
		WithArgs("bob").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "bob"))

	mock.ExpectExec("DELETE FROM _qb_accounts WHERE username").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		locked   int
		wantErr  error
	}{
		{"correct password", "correct horse", 0, nil},
		{"wrong password", "wrong", 0, ErrInvalidCredentials},
		{"locked account", "correct horse", 1, ErrAccountLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery("SELECT password_hash, locked FROM _qb_accounts").
				WithArgs("bob").
				WillReturnRows(sqlmock.NewRows([]string{"password_hash", "locked"}).
					AddRow(string(hash), tt.locked))

			err := store.VerifyPassword(context.Background(), "bob", tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
