package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// TableName is the reserved table holding managed accounts.
const TableName = "_qb_accounts"

// Executor is satisfied by both *sql.DB and *sql.Tx, so store methods work
// with a direct connection or inside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Account is one managed database user. The password hash never leaves the
// store.
type Account struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Locked    bool   `json:"locked"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Store provides CRUD operations over the accounts table.
type Store struct {
	db             Executor
	minPasswordLen int
	bcryptCost     int
}

// NewStore returns a Store over db enforcing the given minimum password
// length.
func NewStore(db Executor, minPasswordLen int) *Store {
	return &Store{
		db:             db,
		minPasswordLen: minPasswordLen,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// EnsureSchema creates the accounts table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s
		(
			id INTEGER PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			locked INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`, TableName))
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}
	return nil
}

// Create adds a new unlocked account with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, username, password string) (Account, error) {
	if err := ValidateUsername(username); err != nil {
		return Account{}, err
	}
	if len(password) < s.minPasswordLen {
		return Account{}, fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.minPasswordLen)
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s WHERE username = ?;", TableName),
		username,
	).Scan(&exists)
	if err != nil {
		return Account{}, err
	}
	if exists > 0 {
		return Account{}, AccountExistsErr(username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Account{}, fmt.Errorf("hashing password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (username, password_hash) VALUES (?, ?);", TableName),
		username, string(hash),
	)
	if err != nil {
		return Account{}, fmt.Errorf("creating account: %w", err)
	}

	return s.Get(ctx, username)
}

// List returns all accounts ordered by username.
func (s *Store) List(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, username, locked, created_at, updated_at
		FROM %s ORDER BY username ASC;
	`, TableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accts []Account
	for rows.Next() {
		var a Account
		var locked int
		if err := rows.Scan(&a.ID, &a.Username, &locked, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Locked = locked != 0
		accts = append(accts, a)
	}

	return accts, rows.Err()
}

// Get returns the account with the given username.
func (s *Store) Get(ctx context.Context, username string) (Account, error) {
	var a Account
	var locked int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, username, locked, created_at, updated_at
		FROM %s WHERE username = ?;
	`, TableName), username).Scan(&a.ID, &a.Username, &locked, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, AccountNotFoundErr(username)
	}
	if err != nil {
		return Account{}, err
	}
	a.Locked = locked != 0
	return a, nil
}

// SetLocked locks or unlocks an account.
func (s *Store) SetLocked(ctx context.Context, username string, locked bool) error {
	flag := 0
	if locked {
		flag = 1
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET locked = ?, updated_at = CURRENT_TIMESTAMP WHERE username = ?;
	`, TableName), flag, username)
	if err != nil {
		return err
	}
	return requireAffected(res, username)
}

// ChangePassword replaces the account's password hash.
func (s *Store) ChangePassword(ctx context.Context, username, password string) error {
	if len(password) < s.minPasswordLen {
		return fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE username = ?;
	`, TableName), string(hash), username)
	if err != nil {
		return err
	}
	return requireAffected(res, username)
}

// Delete removes the account.
func (s *Store) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE username = ?;", TableName), username)
	if err != nil {
		return err
	}
	return requireAffected(res, username)
}

// VerifyPassword checks credentials. Locked accounts refuse verification
// with ErrAccountLocked; a wrong password returns ErrInvalidCredentials.
func (s *Store) VerifyPassword(ctx context.Context, username, password string) error {
	var hash string
	var locked int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT password_hash, locked FROM %s WHERE username = ?;
	`, TableName), username).Scan(&hash, &locked)
	if errors.Is(err, sql.ErrNoRows) {
		return AccountNotFoundErr(username)
	}
	if err != nil {
		return err
	}
	if locked != 0 {
		return fmt.Errorf("%w: %s", ErrAccountLocked, username)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// requireAffected translates a zero-row update into ErrAccountNotFound.
func requireAffected(res sql.Result, username string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return AccountNotFoundErr(username)
	}
	return nil
}
