package repository

import (
	"context"
	"time"
)

type Account struct {
	UID          string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

func (s *Store) CreateAccount(ctx context.Context, account Account) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO accounts (uid, email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, account.UID, account.Email, account.PasswordHash, account.DisplayName, account.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *Store) DeleteAccount(ctx context.Context, uid string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM accounts WHERE uid = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	err := s.Pool.QueryRow(ctx, `
		SELECT uid, email, password_hash, display_name, created_at
		FROM accounts
		WHERE email = $1
	`, email).Scan(&account.UID, &account.Email, &account.PasswordHash, &account.DisplayName, &account.CreatedAt)
	if err != nil {
		return Account{}, notFound(err)
	}
	return account, nil
}
