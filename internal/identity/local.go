package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kfd-o/mobile-firebase-backend/internal/repository"
)

type AccountStore interface {
	CreateAccount(ctx context.Context, account repository.Account) error
	DeleteAccount(ctx context.Context, uid string) error
}

// Local keeps accounts in the service database with bcrypt password hashes.
// It is used when no Firebase project is configured.
type Local struct {
	store AccountStore
	cost  int
}

func NewLocal(store AccountStore) *Local {
	return &Local{store: store, cost: bcrypt.DefaultCost}
}

func (l *Local) CreateAccount(ctx context.Context, spec AccountSpec) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(spec.Password), l.cost)
	if err != nil {
		return "", err
	}
	account := repository.Account{
		UID:          uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(spec.Email)),
		PasswordHash: string(hash),
		DisplayName:  spec.DisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return account.UID, nil
}

func (l *Local) DeleteAccount(ctx context.Context, uid string) error {
	if err := l.store.DeleteAccount(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}
