package identity

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kfd-o/mobile-firebase-backend/internal/repository"
)

type memoryAccounts struct {
	byUID   map[string]repository.Account
	byEmail map[string]string
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byUID: map[string]repository.Account{}, byEmail: map[string]string{}}
}

func (m *memoryAccounts) CreateAccount(_ context.Context, account repository.Account) error {
	if _, ok := m.byEmail[account.Email]; ok {
		return repository.ErrDuplicate
	}
	m.byUID[account.UID] = account
	m.byEmail[account.Email] = account.UID
	return nil
}

func (m *memoryAccounts) DeleteAccount(_ context.Context, uid string) error {
	account, ok := m.byUID[uid]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.byUID, uid)
	delete(m.byEmail, account.Email)
	return nil
}

func TestLocalCreateAccount(t *testing.T) {
	store := newMemoryAccounts()
	provider := &Local{store: store, cost: bcrypt.MinCost}

	uid, err := provider.CreateAccount(context.Background(), AccountSpec{
		Email:       "  Jane.Doe@Example.com ",
		Password:    "dev-password",
		DisplayName: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	account, ok := store.byUID[uid]
	if !ok {
		t.Fatalf("expected account %s to be stored", uid)
	}
	if account.Email != "jane.doe@example.com" {
		t.Fatalf("expected normalized email, got %s", account.Email)
	}
	if account.PasswordHash == "dev-password" {
		t.Fatalf("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("dev-password")); err != nil {
		t.Fatalf("expected hash to match password: %v", err)
	}

	_, err = provider.CreateAccount(context.Background(), AccountSpec{Email: "jane.doe@example.com", Password: "x", DisplayName: "Other"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestLocalDeleteAccount(t *testing.T) {
	store := newMemoryAccounts()
	provider := &Local{store: store, cost: bcrypt.MinCost}
	uid, err := provider.CreateAccount(context.Background(), AccountSpec{Email: "a@b.c", Password: "pw", DisplayName: "A B"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := provider.DeleteAccount(context.Background(), uid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := provider.DeleteAccount(context.Background(), uid); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
