// Package identity creates and removes login accounts with the configured
// identity provider. The account uid is reused as the profile id.
package identity

import (
	"context"
	"errors"
)

var (
	ErrEmailExists     = errors.New("identity: email already registered")
	ErrAccountNotFound = errors.New("identity: account not found")
)

type AccountSpec struct {
	Email       string
	Password    string
	DisplayName string
}

type Provider interface {
	CreateAccount(ctx context.Context, spec AccountSpec) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
}
