package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

type Firebase struct {
	client *auth.Client
}

func NewFirebase(client *auth.Client) *Firebase {
	return &Firebase{client: client}
}

func (f *Firebase) CreateAccount(ctx context.Context, spec AccountSpec) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(spec.Email).
		Password(spec.Password).
		DisplayName(spec.DisplayName)
	record, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return record.UID, nil
}

func (f *Firebase) DeleteAccount(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}
