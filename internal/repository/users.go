package repository

import (
	"context"

	"github.com/kfd-o/mobile-firebase-backend/internal/model"
)

const userColumns = `id, first_name, last_name, email, address, phone_number, rfid, role, photo_url, fcm_token, created_at`

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var user model.User
	var role string
	row := s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Address,
		&user.PhoneNumber,
		&user.RFID,
		&role,
		&user.PhotoURL,
		&user.FCMToken,
		&user.CreatedAt,
	)
	if err != nil {
		return model.User{}, notFound(err)
	}
	user.Role = model.Role(role)
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, address, phone_number, rfid, role, photo_url, fcm_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, user.ID, user.FirstName, user.LastName, user.Email, user.Address, user.PhoneNumber,
		user.RFID, string(user.Role), user.PhotoURL, user.FCMToken, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteUser removes the profile. Deleting an absent profile is not an error.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
