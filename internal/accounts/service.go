// Package accounts provisions login accounts together with their profile
// and removes both again.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/apperr"
	"github.com/kfd-o/mobile-firebase-backend/internal/identity"
	"github.com/kfd-o/mobile-firebase-backend/internal/metrics"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
)

const (
	reasonProfileWrite  = "profile_write_failed"
	reasonProfileDelete = "profile_delete_failed"
)

type Store interface {
	CreateUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id string) error
	EnqueueCleanup(ctx context.Context, uid, reason string) error
	ListCleanup(ctx context.Context, limit int) ([]model.CleanupEntry, error)
	CompleteCleanup(ctx context.Context, uid string) error
	FailCleanup(ctx context.Context, uid string, cause error) error
}

type Input struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	RFID        string `json:"rfid"`
}

type Service struct {
	store    Store
	identity identity.Provider
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewService(store Store, provider identity.Provider, logger *zap.Logger, timeout time.Duration) *Service {
	return &Service{store: store, identity: provider, logger: logger, timeout: timeout, now: time.Now}
}

func (s *Service) CreateAdmin(ctx context.Context, in Input) (string, error) {
	return s.create(ctx, in, model.RoleAdmin, true)
}

func (s *Service) CreateHomeowner(ctx context.Context, in Input) (string, error) {
	return s.create(ctx, in, model.RoleHomeowner, true)
}

func (s *Service) CreateSecurityPersonnel(ctx context.Context, in Input) (string, error) {
	return s.create(ctx, in, model.RoleSecurityPersonnel, false)
}

func (s *Service) CreateUser(ctx context.Context, in Input) (string, error) {
	return s.create(ctx, in, model.RoleUser, false)
}

func (s *Service) call(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) create(ctx context.Context, in Input, role model.Role, needsRFID bool) (string, error) {
	in = normalize(in)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" ||
		in.Address == "" || in.PhoneNumber == "" || (needsRFID && in.RFID == "") {
		return "", apperr.Invalid("missing_fields")
	}

	callCtx, cancel := s.call(ctx)
	uid, err := s.identity.CreateAccount(callCtx, identity.AccountSpec{
		Email:       in.Email,
		Password:    in.Password,
		DisplayName: in.FirstName + " " + in.LastName,
	})
	cancel()
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			return "", apperr.Conflict("email_taken")
		}
		s.logger.Error("create identity account", zap.String("role", string(role)), zap.Error(err))
		return "", apperr.Upstream("identity_error", err)
	}

	user := model.User{
		ID:          uid,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
		Role:        role,
		CreatedAt:   s.now().UTC(),
	}
	if needsRFID {
		rfid := in.RFID
		user.RFID = &rfid
	}

	callCtx, cancel = s.call(ctx)
	err = s.store.CreateUser(callCtx, user)
	cancel()
	if err != nil {
		s.logger.Error("create profile", zap.String("uid", uid), zap.Error(err))
		s.compensate(ctx, uid, reasonProfileWrite)
		return "", apperr.Upstream("store_error", err)
	}

	metrics.AccountsCreated.WithLabelValues(string(role)).Inc()
	s.logger.Info("account created", zap.String("uid", uid), zap.String("role", string(role)))
	return uid, nil
}

// compensate removes an identity account whose profile could not be
// written. If that fails as well the uid is queued for the sweep.
func (s *Service) compensate(ctx context.Context, uid, reason string) {
	callCtx, cancel := s.call(context.WithoutCancel(ctx))
	defer cancel()
	err := s.identity.DeleteAccount(callCtx, uid)
	if err == nil || errors.Is(err, identity.ErrAccountNotFound) {
		metrics.AccountCleanup.WithLabelValues("compensated").Inc()
		return
	}
	s.logger.Error("compensating delete failed", zap.String("uid", uid), zap.Error(err))
	s.enqueue(callCtx, uid, reason)
}

func (s *Service) enqueue(ctx context.Context, uid, reason string) {
	if err := s.store.EnqueueCleanup(ctx, uid, reason); err != nil {
		metrics.AccountCleanup.WithLabelValues("enqueue_failed").Inc()
		s.logger.Error("enqueue account cleanup", zap.String("uid", uid), zap.Error(err))
		return
	}
	metrics.AccountCleanup.WithLabelValues("queued").Inc()
}

// DeleteUser removes the identity account and then the profile. An
// account that is already gone is not an error.
func (s *Service) DeleteUser(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return apperr.Invalid("missing_uid")
	}

	callCtx, cancel := s.call(ctx)
	err := s.identity.DeleteAccount(callCtx, uid)
	cancel()
	if err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		s.logger.Error("delete identity account", zap.String("uid", uid), zap.Error(err))
		return apperr.Upstream("identity_error", err)
	}

	callCtx, cancel = s.call(ctx)
	defer cancel()
	if err := s.store.DeleteUser(callCtx, uid); err != nil {
		s.logger.Error("delete profile", zap.String("uid", uid), zap.Error(err))
		s.enqueue(context.WithoutCancel(ctx), uid, reasonProfileDelete)
		return apperr.Upstream("store_error", err)
	}
	s.logger.Info("account deleted", zap.String("uid", uid))
	return nil
}

type SweepResult struct {
	Cleaned int
	Failed  int
}

// SweepCleanup retries up to limit queued cleanups. Each entry removes the
// identity account and the profile; both steps are idempotent.
func (s *Service) SweepCleanup(ctx context.Context, limit int) (SweepResult, error) {
	entries, err := s.store.ListCleanup(ctx, limit)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list cleanup: %w", err)
	}
	var res SweepResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.cleanup(ctx, entry.UID); err != nil {
			res.Failed++
			metrics.AccountCleanup.WithLabelValues("sweep_failed").Inc()
			s.logger.Warn("account cleanup failed",
				zap.String("uid", entry.UID),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err),
			)
			if ferr := s.store.FailCleanup(ctx, entry.UID, err); ferr != nil {
				s.logger.Error("record cleanup failure", zap.String("uid", entry.UID), zap.Error(ferr))
			}
			continue
		}
		if err := s.store.CompleteCleanup(ctx, entry.UID); err != nil {
			return res, fmt.Errorf("complete cleanup %s: %w", entry.UID, err)
		}
		res.Cleaned++
		metrics.AccountCleanup.WithLabelValues("swept").Inc()
	}
	return res, nil
}

func (s *Service) cleanup(ctx context.Context, uid string) error {
	callCtx, cancel := s.call(ctx)
	defer cancel()
	if err := s.identity.DeleteAccount(callCtx, uid); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		return fmt.Errorf("delete identity account: %w", err)
	}
	if err := s.store.DeleteUser(callCtx, uid); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func normalize(in Input) Input {
	return Input{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Password:    in.Password,
		Address:     strings.TrimSpace(in.Address),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		RFID:        strings.TrimSpace(in.RFID),
	}
}
