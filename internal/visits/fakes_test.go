package visits

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/push"
	"github.com/kfd-o/mobile-firebase-backend/internal/repository"
)

type memStore struct {
	mu        sync.Mutex
	users     map[string]model.User
	userErr   error
	visits    map[string]model.VisitRequest
	notes     map[string]model.HomeownerNotification
	tokens    map[string]model.VisitorNotification
	scans     map[model.ScanSource][]model.ScanRecord
	lookups   map[string]int
	listCalls int
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]model.User{},
		visits:  map[string]model.VisitRequest{},
		notes:   map[string]model.HomeownerNotification{},
		tokens:  map[string]model.VisitorNotification{},
		scans:   map[model.ScanSource][]model.ScanRecord{},
		lookups: map[string]int{},
	}
}

func (m *memStore) GetUser(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups[id]++
	if m.userErr != nil {
		return model.User{}, m.userErr
	}
	user, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *memStore) CreateVisitRequest(_ context.Context, visit model.VisitRequest, note model.HomeownerNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits[visit.ID] = visit
	m.notes[visit.ID] = note
	return nil
}

func (m *memStore) ApproveVisit(_ context.Context, id string, build func(model.VisitRequest) (model.VisitorNotification, error)) (model.Approval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	visit, ok := m.visits[id]
	if !ok {
		return model.Approval{}, repository.ErrNotFound
	}
	note := m.notes[id]
	if note.Status == model.StatusApproved {
		return model.Approval{Visit: visit, Token: m.tokens[id], AlreadyApproved: true}, nil
	}
	token, err := build(visit)
	if err != nil {
		return model.Approval{}, err
	}
	m.tokens[id] = token
	now := time.Now()
	note.Status = model.StatusApproved
	note.UpdatedAt = &now
	m.notes[id] = note
	return model.Approval{Visit: visit, Token: token}, nil
}

func (m *memStore) ListScans(_ context.Context, source model.ScanSource) ([]model.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]model.ScanRecord(nil), m.scans[source]...), nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []push.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg push.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	if msg.Token == "" {
		return "", push.ErrNoDeviceHandle
	}
	r.sent = append(r.sent, msg)
	return "msg-1", nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }
