package visits

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/apperr"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/token"
)

func newTestService(t *testing.T, store *memStore, sender *recordingSender) *Service {
	t.Helper()
	codec, err := token.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	n := 0
	return NewService(store, sender, codec, zap.NewNop(), Options{
		Location:          time.UTC,
		UpstreamTimeout:   time.Second,
		ReportConcurrency: 4,
		Now:               func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func seedUsers(store *memStore) {
	store.users["h1"] = model.User{ID: "h1", FirstName: "Hana", LastName: "Home", Role: model.RoleHomeowner, FCMToken: strPtr("tok-h1")}
	store.users["v1"] = model.User{ID: "v1", FirstName: "Vic", LastName: "Visit", Role: model.RoleUser, FCMToken: strPtr("tok-v1")}
}

func validSubmit() SubmitInput {
	return SubmitInput{
		HomeownerID:    "h1",
		VisitorID:      "v1",
		Classification: "guest",
		VisitDate:      "2024-06-10",
		VisitTime:      "14:30",
	}
}

func TestSubmitThenApprove(t *testing.T) {
	store := newMemStore()
	seedUsers(store)
	sender := &recordingSender{}
	svc := newTestService(t, store, sender)
	ctx := context.Background()

	res, err := svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Notified {
		t.Fatalf("expected homeowner to be notified")
	}
	note := store.notes[res.VisitRequestID]
	if note.Status != model.StatusPending || note.IsRead != 0 {
		t.Fatalf("unexpected homeowner notification %+v", note)
	}
	if sender.count() != 1 || sender.sent[0].Token != "tok-h1" || sender.sent[0].Title != "New Visit Scheduled" {
		t.Fatalf("unexpected pushes %+v", sender.sent)
	}
	if sender.sent[0].Data["visitRequestId"] != res.VisitRequestID {
		t.Fatalf("expected visitRequestId in push data, got %v", sender.sent[0].Data)
	}

	approved, err := svc.Approve(ctx, res.VisitRequestID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	tok := approved.Token
	wantFrom := time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
	if !tok.ValidFrom.Equal(wantFrom) {
		t.Fatalf("expected validFrom %s, got %s", wantFrom, tok.ValidFrom)
	}
	if tok.ValidUntil.Sub(tok.ValidFrom) != 24*time.Hour {
		t.Fatalf("expected 24h validity, got %s", tok.ValidUntil.Sub(tok.ValidFrom))
	}
	if len(tok.QRCode) != token.Length {
		t.Fatalf("expected %d char code, got %q", token.Length, tok.QRCode)
	}
	if tok.UserID != "v1" || tok.HomeownerID != "h1" || tok.VisitRequestID != res.VisitRequestID {
		t.Fatalf("unexpected token record %+v", tok)
	}
	if store.notes[res.VisitRequestID].Status != model.StatusApproved {
		t.Fatalf("expected approved status")
	}
	if sender.count() != 2 || sender.sent[1].Token != "tok-v1" || sender.sent[1].Data["status"] != "approved" {
		t.Fatalf("unexpected pushes %+v", sender.sent)
	}
}

func TestApproveTwiceIsNoop(t *testing.T) {
	store := newMemStore()
	seedUsers(store)
	sender := &recordingSender{}
	svc := newTestService(t, store, sender)
	ctx := context.Background()

	res, err := svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	first, err := svc.Approve(ctx, res.VisitRequestID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	second, err := svc.Approve(ctx, res.VisitRequestID)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if !second.AlreadyApproved {
		t.Fatalf("expected already approved")
	}
	if second.Token.ID != first.Token.ID || second.Token.QRCode != first.Token.QRCode {
		t.Fatalf("expected stored token to be returned, got %+v", second.Token)
	}
	if len(store.tokens) != 1 {
		t.Fatalf("expected one token record, got %d", len(store.tokens))
	}
	if sender.count() != 2 {
		t.Fatalf("expected no second approval push, got %d pushes", sender.count())
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name string
		edit func(*SubmitInput)
		code string
	}{
		{"missing visitor", func(in *SubmitInput) { in.VisitorID = "" }, "missing_fields"},
		{"blank classification", func(in *SubmitInput) { in.Classification = "  " }, "missing_fields"},
		{"bad date", func(in *SubmitInput) { in.VisitDate = "10/06/2024" }, "invalid_visit_schedule"},
		{"bad time", func(in *SubmitInput) { in.VisitTime = "noon" }, "invalid_visit_schedule"},
		{"unknown homeowner", func(in *SubmitInput) { in.HomeownerID = "nobody" }, "homeowner_not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			seedUsers(store)
			sender := &recordingSender{}
			svc := newTestService(t, store, sender)
			in := validSubmit()
			tc.edit(&in)
			_, err := svc.Submit(context.Background(), in)
			if _, code := apperr.Classify(err); code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if len(store.visits) != 0 || sender.count() != 0 {
				t.Fatalf("expected nothing stored or sent")
			}
		})
	}
}

func TestSubmitWithoutDeviceHandleStillStores(t *testing.T) {
	store := newMemStore()
	seedUsers(store)
	h := store.users["h1"]
	h.FCMToken = nil
	store.users["h1"] = h
	sender := &recordingSender{}
	svc := newTestService(t, store, sender)

	res, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Notified {
		t.Fatalf("expected no notification")
	}
	if _, ok := store.visits[res.VisitRequestID]; !ok {
		t.Fatalf("expected visit request to be stored")
	}
}

func TestSubmitPushFailureIsBestEffort(t *testing.T) {
	store := newMemStore()
	seedUsers(store)
	sender := &recordingSender{err: errBoom}
	svc := newTestService(t, store, sender)

	res, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Notified || res.VisitRequestID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestApproveErrors(t *testing.T) {
	ctx := context.Background()

	store := newMemStore()
	seedUsers(store)
	svc := newTestService(t, store, &recordingSender{})
	if _, err := svc.Approve(ctx, " "); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if _, err := svc.Approve(ctx, "missing"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	v := store.users["v1"]
	v.FCMToken = nil
	store.users["v1"] = v
	res, err := svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	approved, err := svc.Approve(ctx, res.VisitRequestID)
	if !apperr.IsKind(err, apperr.KindDeviceNotRegistered) {
		t.Fatalf("expected device not registered, got %v", err)
	}
	if approved.Token.QRCode == "" || store.notes[res.VisitRequestID].Status != model.StatusApproved {
		t.Fatalf("expected approval to stand without a device handle")
	}

	delete(store.users, "v1")
	res, err = svc.Submit(ctx, validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Approve(ctx, res.VisitRequestID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected visitor not found, got %v", err)
	}
}

func TestParseSchedule(t *testing.T) {
	cases := []struct {
		date, clock string
		want        time.Time
	}{
		{"2024-06-10", "14:30", time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)},
		{"2024-06-10", "9:05:07", time.Date(2024, 6, 10, 9, 5, 7, 0, time.UTC)},
		{"2024-06-10", "2:30 PM", time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)},
		{"2024-06-10", "12:15am", time.Date(2024, 6, 10, 0, 15, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseSchedule(tc.date, tc.clock, time.UTC)
		if err != nil {
			t.Fatalf("parse %s %s: %v", tc.date, tc.clock, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %s %s: expected %s got %s", tc.date, tc.clock, tc.want, got)
		}
	}
	for _, bad := range [][2]string{{"2024-02-30", "10:00"}, {"2024-06-10", "25:00"}, {"", "10:00"}} {
		if _, err := ParseSchedule(bad[0], bad[1], time.UTC); err == nil {
			t.Fatalf("expected %v to be rejected", bad)
		}
	}
}
