package push

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewLog(zap.New(core))

	id, err := sender.Send(context.Background(), Message{
		Token: "device-1",
		Title: "Visit Approved",
		Body:  "approved",
		Data:  map[string]string{"status": "approved"},
	})
	if err != nil || id == "" {
		t.Fatalf("expected send to succeed, got id=%q err=%v", id, err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one log entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["title"]; got != "Visit Approved" {
		t.Fatalf("unexpected title field %v", got)
	}
	for key := range logs.All()[0].ContextMap() {
		if key == "token" {
			t.Fatalf("device handle must not be logged")
		}
	}
}

func TestSendersRejectEmptyHandle(t *testing.T) {
	senders := []Sender{NewLog(zap.NewNop()), NewFCM(nil)}
	for _, sender := range senders {
		if _, err := sender.Send(context.Background(), Message{Title: "x"}); !errors.Is(err, ErrNoDeviceHandle) {
			t.Fatalf("%T: expected ErrNoDeviceHandle, got %v", sender, err)
		}
	}
}
