// Package push delivers mobile notifications to a registered device handle.
package push

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

var ErrNoDeviceHandle = errors.New("push: empty device handle")

type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// FCM sends through Firebase Cloud Messaging (HTTP v1 API).
type FCM struct {
	client *messaging.Client
}

func NewFCM(client *messaging.Client) *FCM {
	return &FCM{client: client}
}

func (f *FCM) Send(ctx context.Context, msg Message) (string, error) {
	if msg.Token == "" {
		return "", ErrNoDeviceHandle
	}
	return f.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
}

// Log records messages instead of delivering them. Used when no messaging
// project is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, msg Message) (string, error) {
	if msg.Token == "" {
		return "", ErrNoDeviceHandle
	}
	l.logger.Info("push notification (not delivered)",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Any("data", msg.Data),
	)
	return "log", nil
}
