package clients

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Messaging *messaging.Client
}

// New initialises the Firebase app once and builds the clients the
// configured providers need. Either flag may be false, leaving the
// matching client nil.
func New(ctx context.Context, projectID, credentialsFile string, withAuth, withMessaging bool, timeout time.Duration) (*Clients, error) {
	ctx, cancel := initContext(ctx, timeout)
	defer cancel()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	c := &Clients{App: app}
	if withAuth {
		if c.Auth, err = app.Auth(ctx); err != nil {
			return nil, fmt.Errorf("firebase auth: %w", err)
		}
	}
	if withMessaging {
		if c.Messaging, err = app.Messaging(ctx); err != nil {
			return nil, fmt.Errorf("firebase messaging: %w", err)
		}
	}
	return c, nil
}

// initContext bounds client initialisation by timeout. A zero or negative
// timeout leaves ctx without a deadline.
func initContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
