// Package notify provides the notification transport drivers the dispatch
// loop can deliver through.
package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCM delivers data messages through Firebase Cloud Messaging. The
// destination is the device's registration token.
type FCM struct {
	client *messaging.Client
}

// NewFCM initializes the Firebase app from a service-account credentials
// file and returns the FCM driver.
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &FCM{client: client}, nil
}

// Send delivers a data-only message the mobile client renders as an overlay.
// DirectBootOK lets the notification reach a device that hasn't been
// unlocked since reboot.
func (f *FCM) Send(ctx context.Context, destination, title, body string) error {
	_, err := f.client.Send(ctx, &messaging.Message{
		Token: destination,
		Data: map[string]string{
			"type":  "showOverlay",
			"title": title,
			"body":  body,
		},
		Android: &messaging.AndroidConfig{DirectBootOK: true},
	})
	return err
}
