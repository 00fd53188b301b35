// utils/firebase.go
package utils

import (
	"context"
	"fmt"

	"barakah/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var FCMClient *messaging.Client

// FirebaseInit initializes the Firebase App and Messaging client.
// A failure is returned rather than fatal: the HTTP surface stays up and the
// dispatcher reports the channel as unavailable on every invocation.
func FirebaseInit(ctx context.Context) (*messaging.Client, error) {
	path := config.AppConfig.FirebaseCredentialsFile
	sa, err := config.LoadServiceAccount(path)
	if err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}

	opt := option.WithCredentialsFile(path)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: sa.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}

	FCMClient = client
	return client, nil
}
