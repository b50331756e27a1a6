package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client wraps the Firestore client
type Client struct {
	FS        *firestore.Client
	ProjectID string
}

// NewClient creates a new Firestore client. Without a credentials file the
// Application Default Credentials are used.
func NewClient(ctx context.Context, credentialsPath string, projectID string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}

	conf := &firebase.Config{ProjectID: projectID}
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	zap.S().Infof("✅ Firestore client initialized for project: %s", projectID)

	return &Client{
		FS:        fs,
		ProjectID: projectID,
	}, nil
}

// Close closes the Firestore client
func (c *Client) Close() error {
	if c.FS != nil {
		return c.FS.Close()
	}
	return nil
}

// Collection returns a reference to a collection
func (c *Client) Collection(path string) *firestore.CollectionRef {
	return c.FS.Collection(path)
}

// Doc returns a reference to a document
func (c *Client) Doc(path string) *firestore.DocumentRef {
	return c.FS.Doc(path)
}
