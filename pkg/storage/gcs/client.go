// Package gcs talks to the Cloud Storage JSON API for packing video objects.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"

	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/logger"
)

const (
	readWriteScope = "https://www.googleapis.com/auth/devstorage.read_write"
	apiBaseURL     = "https://storage.googleapis.com/storage/v1"
	uploadBaseURL  = "https://storage.googleapis.com/upload/storage/v1"
	requestTimeout = 30 * time.Second
	pingTimeout    = 5 * time.Second
)

var (
	errNotInitialized = errors.New("gcs client not initialized")
	errObjectRequired = errors.New("bucket and object are required")
)

// Client authenticates every request through an oauth2 transport. Signing
// read URLs needs a service account key; metadata-server credentials can
// upload and delete but not sign.
type Client struct {
	http   *http.Client
	bucket string
	signer *signer
	now    func() time.Time
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	creds, err := loadCredentials(ctx, gcp)
	if err != nil {
		return nil, err
	}

	client := &Client{
		http:   &http.Client{Timeout: requestTimeout, Transport: &oauth2.Transport{Source: creds.TokenSource}},
		bucket: cfg.BucketName,
		now:    time.Now,
	}
	if len(creds.JSON) > 0 {
		if client.signer, err = signerFromJSON(creds.JSON); err != nil && logg != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "gcs credentials cannot sign urls")
		}
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"bucket":   cfg.BucketName,
			"can_sign": client.signer != nil,
		}), "gcs client initialized")
	}
	return client, nil
}

// loadCredentials prefers inline JSON, then a key file, then ambient
// application default credentials.
func loadCredentials(ctx context.Context, gcp config.GCPConfig) (*google.Credentials, error) {
	raw := []byte(gcp.CredentialsJSON)
	if len(raw) == 0 && gcp.ApplicationCredentials != "" {
		var err error
		if raw, err = os.ReadFile(gcp.ApplicationCredentials); err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
	}
	if len(raw) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, raw, readWriteScope)
		if err != nil {
			return nil, fmt.Errorf("parsing gcp credentials: %w", err)
		}
		return creds, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, readWriteScope)
	if err != nil {
		return nil, fmt.Errorf("finding default gcp credentials: %w", err)
	}
	return creds, nil
}

func (c *Client) Close() error {
	return nil
}

// Ping lists at most one object to prove the bucket is reachable and readable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.http == nil {
		return errNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/b/%s/o?maxResults=1", apiBaseURL, url.PathEscape(c.bucket))
	_, err := c.call(ctx, http.MethodGet, u, "", nil)
	if err != nil {
		return fmt.Errorf("gcs bucket check: %w", err)
	}
	return nil
}

// Upload streams body into bucket/object with a simple media upload. An
// empty bucket means the configured one.
func (c *Client) Upload(ctx context.Context, bucket, object, contentType string, body io.Reader) error {
	if c == nil || c.http == nil {
		return errNotInitialized
	}
	bucket = c.bucketOr(bucket)
	if bucket == "" || object == "" {
		return errObjectRequired
	}
	if contentType == "" {
		return errors.New("content type is required")
	}

	q := url.Values{"uploadType": {"media"}, "name": {object}}
	u := fmt.Sprintf("%s/b/%s/o?%s", uploadBaseURL, url.PathEscape(bucket), q.Encode())
	if _, err := c.call(ctx, http.MethodPost, u, contentType, body); err != nil {
		return fmt.Errorf("upload %s: %w", object, err)
	}
	return nil
}

// DeleteObject removes bucket/object. A missing object is not an error.
func (c *Client) DeleteObject(ctx context.Context, bucket, object string) error {
	if c == nil || c.http == nil {
		return errNotInitialized
	}
	bucket = c.bucketOr(bucket)
	if bucket == "" || object == "" {
		return errObjectRequired
	}

	u := fmt.Sprintf("%s/b/%s/o/%s", apiBaseURL, url.PathEscape(bucket), url.PathEscape(object))
	status, err := c.call(ctx, http.MethodDelete, u, "", nil)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

func (c *Client) bucketOr(bucket string) string {
	if bucket != "" {
		return bucket
	}
	return c.bucket
}

// call sends one request and drains the body. Non-2xx responses come back as
// *googleapi.Error along with the status.
func (c *Client) call(ctx context.Context, method, u, contentType string, body io.Reader) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	return resp.StatusCode, googleapi.CheckResponse(resp)
}
