// Package pubsub wraps the Pub/Sub v2 client used by the outbox publisher.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/logger"
)

type kind string

const (
	topics        kind = "topics"
	subscriptions kind = "subscriptions"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopics          = errors.New("pubsub topic name is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// lookupFunc reports whether the fully qualified resource exists. NotFound
// is returned as a gRPC status error.
type lookupFunc func(ctx context.Context, k kind, fullName string) error

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
	lookup    lookupFunc

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient dials Pub/Sub and fails unless every configured topic and the
// optional orders subscription already exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	raw, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     raw,
		projectID:  projectID,
		cfg:        cfg,
		lookup:     adminLookup(raw),
		publishers: make(map[string]*pubsub.Publisher),
	}
	if err := c.verify(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project": projectID,
			"topics":  topicNames(cfg),
		}), "pubsub client initialized")
	}
	return c, nil
}

func adminLookup(raw *pubsub.Client) lookupFunc {
	return func(ctx context.Context, k kind, fullName string) error {
		if k == subscriptions {
			_, err := raw.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: fullName})
			return err
		}
		_, err := raw.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
		return err
	}
}

type resource struct {
	kind kind
	name string
}

func (c *Client) resources() []resource {
	var out []resource
	for _, name := range topicNames(c.cfg) {
		out = append(out, resource{kind: topics, name: name})
	}
	if sub := strings.TrimSpace(c.cfg.OrdersSubscription); sub != "" {
		out = append(out, resource{kind: subscriptions, name: sub})
	}
	return out
}

// verify checks every resource and reports all failures together.
func (c *Client) verify(ctx context.Context) error {
	if len(topicNames(c.cfg)) == 0 {
		return errNoTopics
	}
	var errs error
	for _, r := range c.resources() {
		errs = multierr.Append(errs, c.check(ctx, r))
	}
	return errs
}

func (c *Client) check(ctx context.Context, r resource) error {
	label := strings.TrimSuffix(string(r.kind), "s")
	fullName := resourceName(c.projectID, r.name, r.kind)
	if fullName == "" {
		return fmt.Errorf("%s %q not configured", label, r.name)
	}
	err := c.lookup(ctx, r.kind, fullName)
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", label, r.name)
	default:
		return fmt.Errorf("checking %s %q: %w", label, r.name, err)
	}
}

// topicNames returns the configured topics trimmed, in config order, without
// duplicates. Several event families may share one topic.
func topicNames(cfg config.PubSubConfig) []string {
	var names []string
	seen := make(map[string]bool, 3)
	for _, raw := range [...]string{cfg.OrdersTopic, cfg.ReturnsTopic, cfg.RefundsTopic} {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Publisher returns the cached publisher for a topic ID or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := resourceName(c.projectID, name, topics)
	if fullName == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pub, ok := c.publishers[fullName]
	if !ok {
		pub = c.client.Publisher(fullName)
		c.publishers[fullName] = pub
	}
	return pub
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.lookup == nil {
		return errNotInitialized
	}
	return c.verify(ctx)
}

// Close stops cached publishers, flushing pending messages, then releases
// the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	pubs := c.publishers
	c.publishers = make(map[string]*pubsub.Publisher)
	c.mu.Unlock()
	for _, pub := range pubs {
		pub.Stop()
	}
	return c.client.Close()
}

func resourceName(projectID string, name string, k kind) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+string(k)+"/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return "projects/" + p + "/" + string(k) + "/" + n
}
