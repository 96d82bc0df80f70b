// Package pubsub connects the order notification feed to Google Pub/Sub.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

// Client owns the Pub/Sub connection and the notification publisher.
type Client struct {
	client    *pubsub.Client
	topic     string
	publisher *pubsub.Publisher
}

// NewClient connects to Pub/Sub and fails fast when the notification topic
// is missing. The topic is never created here.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	topic, err := TopicName(gcp.ProjectID, cfg.NotificationTopic)
	if err != nil {
		return nil, err
	}

	psClient, err := pubsub.NewClient(ctx, strings.TrimSpace(gcp.ProjectID), credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: psClient, topic: topic}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	c.publisher = psClient.Publisher(topic)
	// events carry the order id as ordering key
	c.publisher.EnableMessageOrdering = true

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", topic), "pubsub client initialized")
	}
	return c, nil
}

// TopicName expands a short topic id to its resource name. Full resource
// names pass through unchanged.
func TopicName(projectID, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", errors.New("pubsub notification topic is required")
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic, nil
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", errors.New("gcp project id is required")
	}
	return "projects/" + projectID + "/topics/" + topic, nil
}

func credentials(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// NotificationPublisher returns the ordered publisher for order events.
func (c *Client) NotificationPublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Ping checks that the notification topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("pubsub topic %s does not exist", c.topic)
	default:
		return fmt.Errorf("checking pubsub topic %s: %w", c.topic, err)
	}
}

// Close flushes pending messages and releases the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.publisher != nil {
		c.publisher.Stop()
	}
	return c.client.Close()
}
