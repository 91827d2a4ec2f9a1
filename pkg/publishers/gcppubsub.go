package publishers

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubsubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newPubSubSender(ctx context.Context, cfg *GCPConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gcp configuration is missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubSender{client: client, topic: client.Topic(cfg.Topic), log: ensureLogger(log)}, nil
}

func (s *pubsubSender) Send(ctx context.Context, evt Event, body []byte) error {
	res := s.topic.Publish(ctx, &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_type": evt.Type,
			"topic":      evt.Topic,
		},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub publish: %w", err)
	}
	s.log.DebugObj("pubsub delivered event", "publisher_pubsub_delivery", map[string]any{
		"event_id":   evt.ID,
		"message_id": id,
	})
	return nil
}

// Close flushes pending messages and closes the client.
func (s *pubsubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
