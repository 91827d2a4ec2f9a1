package publishers

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// queueSender hides the provider SDK behind a single send call.
type queueSender interface {
	Send(ctx context.Context, evt Event, body []byte) error
}

type queuePublisher struct {
	id       string
	provider string
	sender   queueSender
}

func newQueuePublisher(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("sink %q missing queue configuration", cfg.ID)
	}

	var (
		sender queueSender
		err    error
	)
	switch cfg.Queue.Provider {
	case QueueProviderAWSSQS:
		sender, err = newSQSSender(ctx, cfg.Queue.SQS, log)
	case QueueProviderAWSSNS:
		sender, err = newSNSSender(ctx, cfg.Queue.SNS, log)
	case QueueProviderGCP:
		sender, err = newPubSubSender(ctx, cfg.Queue.GCP, log)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("sink %q: %w", cfg.ID, err)
	}

	return &queuePublisher{id: cfg.ID, provider: cfg.Queue.Provider, sender: sender}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return TypeQueue }

// Publish encodes the event once and hands it to the provider sender.
func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}
	if err := p.sender.Send(ctx, evt, body); err != nil {
		return fmt.Errorf("queue provider %s send failed: %w", p.provider, err)
	}
	return nil
}

// Close releases the underlying client when the sender holds one.
func (p *queuePublisher) Close() error {
	if c, ok := p.sender.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// loadAWSConfig uses static keys when both are given, else the default chain.
func loadAWSConfig(ctx context.Context, c AWSCredentials) (aws.Config, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
