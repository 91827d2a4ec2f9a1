package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsSender struct {
	topicARN string
	client   snsAPI
	log      Logger
}

func newSNSSender(ctx context.Context, cfg *SNSConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sns configuration is missing")
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.AWSCredentials)
	if err != nil {
		return nil, err
	}
	return &snsSender{topicARN: cfg.TopicARN, client: sns.NewFromConfig(awsCfg), log: ensureLogger(log)}, nil
}

func (s *snsSender) Send(ctx context.Context, evt Event, body []byte) error {
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(evt.Type),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(evt.Type)},
			"topic":      {DataType: aws.String("String"), StringValue: aws.String(evt.Topic)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	s.log.DebugObj("sns delivered event", "publisher_sns_delivery", map[string]any{
		"event_id":   evt.ID,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
