package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsSender struct {
	queueURL string
	client   sqsAPI
	log      Logger
}

func newSQSSender(ctx context.Context, cfg *SQSConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sqs configuration is missing")
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.AWSCredentials)
	if err != nil {
		return nil, err
	}
	return &sqsSender{queueURL: cfg.QueueURL, client: sqs.NewFromConfig(awsCfg), log: ensureLogger(log)}, nil
}

func (s *sqsSender) Send(ctx context.Context, evt Event, body []byte) error {
	out, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(evt.Type)},
			"topic":      {DataType: aws.String("String"), StringValue: aws.String(evt.Topic)},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	s.log.DebugObj("sqs delivered event", "publisher_sqs_delivery", map[string]any{
		"event_id":   evt.ID,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
