package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/Ccreature09/poko-server/internal/config"
)

// PushSender delivers push notifications. Delivery is fire-and-forget at
// the call sites: callers log failures and never propagate them.
type PushSender interface {
	SendPush(ctx context.Context, userID, title, message, url string) error
}

type sender struct {
	client   *sns.Client
	topicARN string
}

type pushPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// NewSender creates an SNS-backed push sender publishing to the platform
// topic. Device subscriptions filter on the user_id message attribute.
func NewSender(cfg *config.Config) (PushSender, error) {
	if cfg.SNSPushTopicARN == "" {
		return nil, fmt.Errorf("SNS_PUSH_TOPIC_ARN not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSPushTopicARN}, nil
}

func (s *sender) SendPush(ctx context.Context, userID, title, message, url string) error {
	body, err := json.Marshal(pushPayload{Title: title, Message: message, URL: url})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"user_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(userID),
			},
		},
	})
	return err
}
