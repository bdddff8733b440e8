package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/turo-backend/internal/config"
	"github.com/turo-backend/internal/domain"
)

// publishAPI is the subset of the SNS client the publisher uses.
type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ActivityPublisher fans audit activities out to an SNS topic.
type ActivityPublisher struct {
	client   publishAPI
	topicARN string
}

func NewClient(awsCfg aws.Config, cfg *config.Config) *sns.Client {
	clientOpts := []func(*sns.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...)
}

func NewActivityPublisher(client publishAPI, topicARN string) *ActivityPublisher {
	return &ActivityPublisher{client: client, topicARN: topicARN}
}

// Publish sends a as JSON. It is a no-op when no topic is configured.
func (p *ActivityPublisher) Publish(ctx context.Context, a *domain.Activity) error {
	if p.topicARN == "" {
		return nil
	}
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(a.EventType),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", a.EventType, err)
	}
	return nil
}
