package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes notifications to a topic; a downstream mail service
// renders them using the template attribute.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
}

type snsMessage struct {
	Template string `json:"template"`
	To       string `json:"to"`
	Data     any    `json:"data"`
}

func NewSNSNotifier(client SNSAPI, topicARN string) (*SNSNotifier, error) {
	if topicARN == "" {
		return nil, errors.New("sns topic arn not set")
	}
	return &SNSNotifier{client: client, topicARN: topicARN}, nil
}

func (n *SNSNotifier) NotifySuccess(ctx context.Context, to string, p domain.SuccessNotification) error {
	return n.publish(ctx, SuccessTemplate, to, successSubject(p), p)
}

func (n *SNSNotifier) NotifyFailure(ctx context.Context, to string, p domain.FailureNotification) error {
	return n.publish(ctx, FailureTemplate, to, failureSubject(p), p)
}

func (n *SNSNotifier) publish(ctx context.Context, template, to, subject string, data any) error {
	body, err := json.Marshal(snsMessage{Template: template, To: to, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(truncateSubject(subject)),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"template": {
				DataType:    aws.String("String"),
				StringValue: aws.String(template),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", n.topicARN, err)
	}
	return nil
}

// SNS rejects subjects longer than 100 characters.
func truncateSubject(s string) string {
	r := []rune(s)
	if len(r) <= 100 {
		return s
	}
	return string(r[:100])
}
