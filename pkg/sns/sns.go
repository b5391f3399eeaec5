package sns

import (
	"context"
	"fmt"
	"heimdall/pkg/alert"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	jsoniter "github.com/json-iterator/go"
)

type snsNotifier struct {
	client   snsiface.SNSAPI
	topicArn string
}

// New returns nil when ALERT_TOPIC_ARN is unset so the caller can skip SNS alerts.
func New(sess *session.Session) alert.Notifier {
	topic := os.Getenv("ALERT_TOPIC_ARN")
	if topic == "" {
		return nil
	}
	return NewWithClient(sns.New(sess), topic)
}

func NewWithClient(client snsiface.SNSAPI, topicArn string) alert.Notifier {
	return &snsNotifier{client: client, topicArn: topicArn}
}

func (n *snsNotifier) Name() string {
	return "sns"
}

func (n *snsNotifier) Notify(ctx context.Context, v alert.Violation) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(v)
	if err != nil {
		return err
	}

	_, err = n.client.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Subject:  aws.String(truncateSubject(v.Subject())),
		Message:  aws.String(v.Body()),
		MessageAttributes: map[string]*sns.MessageAttributeValue{
			"zoneId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(v.ZoneID),
			},
			"payload": {
				DataType:    aws.String("String"),
				StringValue: aws.String(payload),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", n.topicArn, err)
	}
	return nil
}

// truncateSubject keeps the subject inside the 100 character SNS limit.
func truncateSubject(s string) string {
	if len(s) <= 100 {
		return s
	}
	return s[:100]
}
