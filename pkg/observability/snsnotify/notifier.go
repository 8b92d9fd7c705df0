// Package snsnotify publishes a failed run's Failure to an SNS topic.
//
// Set WEBSITE_ERROR_TOPIC_ARN (or ERROR_NOTIFICATIONS_TOPIC_ARN) to enable
// it; WEBSITE_ERROR_SUBJECT overrides the subject prefix.
package snsnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/sanitization"
)

const (
	EnvTopicARN         = "WEBSITE_ERROR_TOPIC_ARN"
	EnvFallbackTopicARN = "ERROR_NOTIFICATIONS_TOPIC_ARN"
	EnvSubject          = "WEBSITE_ERROR_SUBJECT"

	defaultSubject = "cloudfront-website"

	// SNS limits.
	maxSubjectLen = 100
	maxMessageLen = 256 * 1024
)

var ErrInvalidTopic = errors.New("snsnotify: invalid topic arn")

type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier sends one SNS message per Failure. Stack, code and command travel
// as message attributes so subscriptions can filter on them.
type Notifier struct {
	client   Publisher
	topicARN string
	subject  string
}

var _ observability.FailureNotifier = (*Notifier)(nil)

// New validates topicARN and returns a Notifier publishing through client.
func New(client Publisher, topicARN, subject string) (*Notifier, error) {
	topicARN = strings.TrimSpace(topicARN)
	if _, err := topicRegion(topicARN); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("snsnotify: publisher is nil")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = defaultSubject
	}
	return &Notifier{client: client, topicARN: topicARN, subject: subject}, nil
}

// FromEnvironment builds a Notifier from getenv and the shared AWS config. The
// SNS client is pinned to the topic's region. It returns nil, nil when no
// topic is configured.
func FromEnvironment(ctx context.Context, getenv func(string) string, loadOpts ...func(*awsconfig.LoadOptions) error) (observability.FailureNotifier, error) {
	topicARN := strings.TrimSpace(getenv(EnvTopicARN))
	if topicARN == "" {
		topicARN = strings.TrimSpace(getenv(EnvFallbackTopicARN))
	}
	if topicARN == "" {
		return nil, nil
	}
	region, err := topicRegion(topicARN)
	if err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("snsnotify: aws config: %w", err)
	}
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		o.Region = region
	})
	n, err := New(client, topicARN, getenv(EnvSubject))
	if err != nil {
		return nil, err
	}
	return n, nil
}

func topicRegion(topicARN string) (string, error) {
	parsed, err := arn.Parse(topicARN)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	if parsed.Service != "sns" || parsed.Region == "" || parsed.Resource == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidTopic, sanitization.MaskARN(topicARN))
	}
	return parsed.Region, nil
}

func (n *Notifier) NotifyFailure(ctx context.Context, f observability.Failure) error {
	fields := make(map[string]any, len(f.Fields))
	for k, v := range f.Fields {
		fields[k] = sanitization.SanitizeFieldValue(k, v)
	}
	f.Fields = fields
	f.Message = sanitization.SanitizeLogString(f.Message)

	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("snsnotify: encode failure: %w", err)
	}
	message := string(body)
	if len(message) > maxMessageLen {
		message = message[:maxMessageLen]
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(n.topicARN),
		Subject:           aws.String(n.subjectFor(f)),
		Message:           aws.String(message),
		MessageAttributes: attributes(f),
	})
	if err != nil {
		return fmt.Errorf("snsnotify: publish: %w", err)
	}
	return nil
}

// subjectFor renders "<prefix>: <stack> <command> failed (<code>)". SNS
// subjects must be printable ASCII without line breaks.
func (n *Notifier) subjectFor(f observability.Failure) string {
	parts := []string{n.subject + ":"}
	if f.Stack != "" {
		parts = append(parts, f.Stack)
	}
	parts = append(parts, f.Command, "failed")
	if f.Code != "" {
		parts = append(parts, "("+f.Code+")")
	}
	subject := strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range subject {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	subject = b.String()
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}
	return subject
}

func attributes(f observability.Failure) map[string]snstypes.MessageAttributeValue {
	out := map[string]snstypes.MessageAttributeValue{}
	for name, value := range map[string]string{
		"command":  f.Command,
		"code":     f.Code,
		"stack":    f.Stack,
		"resource": f.Resource,
		"run_id":   f.RunID,
	} {
		if value == "" {
			continue
		}
		out[name] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(value),
		}
	}
	return out
}
