package snsnotify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/require"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
)

const testTopic = "arn:aws:sns:eu-west-1:123456789012:site-alerts"

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestNotifyFailure_PublishesStackContext(t *testing.T) {
	pub := &fakePublisher{}
	n, err := New(pub, " "+testTopic+" ", "")
	require.NoError(t, err)

	err = n.NotifyFailure(context.Background(), observability.Failure{
		Command:  "synth",
		Code:     "stack.invalid",
		Message:  "website stack could not be declared\nsecond line",
		RunID:    "01RUN",
		Stack:    "cloudfront-website-live",
		Resource: "BucketPolicy",
		Fields: map[string]any{
			"certificate_arn": "arn:aws:acm:us-east-1:123456789012:certificate/abc",
		},
	})
	require.NoError(t, err)
	require.Len(t, pub.inputs, 1)

	in := pub.inputs[0]
	require.Equal(t, testTopic, aws.ToString(in.TopicArn))
	require.Equal(t, "cloudfront-website: cloudfront-website-live synth failed (stack.invalid)", aws.ToString(in.Subject))
	require.Equal(t, "BucketPolicy", aws.ToString(in.MessageAttributes["resource"].StringValue))
	require.Equal(t, "stack.invalid", aws.ToString(in.MessageAttributes["code"].StringValue))
	require.Equal(t, "String", aws.ToString(in.MessageAttributes["stack"].DataType))

	var body observability.Failure
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &body))
	require.Equal(t, "website stack could not be declaredsecond line", body.Message)
	require.Equal(t, "01RUN", body.RunID)
	require.Equal(t, "arn:aws:acm:us-east-1:********9012:certificate/abc", body.Fields["certificate_arn"])
	require.NotContains(t, aws.ToString(in.Message), "123456789012")
}

func TestNotifyFailure_SubjectFitsSNSLimits(t *testing.T) {
	pub := &fakePublisher{}
	n, err := New(pub, testTopic, "déploiement\r\n")
	require.NoError(t, err)

	require.NoError(t, n.NotifyFailure(context.Background(), observability.Failure{
		Command: "preflight",
		Stack:   strings.Repeat("s", 200),
		Fields:  map[string]any{"blob": strings.Repeat("x", 300*1024)},
	}))

	subject := aws.ToString(pub.inputs[0].Subject)
	require.LessOrEqual(t, len(subject), 100)
	require.True(t, strings.HasPrefix(subject, "dploiement: sss"), subject)
	require.LessOrEqual(t, len(aws.ToString(pub.inputs[0].Message)), 256*1024)
	require.NotContains(t, pub.inputs[0].MessageAttributes, "code")
}

func TestNotifyFailure_WrapsPublishError(t *testing.T) {
	n, err := New(&fakePublisher{err: errors.New("throttled")}, testTopic, "")
	require.NoError(t, err)
	err = n.NotifyFailure(context.Background(), observability.Failure{Command: "synth"})
	require.ErrorContains(t, err, "snsnotify: publish: throttled")
}

func TestNew_RejectsBadTopic(t *testing.T) {
	for _, topic := range []string{"", "site-alerts", "arn:aws:sqs:eu-west-1:123456789012:q"} {
		_, err := New(&fakePublisher{}, topic, "")
		require.ErrorIs(t, err, ErrInvalidTopic, topic)
	}
	_, err := New(nil, testTopic, "")
	require.Error(t, err)
}

func TestFromEnvironment(t *testing.T) {
	ctx := context.Background()
	creds := awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""))

	n, err := FromEnvironment(ctx, envFrom(nil), creds)
	require.NoError(t, err)
	require.Nil(t, n)

	_, err = FromEnvironment(ctx, envFrom(map[string]string{EnvTopicARN: "not-an-arn"}), creds)
	require.ErrorIs(t, err, ErrInvalidTopic)

	n, err = FromEnvironment(ctx, envFrom(map[string]string{
		EnvFallbackTopicARN: testTopic,
		EnvSubject:          " site deploy ",
	}), creds, awsconfig.WithRegion("us-east-1"))
	require.NoError(t, err)

	notifier, ok := n.(*Notifier)
	require.True(t, ok)
	require.Equal(t, "site deploy", notifier.subject)
	client, ok := notifier.client.(*sns.Client)
	require.True(t, ok)
	require.Equal(t, "eu-west-1", client.Options().Region)
}
