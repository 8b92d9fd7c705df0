package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	website "github.com/lazinessdevs/cloudfrontwebsite"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/preflight"
)

type stubIDs struct{}

func (stubIDs) NewID() string { return "01TEST" }

type stubACM struct {
	status acmtypes.CertificateStatus
}

func (s stubACM) DescribeCertificate(_ context.Context, params *acm.DescribeCertificateInput, _ ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error) {
	return &acm.DescribeCertificateOutput{Certificate: &acmtypes.CertificateDetail{
		CertificateArn: params.CertificateArn,
		DomainName:     aws.String("*.lazinessdevs.com"),
		Status:         s.status,
	}}, nil
}

type stubRoute53 struct{}

func (stubRoute53) GetHostedZone(_ context.Context, params *route53.GetHostedZoneInput, _ ...func(*route53.Options)) (*route53.GetHostedZoneOutput, error) {
	return &route53.GetHostedZoneOutput{HostedZone: &r53types.HostedZone{
		Id:   aws.String("/hostedzone/" + aws.ToString(params.Id)),
		Name: aws.String("lazinessdevs.com."),
	}}, nil
}

type recordingNotifier struct {
	failures []observability.Failure
}

func (n *recordingNotifier) NotifyFailure(_ context.Context, f observability.Failure) error {
	n.failures = append(n.failures, f)
	return nil
}

type harness struct {
	env      *toolEnv
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	notifier *recordingNotifier
}

func newHarness(t *testing.T, vars map[string]string, certStatus acmtypes.CertificateStatus) harness {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "website"), 0o750))
	cfgPath := filepath.Join(root, "website.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("stage: dev\nlog:\n  level: error\n"), 0o600))

	merged := map[string]string{website.EnvConfigPath: cfgPath}
	for k, v := range vars {
		merged[k] = v
	}

	h := harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, notifier: &recordingNotifier{}}
	h.env = &toolEnv{
		stdout: h.stdout,
		stderr: h.stderr,
		getenv: func(key string) string { return merged[key] },
		ids:    stubIDs{},
		newChecker: func(log observability.StructuredLogger) *preflight.Checker {
			return preflight.New(
				preflight.WithACM(stubACM{status: certStatus}),
				preflight.WithRoute53(stubRoute53{}),
				preflight.WithLogger(log),
			)
		},
		newNotifier: func(context.Context) (observability.FailureNotifier, error) {
			return h.notifier, nil
		},
	}
	return h
}

func requiredEnv() map[string]string {
	return map[string]string{
		website.EnvCertificateARN: "arn:aws:acm:us-east-1:123456789012:certificate/abc",
		website.EnvHostedZoneID:   "ZABCDEF",
		website.EnvDefaultAccount: "123456789012",
	}
}

func TestPlan_Text(t *testing.T) {
	h := newHarness(t, nil, "")
	require.Equal(t, 0, run([]string{"plan"}, h.env))

	out := h.stdout.String()
	require.Contains(t, out, "domain: site.lazinessdevs.com (alias zone Z2FDTNDATAQYW2)")
	require.Contains(t, out, "1. Bucket [storage-bucket]")
	require.Contains(t, out, "ARecord [dns-alias-record] after Distribution")
	require.Contains(t, out, "1. Bucket, OriginAccessIdentity")
	require.Contains(t, out, "3. ARecord")

	destroy := out[strings.Index(out, "destroy:"):]
	require.Less(t, strings.Index(destroy, "ARecord"), strings.Index(destroy, "Bucket"))
}

func TestPlan_YAML(t *testing.T) {
	h := newHarness(t, nil, "")
	require.Equal(t, 0, run([]string{"plan", "-o", "yaml"}, h.env))

	var p plan
	require.NoError(t, yaml.Unmarshal(h.stdout.Bytes(), &p))
	require.Len(t, p.Create, 6)
	require.Equal(t, "ARecord", p.Destroy[0])
	require.Equal(t, "Bucket", p.Destroy[len(p.Destroy)-1])
	require.Len(t, p.Waves, 3)
}

func TestPlan_UnknownOutput(t *testing.T) {
	h := newHarness(t, nil, "")
	require.Equal(t, 2, run([]string{"plan", "-o", "xml"}, h.env))
	require.Contains(t, h.stderr.String(), "website-tool: FAIL: unknown output: xml")
}

func TestGraph(t *testing.T) {
	h := newHarness(t, nil, "")
	require.Equal(t, 0, run([]string{"graph"}, h.env))
	require.Contains(t, h.stdout.String(), "digraph")
	require.Contains(t, h.stdout.String(), "OriginAccessIdentity")

	h = newHarness(t, nil, "")
	require.Equal(t, 0, run([]string{"graph", "--format", "mermaid"}, h.env))
	require.NotContains(t, h.stdout.String(), "digraph")

	h = newHarness(t, nil, "")
	require.Equal(t, 2, run([]string{"graph", "-f", "png"}, h.env))
}

func TestConfig_MasksSensitiveValues(t *testing.T) {
	h := newHarness(t, requiredEnv(), "")
	require.Equal(t, 0, run([]string{"config"}, h.env), h.stderr.String())

	var got effectiveConfig
	require.NoError(t, yaml.Unmarshal(h.stdout.Bytes(), &got))
	require.Equal(t, "cloudfront-website-dev", got.StackName)
	require.Equal(t, "site.lazinessdevs.com", got.SiteDomain)
	require.Equal(t, "Z2FDTNDATAQYW2", got.AliasZoneID)
	require.Equal(t, "ZABCDEF", got.HostedZoneID)
	require.Equal(t, "********9012", got.Account)
	require.Equal(t, "arn:aws:acm:us-east-1:********9012:certificate/abc", got.CertificateARN)
	require.NotContains(t, h.stdout.String(), "123456789012")
}

func TestConfig_MissingEnvironment(t *testing.T) {
	h := newHarness(t, nil, "")
	require.Equal(t, 2, run([]string{"config"}, h.env))
	require.Contains(t, h.stderr.String(), "config.missing_env")
	require.Contains(t, h.stderr.String(), website.EnvCertificateARN)
	require.Contains(t, h.stderr.String(), website.EnvHostedZoneID)
}

func TestPreflight(t *testing.T) {
	h := newHarness(t, requiredEnv(), acmtypes.CertificateStatusIssued)
	require.Equal(t, 0, run([]string{"preflight"}, h.env), h.stderr.String())
	require.Contains(t, h.stdout.String(), "ok   certificate.domain: site.lazinessdevs.com")
	require.NotContains(t, h.stdout.String(), "FAIL")
	require.Empty(t, h.notifier.failures)

	h = newHarness(t, requiredEnv(), acmtypes.CertificateStatusExpired)
	require.Equal(t, 2, run([]string{"preflight"}, h.env))
	require.Contains(t, h.stdout.String(), "FAIL certificate.status: status is EXPIRED")
	require.Contains(t, h.stderr.String(), "1 preflight check(s) failed")

	require.Len(t, h.notifier.failures, 1)
	f := h.notifier.failures[0]
	require.Equal(t, "preflight", f.Command)
	require.Equal(t, "preflight.failed", f.Code)
	require.Equal(t, "cloudfront-website-dev", f.Stack)
	require.Equal(t, []string{"certificate.status"}, f.Fields["failed_checks"])
}

func TestPreflight_NotifierSetupErrorDoesNotMaskFailure(t *testing.T) {
	h := newHarness(t, requiredEnv(), acmtypes.CertificateStatusExpired)
	h.env.newNotifier = func(context.Context) (observability.FailureNotifier, error) {
		return nil, errors.New("no region")
	}
	require.Equal(t, 2, run([]string{"preflight"}, h.env))
	require.Contains(t, h.stderr.String(), "1 preflight check(s) failed")
}
