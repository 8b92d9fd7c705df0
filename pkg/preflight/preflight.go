// Package preflight checks the externally managed inputs of the website stack
// (the ACM certificate and the Route 53 hosted zone) before a deploy.
//
// Checks are read-only. Every AWS failure becomes a failing Finding; Run only
// returns an error when the target itself is malformed.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/smithy-go"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/logger"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/naming"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/site"
)

// CertificateRegion is the only region CloudFront accepts viewer
// certificates from.
const CertificateRegion = "us-east-1"

const (
	CheckCertificateARN     = "certificate.arn"
	CheckCertificateStatus  = "certificate.status"
	CheckCertificateDomain  = "certificate.domain"
	CheckHostedZoneDistinct = "hosted_zone.distinct"
	CheckHostedZoneExists   = "hosted_zone.exists"
	CheckHostedZonePublic   = "hosted_zone.public"
	CheckHostedZoneName     = "hosted_zone.name"
)

var ErrInvalidTarget = errors.New("preflight: invalid target")

type ACMAPI interface {
	DescribeCertificate(
		ctx context.Context,
		params *acm.DescribeCertificateInput,
		optFns ...func(*acm.Options),
	) (*acm.DescribeCertificateOutput, error)
}

type Route53API interface {
	GetHostedZone(
		ctx context.Context,
		params *route53.GetHostedZoneInput,
		optFns ...func(*route53.Options),
	) (*route53.GetHostedZoneOutput, error)
}

// Target names what the stack will reference.
type Target struct {
	CertificateARN string
	HostedZoneID   string
	// SiteDomain is the name the certificate must cover ("site.example.com").
	SiteDomain string
	// ZoneDomain is the apex the hosted zone must be named after ("example.com").
	ZoneDomain string
}

type Finding struct {
	Check  string `json:"check" yaml:"check"`
	OK     bool   `json:"ok" yaml:"ok"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type Report struct {
	Findings []Finding `json:"findings" yaml:"findings"`
}

func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

func (r Report) Failed() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.OK {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) pass(check, detail string) {
	r.Findings = append(r.Findings, Finding{Check: check, OK: true, Detail: detail})
}

func (r *Report) fail(check, detail string) {
	r.Findings = append(r.Findings, Finding{Check: check, Detail: detail})
}

type Checker struct {
	acm     ACMAPI
	route53 Route53API
	awsCfg  *aws.Config
	creds   aws.CredentialsProvider
	log     observability.StructuredLogger
}

type Option func(*Checker)

func WithACM(client ACMAPI) Option {
	return func(c *Checker) { c.acm = client }
}

func WithRoute53(client Route53API) Option {
	return func(c *Checker) { c.route53 = client }
}

// WithAWSConfig skips loading the shared AWS configuration.
func WithAWSConfig(cfg aws.Config) Option {
	return func(c *Checker) { c.awsCfg = &cfg }
}

func WithCredentials(provider aws.CredentialsProvider) Option {
	return func(c *Checker) { c.creds = provider }
}

func WithLogger(logger observability.StructuredLogger) Option {
	return func(c *Checker) { c.log = logger }
}

// New builds a Checker. Clients not supplied via options are created from the
// shared AWS configuration when Run needs them.
func New(opts ...Option) *Checker {
	c := &Checker{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.log == nil {
		c.log = logger.Logger()
	}
	return c
}

func (c *Checker) config(ctx context.Context) (aws.Config, error) {
	if c.awsCfg != nil {
		cfg := c.awsCfg.Copy()
		if c.creds != nil {
			cfg.Credentials = c.creds
		}
		return cfg, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.creds != nil {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(c.creds))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, err
	}
	c.awsCfg = &cfg
	return cfg.Copy(), nil
}

// acmClient returns the ACM client for the certificate's region.
func (c *Checker) acmClient(ctx context.Context, region string) (ACMAPI, error) {
	if c.acm != nil {
		return c.acm, nil
	}
	cfg, err := c.config(ctx)
	if err != nil {
		return nil, err
	}
	return acm.NewFromConfig(cfg, func(o *acm.Options) {
		o.Region = region
	}), nil
}

func (c *Checker) route53Client(ctx context.Context) (Route53API, error) {
	if c.route53 != nil {
		return c.route53, nil
	}
	cfg, err := c.config(ctx)
	if err != nil {
		return nil, err
	}
	return route53.NewFromConfig(cfg), nil
}

// Run performs every check and returns the findings in a fixed order.
func (c *Checker) Run(ctx context.Context, target Target) (Report, error) {
	target.CertificateARN = strings.TrimSpace(target.CertificateARN)
	target.HostedZoneID = strings.TrimSpace(target.HostedZoneID)
	target.SiteDomain = naming.FQDN("", target.SiteDomain)
	target.ZoneDomain = naming.FQDN("", target.ZoneDomain)

	switch {
	case target.CertificateARN == "":
		return Report{}, fmt.Errorf("%w: certificate arn is empty", ErrInvalidTarget)
	case target.HostedZoneID == "":
		return Report{}, fmt.Errorf("%w: hosted zone id is empty", ErrInvalidTarget)
	case target.SiteDomain == "" || target.ZoneDomain == "":
		return Report{}, fmt.Errorf("%w: domain is empty", ErrInvalidTarget)
	}

	var report Report
	c.checkCertificate(ctx, target, &report)
	c.checkHostedZone(ctx, target, &report)

	for _, f := range report.Findings {
		fields := map[string]any{"check": f.Check, "detail": f.Detail}
		if f.OK {
			c.log.Debug("preflight check passed", fields)
		} else {
			c.log.Warn("preflight check failed", fields)
		}
	}
	return report, nil
}

func (c *Checker) checkCertificate(ctx context.Context, target Target, report *Report) {
	parsed, err := arn.Parse(target.CertificateARN)
	if err != nil {
		report.fail(CheckCertificateARN, "not an ARN: "+err.Error())
		return
	}
	if parsed.Service != "acm" || !strings.HasPrefix(parsed.Resource, "certificate/") {
		report.fail(CheckCertificateARN, "not an ACM certificate: "+parsed.Service+":"+parsed.Resource)
		return
	}
	if parsed.Region != CertificateRegion {
		report.fail(CheckCertificateARN, fmt.Sprintf("certificate is in %s, CloudFront requires %s", parsed.Region, CertificateRegion))
		return
	}
	report.pass(CheckCertificateARN, parsed.Region)

	client, err := c.acmClient(ctx, parsed.Region)
	if err != nil {
		report.fail(CheckCertificateStatus, "aws config: "+err.Error())
		return
	}
	out, err := client.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
		CertificateArn: aws.String(target.CertificateARN),
	})
	if err != nil {
		report.fail(CheckCertificateStatus, describeAPIError(err))
		return
	}
	if out == nil || out.Certificate == nil {
		report.fail(CheckCertificateStatus, "certificate details missing from response")
		return
	}

	cert := out.Certificate
	if cert.Status != acmtypes.CertificateStatusIssued {
		report.fail(CheckCertificateStatus, "status is "+string(cert.Status))
	} else {
		report.pass(CheckCertificateStatus, string(cert.Status))
	}

	names := append([]string{aws.ToString(cert.DomainName)}, cert.SubjectAlternativeNames...)
	if CertificateCovers(names, target.SiteDomain) {
		report.pass(CheckCertificateDomain, target.SiteDomain)
	} else {
		report.fail(CheckCertificateDomain, fmt.Sprintf("%s is not covered by %s", target.SiteDomain, strings.Join(names, ", ")))
	}
}

func (c *Checker) checkHostedZone(ctx context.Context, target Target, report *Report) {
	zoneID := strings.TrimPrefix(target.HostedZoneID, "/hostedzone/")
	if zoneID == site.CloudFrontHostedZoneID {
		report.fail(CheckHostedZoneDistinct, "HOSTED_ZONE_ID is the CloudFront alias zone, not the zone that owns the domain")
		return
	}
	report.pass(CheckHostedZoneDistinct, zoneID)

	client, err := c.route53Client(ctx)
	if err != nil {
		report.fail(CheckHostedZoneExists, "aws config: "+err.Error())
		return
	}
	out, err := client.GetHostedZone(ctx, &route53.GetHostedZoneInput{Id: aws.String(zoneID)})
	if err != nil {
		report.fail(CheckHostedZoneExists, describeAPIError(err))
		return
	}
	if out == nil || out.HostedZone == nil {
		report.fail(CheckHostedZoneExists, "hosted zone missing from response")
		return
	}
	zone := out.HostedZone
	report.pass(CheckHostedZoneExists, aws.ToString(zone.Id))

	if zone.Config != nil && zone.Config.PrivateZone {
		report.fail(CheckHostedZonePublic, "zone is private; CloudFront aliases need a public zone")
	} else {
		report.pass(CheckHostedZonePublic, "")
	}

	want := naming.ZoneName(target.ZoneDomain)
	got := naming.ZoneName(aws.ToString(zone.Name))
	if got != want {
		report.fail(CheckHostedZoneName, fmt.Sprintf("zone is %s, expected %s", got, want))
	} else {
		report.pass(CheckHostedZoneName, got)
	}
}

// CertificateCovers reports whether any of names matches domain. A leading
// "*." matches exactly one label.
func CertificateCovers(names []string, domain string) bool {
	domain = naming.FQDN("", domain)
	if domain == "" {
		return false
	}
	for _, name := range names {
		name = naming.FQDN("", name)
		if name == "" {
			continue
		}
		if name == domain {
			return true
		}
		if suffix, ok := strings.CutPrefix(name, "*."); ok {
			label, rest, found := strings.Cut(domain, ".")
			if found && label != "" && rest == suffix {
				return true
			}
		}
	}
	return false
}

func describeAPIError(err error) string {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch code := apiErr.ErrorCode(); {
	case code == "ResourceNotFoundException" || code == "NoSuchHostedZone":
		return "not found: " + apiErr.ErrorMessage()
	case strings.HasPrefix(code, "AccessDenied"):
		return "access denied: " + apiErr.ErrorMessage()
	case code == "InvalidArnException" || code == "InvalidInput":
		return "rejected: " + apiErr.ErrorMessage()
	default:
		return code + ": " + apiErr.ErrorMessage()
	}
}
