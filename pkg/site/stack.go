package site

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/graph"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/logger"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/naming"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
)

// WebsiteStackProps configures a WebsiteStack.
type WebsiteStackProps struct {
	awscdk.StackProps

	// ARN of an issued ACM certificate in us-east-1 covering RecordName.DomainName.
	CertificateArn string
	// Id of the existing public hosted zone that owns DomainName.
	HostedZoneId string
	// Label under DomainName, e.g. "site".
	RecordName string
	// Apex domain, e.g. "example.com".
	DomainName string
	// Local directory uploaded into the bucket on every deploy.
	AssetPath string
	// Default: index.html
	DefaultRootObject string

	Logger observability.StructuredLogger
}

// WebsiteStack is a private S3 bucket served through CloudFront under a
// custom domain.
//
// Resources are declared by walking Topology().CreationOrder(); each step
// only reads handles produced by its predecessors.
type WebsiteStack struct {
	awscdk.Stack

	Bucket        awss3.Bucket
	Deployment    awss3deployment.BucketDeployment
	Identity      awscloudfront.OriginAccessIdentity
	ReadStatement awsiam.PolicyStatement
	Certificate   awscertificatemanager.ICertificate
	Distribution  awscloudfront.Distribution
	Record        awsroute53.CfnRecordSet

	props WebsiteStackProps
	graph *graph.Graph
	log   observability.StructuredLogger
}

func NewWebsiteStack(scope constructs.Construct, id string, props *WebsiteStackProps) (*WebsiteStack, error) {
	if props == nil {
		return nil, errors.New("site: props are required")
	}
	p := *props
	if strings.TrimSpace(p.DefaultRootObject) == "" {
		p.DefaultRootObject = DefaultRootObject
	}
	if err := validateProps(p); err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = logger.Logger()
	}

	s := &WebsiteStack{
		Stack: awscdk.NewStack(scope, jsii.String(id), &p.StackProps),
		props: p,
		graph: Topology(),
		log:   log.WithStack(id),
	}

	steps := map[string]func() error{
		BucketID:       s.declareBucket,
		DeploymentID:   s.declareDeployment,
		IdentityID:     s.declareIdentity,
		PolicyID:       s.declarePolicy,
		DistributionID: s.declareDistribution,
		RecordID:       s.declareRecord,
	}

	for _, nodeID := range s.graph.CreationOrder() {
		step, ok := steps[nodeID]
		if !ok {
			return nil, fmt.Errorf("site: no declaration for node %s", nodeID)
		}
		node, _ := s.graph.Node(nodeID)
		s.log.WithResource(nodeID).Debug("declaring resource", map[string]any{
			"kind":       string(node.Kind),
			"depends_on": node.DependsOn,
		})
		if err := step(); err != nil {
			return nil, &DeclareError{Resource: nodeID, Kind: node.Kind, Err: err}
		}
	}

	s.declareOutputs()

	s.log.Info("website stack declared", map[string]any{
		"domain_name":     s.SiteDomain(),
		"hosted_zone_id":  p.HostedZoneId,
		"certificate_arn": p.CertificateArn,
		"resources":       s.graph.Len(),
	})
	return s, nil
}

// DeclareError reports the resource whose declaration step failed.
type DeclareError struct {
	Resource string
	Kind     graph.Kind
	Err      error
}

func (e *DeclareError) Error() string {
	return fmt.Sprintf("site: declare %s (%s): %v", e.Resource, e.Kind, e.Err)
}

func (e *DeclareError) Unwrap() error {
	return e.Err
}

func validateProps(p WebsiteStackProps) error {
	required := []struct {
		name  string
		value string
	}{
		{"CertificateArn", p.CertificateArn},
		{"HostedZoneId", p.HostedZoneId},
		{"RecordName", p.RecordName},
		{"DomainName", p.DomainName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("site: %s is required", r.name)
		}
	}
	return CheckAssetDir(p.AssetPath)
}

// Graph returns the resource graph the stack was declared from.
func (s *WebsiteStack) Graph() *graph.Graph {
	return s.graph
}

// SiteDomain is the hostname both the distribution and the alias record use.
func (s *WebsiteStack) SiteDomain() string {
	return naming.FQDN(s.props.RecordName, s.props.DomainName)
}

func (s *WebsiteStack) declareBucket() error {
	s.Bucket = awss3.NewBucket(s.Stack, jsii.String(BucketID), &awss3.BucketProps{
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		PublicReadAccess:  jsii.Bool(false),
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects: jsii.Bool(true),
	})
	return nil
}

func (s *WebsiteStack) declareDeployment() error {
	s.Deployment = awss3deployment.NewBucketDeployment(s.Stack, jsii.String(DeploymentID), &awss3deployment.BucketDeploymentProps{
		DestinationBucket: s.Bucket,
		Sources: &[]awss3deployment.ISource{
			awss3deployment.Source_Asset(jsii.String(s.props.AssetPath), nil),
		},
		Prune: jsii.Bool(true),
	})
	return nil
}

func (s *WebsiteStack) declareIdentity() error {
	s.Identity = awscloudfront.NewOriginAccessIdentity(s.Stack, jsii.String(IdentityID), &awscloudfront.OriginAccessIdentityProps{
		Comment: jsii.String("Origin access for " + s.SiteDomain()),
	})
	return nil
}

func (s *WebsiteStack) declarePolicy() error {
	s.ReadStatement = awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    awsiam.Effect_ALLOW,
		Actions:   jsii.Strings(ReadObjectAction),
		Resources: &[]*string{s.Bucket.ArnForObjects(jsii.String("*"))},
		Principals: &[]awsiam.IPrincipal{
			awsiam.NewCanonicalUserPrincipal(s.Identity.CloudFrontOriginAccessIdentityS3CanonicalUserId()),
		},
	})

	result := s.Bucket.AddToResourcePolicy(s.ReadStatement)
	if result == nil || result.StatementAdded == nil || !*result.StatementAdded {
		return errors.New("bucket rejected the read statement")
	}
	return nil
}

func (s *WebsiteStack) declareDistribution() error {
	s.Certificate = awscertificatemanager.Certificate_FromCertificateArn(
		s.Stack,
		jsii.String(CertificateID),
		jsii.String(s.props.CertificateArn),
	)

	origin := awscloudfrontorigins.S3BucketOrigin_WithOriginAccessIdentity(s.Bucket, &awscloudfrontorigins.S3BucketOriginWithOAIProps{
		OriginAccessIdentity: s.Identity,
	})

	s.Distribution = awscloudfront.NewDistribution(s.Stack, jsii.String(DistributionID), &awscloudfront.DistributionProps{
		Certificate: s.Certificate,
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               origin,
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		},
		DomainNames:       jsii.Strings(s.SiteDomain()),
		DefaultRootObject: jsii.String(s.props.DefaultRootObject),
	})
	return nil
}

func (s *WebsiteStack) declareRecord() error {
	s.Record = awsroute53.NewCfnRecordSet(s.Stack, jsii.String(RecordID), &awsroute53.CfnRecordSetProps{
		HostedZoneId: jsii.String(s.props.HostedZoneId),
		Type:         jsii.String(AliasRecordType),
		Name:         jsii.String(s.SiteDomain()),
		AliasTarget: &awsroute53.CfnRecordSet_AliasTargetProperty{
			DnsName:              s.Distribution.DistributionDomainName(),
			HostedZoneId:         jsii.String(CloudFrontHostedZoneID),
			EvaluateTargetHealth: jsii.Bool(false),
		},
	})
	return nil
}

func (s *WebsiteStack) declareOutputs() {
	awscdk.NewCfnOutput(s.Stack, jsii.String("BucketName"), &awscdk.CfnOutputProps{
		Value: s.Bucket.BucketName(),
	})
	awscdk.NewCfnOutput(s.Stack, jsii.String("DistributionId"), &awscdk.CfnOutputProps{
		Value: s.Distribution.DistributionId(),
	})
	awscdk.NewCfnOutput(s.Stack, jsii.String("DistributionDomainName"), &awscdk.CfnOutputProps{
		Value: s.Distribution.DistributionDomainName(),
	})
	awscdk.NewCfnOutput(s.Stack, jsii.String("SiteUrl"), &awscdk.CfnOutputProps{
		Value: jsii.String("https://" + s.SiteDomain()),
	})
}
