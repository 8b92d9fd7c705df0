// Package cloudfrontwebsite declares a static website on AWS: a private S3
// bucket fronted by CloudFront, read through an origin access identity, and
// published under a Route 53 alias record.
//
// The package assembles the CDK app; the resources themselves live in
// pkg/site.
package cloudfrontwebsite

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/cxapi"
	"github.com/aws/jsii-runtime-go"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/logger"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/naming"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/site"
)

// App is the CDK app holding the website stack.
type App struct {
	cdk   awscdk.App
	stack *site.WebsiteStack
	cfg   Config
	runID string
	log   observability.StructuredLogger
}

type Option func(*appOptions)

type appOptions struct {
	logger   observability.StructuredLogger
	ids      IDGenerator
	appProps *awscdk.AppProps
}

func WithLogger(logger observability.StructuredLogger) Option {
	return func(opts *appOptions) {
		opts.logger = logger
	}
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(opts *appOptions) {
		opts.ids = ids
	}
}

// WithAppProps overrides the CDK app props (output directory, context).
func WithAppProps(props *awscdk.AppProps) Option {
	return func(opts *appOptions) {
		opts.appProps = props
	}
}

// New validates cfg and declares the website stack in a fresh CDK app.
func New(cfg Config, opts ...Option) (*App, error) {
	o := &appOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Logger()
	}
	if o.ids == nil {
		o.ids = ULIDGenerator{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := o.ids.NewID()
	log := o.logger.WithRunID(runID)

	cdkApp := awscdk.NewApp(o.appProps)
	stack, err := site.NewWebsiteStack(cdkApp, cfg.StackID(), &site.WebsiteStackProps{
		StackProps: awscdk.StackProps{
			StackName:   jsii.String(cfg.StackName()),
			Description: jsii.String("Static website for " + cfg.SiteDomain()),
			Env:         stackEnv(cfg),
		},
		CertificateArn:    cfg.CertificateARN,
		HostedZoneId:      cfg.HostedZoneID,
		RecordName:        SubdomainLabel,
		DomainName:        BaseDomain,
		AssetPath:         cfg.AssetDir,
		DefaultRootObject: DefaultRootObject,
		Logger:            log,
	})
	if err != nil {
		return nil, &AppError{Code: ErrorCodeStackInvalid, Message: errorMessageStack, Err: err}
	}

	tags := awscdk.Tags_Of(stack.Stack)
	tags.Add(jsii.String("app"), jsii.String(cfg.AppName), nil)
	if stage := naming.NormalizeStage(cfg.Stage); stage != "" {
		tags.Add(jsii.String("stage"), jsii.String(stage), nil)
	}

	return &App{
		cdk:   cdkApp,
		stack: stack,
		cfg:   cfg,
		runID: runID,
		log:   log,
	}, nil
}

func stackEnv(cfg Config) *awscdk.Environment {
	account := strings.TrimSpace(cfg.Account)
	region := strings.TrimSpace(cfg.Region)
	if account == "" && region == "" {
		return nil
	}
	env := &awscdk.Environment{}
	if account != "" {
		env.Account = jsii.String(account)
	}
	if region != "" {
		env.Region = jsii.String(region)
	}
	return env
}

// Synth writes the cloud assembly for the orchestrator.
func (a *App) Synth() cxapi.CloudAssembly {
	a.log.Info("synthesizing cloud assembly", map[string]any{
		"stack_name": a.cfg.StackName(),
	})
	return a.cdk.Synth(nil)
}

func (a *App) CDK() awscdk.App {
	return a.cdk
}

func (a *App) Stack() *site.WebsiteStack {
	return a.stack
}

func (a *App) Config() Config {
	return a.cfg
}

func (a *App) RunID() string {
	return a.runID
}
