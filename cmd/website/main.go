// Command website is the CDK app entrypoint (see cdk.json). It reads its
// configuration from the environment and writes the cloud assembly for the
// CDK CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"

	website "github.com/lazinessdevs/cloudfrontwebsite"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/logger"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability/snsnotify"
	zaplogger "github.com/lazinessdevs/cloudfrontwebsite/pkg/observability/zap"
)

func main() {
	os.Exit(run(nil))
}

// run synthesizes into appProps.Outdir, or the directory the CDK CLI passes
// through the environment when appProps is nil. A failed run logs and
// publishes one failure notification before exiting 2.
func run(appProps *awscdk.AppProps) int {
	ctx := context.Background()

	cfg, err := website.ConfigFromEnv()
	log := newLogger(cfg.Log)
	logger.SetLogger(log)
	defer func() {
		_ = log.Flush(ctx)
		_ = log.Close()
		logger.SetLogger(nil)
	}()

	if err == nil {
		var app *website.App
		if app, err = website.New(cfg, website.WithLogger(log), website.WithAppProps(appProps)); err == nil {
			app.Synth()
			return 0
		}
	}

	notifier, nerr := newNotifier(ctx)
	if nerr != nil {
		log.Warn("failure notifications disabled", map[string]any{"error": nerr.Error()})
	}
	_ = observability.ReportFailure(ctx, log, notifier, website.FailureFrom("synth", cfg, err))
	fmt.Fprintf(os.Stderr, "website: FAIL: %v\n", err)
	return 2
}

var newNotifier = func(ctx context.Context) (observability.FailureNotifier, error) {
	return snsnotify.FromEnvironment(ctx, os.Getenv)
}

// newLogger falls back to the no-op logger so a broken logging config never
// blocks synthesis.
func newLogger(cfg observability.LoggerConfig) observability.StructuredLogger {
	log, err := zaplogger.NewZapLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "website: logging disabled: %v\n", err)
		return observability.NewNoOpLogger()
	}
	return log
}
