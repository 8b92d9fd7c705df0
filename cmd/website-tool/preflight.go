package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	website "github.com/lazinessdevs/cloudfrontwebsite"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/preflight"
)

func newPreflightCmd(env *toolEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check the certificate and hosted zone against AWS",
		Long: `Check the externally managed inputs before deploying.

Reads CERTIFICATE_ARN and HOSTED_ZONE_ID and verifies that:
    - the certificate is ISSUED, lives in us-east-1 and covers the site domain
    - the hosted zone exists, is public and is named after the base domain
    - HOSTED_ZONE_ID is not the CloudFront alias zone

Uses the default AWS credential chain. Exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreflight(cmd.Context(), env)
		},
	}
}

func runPreflight(ctx context.Context, env *toolEnv) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := env.loadConfig()
	if err != nil {
		return err
	}
	log, err := env.logger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Flush(ctx) }()

	report, err := env.newChecker(log).Run(ctx, preflight.Target{
		CertificateARN: cfg.CertificateARN,
		HostedZoneID:   cfg.HostedZoneID,
		SiteDomain:     cfg.SiteDomain(),
		ZoneDomain:     website.BaseDomain,
	})
	if err != nil {
		return err
	}

	if err := writeReport(env.stdout, report); err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		checks := make([]string, 0, len(failed))
		for _, f := range failed {
			checks = append(checks, f.Check)
		}
		err := fmt.Errorf("%d preflight check(s) failed", len(failed))
		_ = observability.ReportFailure(ctx, log, env.notifier(ctx, log), observability.Failure{
			Command: "preflight",
			Code:    "preflight.failed",
			Message: err.Error(),
			Fields:  map[string]any{"failed_checks": checks},
			Stack:   cfg.StackName(),
		})
		return err
	}
	return nil
}

func writeReport(w io.Writer, report preflight.Report) error {
	var b strings.Builder
	for _, f := range report.Findings {
		status := "ok  "
		if !f.OK {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%s %s", status, f.Check)
		if f.Detail != "" {
			fmt.Fprintf(&b, ": %s", f.Detail)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
