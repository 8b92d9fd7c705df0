// Command website-tool inspects the website stack without deploying it.
//
// Usage:
//
//	website-tool plan                 Creation/destruction order and waves
//	website-tool graph -f mermaid     Resource graph as DOT or Mermaid
//	website-tool preflight            Check the certificate and hosted zone
//	website-tool config               Effective configuration, masked
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	website "github.com/lazinessdevs/cloudfrontwebsite"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability/snsnotify"
	zaplogger "github.com/lazinessdevs/cloudfrontwebsite/pkg/observability/zap"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/preflight"
)

type toolEnv struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	ids    website.IDGenerator

	newChecker  func(log observability.StructuredLogger) *preflight.Checker
	newNotifier func(ctx context.Context) (observability.FailureNotifier, error)

	configPath string
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], &toolEnv{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		ids:    website.ULIDGenerator{},
		newChecker: func(log observability.StructuredLogger) *preflight.Checker {
			return preflight.New(preflight.WithLogger(log))
		},
		newNotifier: func(ctx context.Context) (observability.FailureNotifier, error) {
			return snsnotify.FromEnvironment(ctx, os.Getenv)
		},
	}))
}

func run(args []string, env *toolEnv) int {
	root := newRootCmd(env)
	root.SetArgs(args)
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(env.stderr, "website-tool: FAIL: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd(env *toolEnv) *cobra.Command {
	root := &cobra.Command{
		Use:   "website-tool",
		Short: "Inspect the CloudFront website stack",
		Long: `website-tool inspects the static website stack without deploying it.

The stack itself is synthesized by the CDK CLI (see cdk.json). This tool
prints the resource plan, renders the dependency graph, checks the
externally managed certificate and hosted zone, and shows the effective
configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&env.configPath, "config", "", "YAML config file (default $"+website.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&env.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(
		newPlanCmd(env),
		newGraphCmd(env),
		newPreflightCmd(env),
		newConfigCmd(env),
	)
	return root
}

func (e *toolEnv) loadConfig() (website.Config, error) {
	path := strings.TrimSpace(e.configPath)
	if path == "" {
		path = e.getenv(website.EnvConfigPath)
	}
	return website.LoadConfig(path, e.getenv)
}

// logger builds the per-invocation logger. The --log-level flag wins over
// the level from the config file.
func (e *toolEnv) logger(cfg observability.LoggerConfig) (observability.StructuredLogger, error) {
	if lvl := strings.TrimSpace(e.logLevel); lvl != "" {
		cfg.Level = lvl
	}
	log, err := zaplogger.NewZapLogger(cfg)
	if err != nil {
		return nil, err
	}
	return log.WithRunID(e.ids.NewID()), nil
}

// notifier returns nil when no topic is configured or the SNS client cannot
// be built; the failure is still logged either way.
func (e *toolEnv) notifier(ctx context.Context, log observability.StructuredLogger) observability.FailureNotifier {
	if e.newNotifier == nil {
		return nil
	}
	n, err := e.newNotifier(ctx)
	if err != nil {
		log.Warn("failure notifications disabled", map[string]any{"error": err.Error()})
		return nil
	}
	return n
}
