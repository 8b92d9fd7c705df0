package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	website "github.com/lazinessdevs/cloudfrontwebsite"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/sanitization"
)

// effectiveConfig is the printable view of website.Config. Env-only values
// are included, masked.
type effectiveConfig struct {
	App            string                     `yaml:"app"`
	Stage          string                     `yaml:"stage,omitempty"`
	StackName      string                     `yaml:"stack_name"`
	Account        string                     `yaml:"account,omitempty"`
	Region         string                     `yaml:"region,omitempty"`
	AssetDir       string                     `yaml:"asset_dir"`
	SiteDomain     string                     `yaml:"site_domain"`
	RootObject     string                     `yaml:"default_root_object"`
	AliasZoneID    string                     `yaml:"alias_zone_id"`
	CertificateARN string                     `yaml:"certificate_arn"`
	HostedZoneID   string                     `yaml:"hosted_zone_id"`
	Log            observability.LoggerConfig `yaml:"log"`
}

func newConfigCmd(env *toolEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration the CDK app would synthesize with, as YAML.

Defaults, the config file and the environment are merged and validated
exactly as during synthesis. Account ids and ARNs are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(env.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(maskConfig(cfg)); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func maskConfig(cfg website.Config) effectiveConfig {
	return effectiveConfig{
		App:            cfg.AppName,
		Stage:          cfg.Stage,
		StackName:      cfg.StackName(),
		Account:        masked("account", cfg.Account),
		Region:         cfg.Region,
		AssetDir:       cfg.AssetDir,
		SiteDomain:     cfg.SiteDomain(),
		RootObject:     website.DefaultRootObject,
		AliasZoneID:    website.CloudFrontHostedZoneID,
		CertificateARN: masked("certificate_arn", cfg.CertificateARN),
		HostedZoneID:   masked("hosted_zone_id", cfg.HostedZoneID),
		Log:            cfg.Log,
	}
}

func masked(key, value string) string {
	if value == "" {
		return ""
	}
	out, ok := sanitization.SanitizeFieldValue(key, value).(string)
	if !ok {
		return ""
	}
	return out
}
