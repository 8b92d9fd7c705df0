package cloudfrontwebsite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/naming"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/site"
)

// Fixed topology values. Changing any of them is a code change.
const (
	SubdomainLabel    = "site"
	BaseDomain        = "lazinessdevs.com"
	DefaultRootObject = site.DefaultRootObject

	// CloudFrontHostedZoneID re-exports the alias-target zone constant.
	CloudFrontHostedZoneID = site.CloudFrontHostedZoneID
)

// Environment variables read at construction time.
const (
	EnvCertificateARN = "CERTIFICATE_ARN"
	EnvHostedZoneID   = "HOSTED_ZONE_ID"
	EnvConfigPath     = "WEBSITE_CONFIG"
	EnvDefaultAccount = "CDK_DEFAULT_ACCOUNT"
	EnvDefaultRegion  = "CDK_DEFAULT_REGION"
)

const (
	defaultAppName  = "cloudfront-website"
	defaultAssetDir = "website"
)

// CloudFormation accepts at most 128 characters, starting with a letter.
var stackNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,127}$`)

// Config is everything needed to declare the website stack.
//
// CertificateARN and HostedZoneID only ever come from the environment.
type Config struct {
	AppName  string                     `yaml:"app"`
	Stage    string                     `yaml:"stage"`
	Account  string                     `yaml:"account"`
	Region   string                     `yaml:"region"`
	AssetDir string                     `yaml:"asset_dir"`
	Log      observability.LoggerConfig `yaml:"log"`

	CertificateARN string `yaml:"-"`
	HostedZoneID   string `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		AppName:  defaultAppName,
		AssetDir: defaultAssetDir,
	}
}

// ConfigFromEnv loads the optional file named by WEBSITE_CONFIG and the
// process environment, then validates the result.
func ConfigFromEnv() (Config, error) {
	return LoadConfig(os.Getenv(EnvConfigPath), os.Getenv)
}

// LoadConfig layers defaults, the YAML file at path (if any) and getenv,
// then validates. A relative asset_dir in the file is resolved against the
// file's directory.
func LoadConfig(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		if err := readConfigFile(path, &cfg); err != nil {
			return Config{}, &AppError{Code: ErrorCodeInvalidConfig, Message: errorMessageConfigFile, Err: err}
		}
		if cfg.AssetDir != "" && !filepath.IsAbs(cfg.AssetDir) {
			cfg.AssetDir = filepath.Join(filepath.Dir(path), cfg.AssetDir)
		}
	}

	cfg.CertificateARN = strings.TrimSpace(getenv(EnvCertificateARN))
	cfg.HostedZoneID = strings.TrimSpace(getenv(EnvHostedZoneID))
	if cfg.Account == "" {
		cfg.Account = strings.TrimSpace(getenv(EnvDefaultAccount))
	}
	if cfg.Region == "" {
		cfg.Region = strings.TrimSpace(getenv(EnvDefaultRegion))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	//nolint:gosec // Path is operator-supplied configuration.
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks required environment values and the asset directory.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.CertificateARN) == "" {
		missing = append(missing, EnvCertificateARN)
	}
	if strings.TrimSpace(c.HostedZoneID) == "" {
		missing = append(missing, EnvHostedZoneID)
	}
	if len(missing) > 0 {
		return &AppError{
			Code:    ErrorCodeMissingEnv,
			Message: errorMessageMissingEnv + ": " + strings.Join(missing, ", "),
		}
	}

	if strings.TrimSpace(c.AppName) == "" {
		return &AppError{Code: ErrorCodeInvalidConfig, Message: "app name is empty"}
	}
	if name := c.StackName(); !stackNamePattern.MatchString(name) {
		return &AppError{
			Code:    ErrorCodeInvalidConfig,
			Message: fmt.Sprintf("app %q and stage %q give stack name %q, which CloudFormation rejects", c.AppName, c.Stage, name),
		}
	}

	if err := site.CheckAssetDir(c.AssetDir); err != nil {
		return &AppError{Code: ErrorCodeAssetMissing, Message: errorMessageAssetMissing, Err: err}
	}
	return nil
}

// SiteDomain is the hostname served by the distribution.
func (c Config) SiteDomain() string {
	return naming.FQDN(SubdomainLabel, BaseDomain)
}

// StackName is the CloudFormation stack name.
func (c Config) StackName() string {
	return naming.StackName(c.AppName, c.Stage)
}

// StackID is the construct id of the website stack inside the app, and the
// name of its template file in the cloud assembly.
func (c Config) StackID() string {
	return naming.ConstructID(c.StackName()) + "Stack"
}
