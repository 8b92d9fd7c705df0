package cloudfrontwebsite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func siteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>ok</p>"), 0o600))
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "website.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingEnvironmentFailsConstruction(t *testing.T) {
	dir := siteDir(t)
	path := writeConfig(t, filepath.Dir(dir), "asset_dir: "+dir+"\n")

	tests := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{"both missing", map[string]string{}, []string{EnvCertificateARN, EnvHostedZoneID}},
		{"certificate missing", map[string]string{EnvHostedZoneID: "ZABCDEF"}, []string{EnvCertificateARN}},
		{"zone missing", map[string]string{EnvCertificateARN: "arn:aws:acm:us-east-1:1:certificate/x"}, []string{EnvHostedZoneID}},
		{"blank values", map[string]string{EnvCertificateARN: "  ", EnvHostedZoneID: "\t"}, []string{EnvCertificateARN, EnvHostedZoneID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(path, envFrom(tt.env))
			require.Error(t, err)
			require.Equal(t, ErrorCodeMissingEnv, ErrorCode(err))
			for _, name := range tt.missing {
				require.ErrorContains(t, err, name)
			}
		})
	}
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public"), 0o750))
	path := writeConfig(t, root, `
app: my-site
stage: prod
region: us-east-1
asset_dir: public
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path, envFrom(map[string]string{
		EnvCertificateARN: " arn:aws:acm:us-east-1:123456789012:certificate/abc ",
		EnvHostedZoneID:   "ZABCDEF",
		EnvDefaultAccount: "123456789012",
		EnvDefaultRegion:  "eu-west-1",
	}))
	require.NoError(t, err)

	require.Equal(t, "my-site", cfg.AppName)
	require.Equal(t, "prod", cfg.Stage)
	require.Equal(t, "123456789012", cfg.Account)
	require.Equal(t, "us-east-1", cfg.Region, "file wins over CDK_DEFAULT_REGION")
	require.Equal(t, filepath.Join(root, "public"), cfg.AssetDir)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "arn:aws:acm:us-east-1:123456789012:certificate/abc", cfg.CertificateARN)
	require.Equal(t, "ZABCDEF", cfg.HostedZoneID)
	require.Equal(t, "my-site-live", cfg.StackName())
	require.Equal(t, "site.lazinessdevs.com", cfg.SiteDomain())
}

func TestLoadConfig_EnvOnlyFieldsCannotComeFromFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "website"), 0o750))
	path := writeConfig(t, root, "certificate_arn: arn:aws:acm:us-east-1:1:certificate/x\n")

	_, err := LoadConfig(path, envFrom(map[string]string{EnvHostedZoneID: "Z1"}))
	require.Error(t, err)
	require.Equal(t, ErrorCodeInvalidConfig, ErrorCode(err))
}

func TestLoadConfig_BadFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), envFrom(nil))
	require.Equal(t, ErrorCodeInvalidConfig, ErrorCode(err))

	path := writeConfig(t, t.TempDir(), "app: [unterminated\n")
	_, err = LoadConfig(path, envFrom(nil))
	require.Equal(t, ErrorCodeInvalidConfig, ErrorCode(err))
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "website"), 0o750))
	path := writeConfig(t, root, "")

	cfg, err := LoadConfig(path, envFrom(map[string]string{
		EnvCertificateARN: "arn:aws:acm:us-east-1:123456789012:certificate/abc",
		EnvHostedZoneID:   "ZABCDEF",
	}))
	require.NoError(t, err)
	require.Equal(t, "cloudfront-website", cfg.AppName)
	require.Equal(t, filepath.Join(root, "website"), cfg.AssetDir)
	require.Equal(t, "cloudfront-website", cfg.StackName())
}

func TestValidate_AssetDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CertificateARN = "arn:aws:acm:us-east-1:123456789012:certificate/abc"
	cfg.HostedZoneID = "ZABCDEF"
	cfg.AssetDir = filepath.Join(t.TempDir(), "nope")

	err := cfg.Validate()
	require.Equal(t, ErrorCodeAssetMissing, ErrorCode(err))

	cfg.AssetDir = siteDir(t)
	require.NoError(t, cfg.Validate())

	cfg.AppName = " "
	require.Equal(t, ErrorCodeInvalidConfig, ErrorCode(cfg.Validate()))
}

func TestAppError(t *testing.T) {
	inner := os.ErrNotExist
	err := &AppError{Code: ErrorCodeAssetMissing, Message: "m", Err: inner}
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Equal(t, "asset.missing: m: "+inner.Error(), err.Error())
	require.Equal(t, "config.invalid: x", (&AppError{Code: ErrorCodeInvalidConfig, Message: "x"}).Error())
	require.Equal(t, "", ErrorCode(os.ErrClosed))
}

func TestValidate_StackNameMustBeAcceptedByCloudFormation(t *testing.T) {
	tests := []struct {
		name  string
		app   string
		stage string
		ok    bool
	}{
		{"default", "cloudfront-website", "", true},
		{"stage suffix", "My Site", "production", true},
		{"leading digit", "123", "", false},
		{"digit after cleanup", "_9site", "", false},
		{"nothing left", "___", "", false},
		{"too long", strings.Repeat("a", 129), "", false},
		{"max length", strings.Repeat("a", 128), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.CertificateARN = "arn:aws:acm:us-east-1:123456789012:certificate/abc"
			cfg.HostedZoneID = "ZABCDEF"
			cfg.AssetDir = siteDir(t)
			cfg.AppName = tt.app
			cfg.Stage = tt.stage

			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Equal(t, ErrorCodeInvalidConfig, ErrorCode(err))
			require.ErrorContains(t, err, "stack name")
		})
	}
}

func TestConfig_StackID(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "CloudfrontWebsiteStack", cfg.StackID())

	cfg.Stage = "prod"
	require.Equal(t, "CloudfrontWebsiteLiveStack", cfg.StackID())
}
