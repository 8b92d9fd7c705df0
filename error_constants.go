package cloudfrontwebsite

const (
	ErrorCodeMissingEnv    = "config.missing_env"
	ErrorCodeInvalidConfig = "config.invalid"
	ErrorCodeAssetMissing  = "asset.missing"
	ErrorCodeStackInvalid  = "stack.invalid"
)

const (
	errorMessageMissingEnv   = "required environment variables are not set"
	errorMessageConfigFile   = "config file could not be loaded"
	errorMessageAssetMissing = "site asset directory is not usable"
	errorMessageStack        = "website stack could not be declared"
)
