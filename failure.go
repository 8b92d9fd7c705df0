package cloudfrontwebsite

import (
	"errors"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/site"
)

// FailureFrom describes err as the failure of command for the operator
// notification. Stack is left empty when cfg never loaded; Resource is set
// when a declaration step failed.
func FailureFrom(command string, cfg Config, err error) observability.Failure {
	f := observability.Failure{
		Command: command,
		Code:    ErrorCode(err),
		Stack:   cfg.StackName(),
	}
	if err != nil {
		f.Message = err.Error()
	}
	if f.Code == "" {
		f.Code = "internal"
	}

	var declErr *site.DeclareError
	if errors.As(err, &declErr) {
		f.Resource = declErr.Resource
		f.Fields = map[string]any{"kind": string(declErr.Kind)}
	}
	if f.Stack != "" {
		if f.Fields == nil {
			f.Fields = map[string]any{}
		}
		f.Fields["domain_name"] = cfg.SiteDomain()
	}
	return f
}
