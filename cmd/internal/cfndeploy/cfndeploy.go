package cfndeploy

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/claimslakehq/clapp/cmd/internal/cmdexec"
)

// Deploy creates or updates a plain CloudFormation stack through the AWS
// CLI. Parameters are passed in stable order so repeated runs produce the
// same change set input.
func Deploy(ctx context.Context, dir, profile, stackName, templatePath string, params map[string]string) error {
	args := []string{
		"cloudformation", "deploy",
		"--stack-name", stackName,
		"--template-file", templatePath,
		"--capabilities", "CAPABILITY_NAMED_IAM",
		"--no-fail-on-empty-changeset",
	}
	if profile != "" {
		args = append(args, "--profile", profile)
	}
	if len(params) > 0 {
		args = append(args, "--parameter-overrides")
		for _, k := range slices.Sorted(maps.Keys(params)) {
			args = append(args, fmt.Sprintf("%s=%s", k, params[k]))
		}
	}
	return cmdexec.Run(ctx, dir, "aws", args...)
}
