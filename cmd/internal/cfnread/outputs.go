package cfnread

import (
	"context"
	"encoding/json"

	"github.com/claimslakehq/clapp/cmd/internal/cmdexec"
	"github.com/cockroachdb/errors"
)

type describeStacksResponse struct {
	Stacks []struct {
		Outputs []struct {
			OutputKey   string `json:"OutputKey"`
			OutputValue string `json:"OutputValue"`
		} `json:"Outputs"`
	} `json:"Stacks"`
}

// StackOutputs returns the CloudFormation outputs of a deployed stack as a
// key/value map. An empty region or profile falls back to the AWS CLI's
// defaults.
func StackOutputs(ctx context.Context, region, profile, stackName string) (map[string]string, error) {
	args := []string{
		"cloudformation", "describe-stacks",
		"--no-cli-pager",
		"--stack-name", stackName,
		"--output", "json",
	}
	if region != "" {
		args = append(args, "--region", region)
	}
	if profile != "" {
		args = append(args, "--profile", profile)
	}

	out, err := cmdexec.Output(ctx, "/", "aws", args...)
	if err != nil {
		return nil, errors.Wrapf(err, "describing stack %s", stackName)
	}

	var resp describeStacksResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return nil, errors.Wrapf(err, "parsing outputs of stack %s", stackName)
	}

	if len(resp.Stacks) == 0 {
		return nil, errors.Newf("stack %s not found", stackName)
	}

	outputs := make(map[string]string, len(resp.Stacks[0].Outputs))
	for _, o := range resp.Stacks[0].Outputs {
		outputs[o.OutputKey] = o.OutputValue
	}
	return outputs, nil
}
