package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/claimslakehq/clapp/cmd/internal/cfnread"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type OutputsCmd struct {
	Environment string `arg:"" help:"Target environment (Dev, Test or Prod)."`
}

// Run prints the CloudFormation outputs of the environment's stacks: the
// pipeline stack in the deploy account, then the stage stacks in the target
// account. Stacks the current credentials cannot see show as not deployed.
func (c *OutputsCmd) Run(cfg *projcfg.Config) error {
	ctx := context.Background()

	conf, err := targetConfig(c.Environment)
	if err != nil {
		return err
	}
	deploy, err := deployConfig()
	if err != nil {
		return err
	}

	printStackOutputs(ctx, cfg.Cdk.Profile, deploy.Region, pipelineStackName(conf))
	for _, stack := range stageStackNames(conf) {
		printStackOutputs(ctx, cfg.Cdk.Profile, conf.Region, stack)
	}
	return nil
}

func printStackOutputs(ctx context.Context, profile, region, stackName string) {
	fmt.Fprintf(os.Stdout, "=== %s (%s) ===\n", stackName, region)

	outputs, err := cfnread.StackOutputs(ctx, region, profile, stackName)
	switch {
	case err != nil:
		fmt.Fprintln(os.Stdout, "(not deployed)")
	case len(outputs) == 0:
		fmt.Fprintln(os.Stdout, "(no outputs)")
	default:
		width := 0
		for key := range outputs {
			width = max(width, len(key))
		}
		for _, key := range slices.Sorted(maps.Keys(outputs)) {
			fmt.Fprintf(os.Stdout, "  %-*s  %s\n", width, key, outputs[key])
		}
	}
	fmt.Fprintln(os.Stdout)
}
