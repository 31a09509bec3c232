package main

import (
	"context"

	"github.com/claimslakehq/clapp/cmd/internal/cmdexec"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type DeployCmd struct {
	Environment string `arg:"" help:"Target environment (Dev, Test or Prod)."`
}

// Run deploys the environment's pipeline stack directly. After that the
// pipeline keeps itself and the stage stacks up to date from the repository
// branch; this command is only needed for the first rollout and for changes
// the self-mutation step cannot apply.
func (c *DeployCmd) Run(cfg *projcfg.Config) error {
	conf, err := targetConfig(c.Environment)
	if err != nil {
		return err
	}

	args := []string{"deploy", "--require-approval", "never"}
	if cfg.Cdk.Profile != "" {
		args = append(args, "--profile", cfg.Cdk.Profile)
	}
	args = append(args, pipelineStackName(conf))
	return cmdexec.Run(context.Background(), cfg.CdkDir(), "cdk", args...)
}
