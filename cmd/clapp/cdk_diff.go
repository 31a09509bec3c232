package main

import (
	"context"

	"github.com/claimslakehq/clapp/cmd/internal/cmdexec"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type DiffCmd struct {
	Environment string `arg:"" help:"Target environment (Dev, Test or Prod)."`
}

func (c *DiffCmd) Run(cfg *projcfg.Config) error {
	conf, err := targetConfig(c.Environment)
	if err != nil {
		return err
	}

	args := []string{"diff"}
	if cfg.Cdk.Profile != "" {
		args = append(args, "--profile", cfg.Cdk.Profile)
	}
	args = append(args, pipelineStackName(conf))
	return cmdexec.Run(context.Background(), cfg.CdkDir(), "cdk", args...)
}
