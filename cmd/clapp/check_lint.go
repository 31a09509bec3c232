package main

import (
	"context"

	"github.com/claimslakehq/clapp/cmd/internal/cmdexec"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
	"github.com/claimslakehq/clapp/cmd/internal/shellfiles"
)

type LintCmd struct{}

func (c *LintCmd) Run(cfg *projcfg.Config) error {
	ctx := context.Background()
	if err := cmdexec.Run(ctx, cfg.Root, "golangci-lint", "run", "./..."); err != nil {
		return err
	}

	scripts, err := shellfiles.FindShellScripts(cfg.Root)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return nil
	}

	args := append([]string{}, scripts...)
	return cmdexec.Run(ctx, cfg.Root, "shellcheck", args...)
}
