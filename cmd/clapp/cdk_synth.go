package main

import (
	"context"

	"github.com/claimslakehq/clapp/cmd/internal/cmdexec"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type SynthCmd struct{}

func (c *SynthCmd) Run(cfg *projcfg.Config) error {
	return cmdexec.Run(context.Background(), cfg.CdkDir(), "cdk", "synth")
}
