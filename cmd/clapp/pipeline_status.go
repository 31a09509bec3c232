package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	"github.com/cockroachdb/errors"

	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type PipelineStatusCmd struct {
	Environment string `arg:"" help:"Target environment (Dev, Test or Prod)."`
}

// Run prints the stage and action states of the environment's delivery
// pipeline. The pipeline itself always runs in the deploy account.
func (c *PipelineStatusCmd) Run(cfg *projcfg.Config) error {
	ctx := context.Background()

	conf, err := targetConfig(c.Environment)
	if err != nil {
		return err
	}
	deploy, err := deployConfig()
	if err != nil {
		return err
	}

	awsCfg, err := awsConfig(ctx, deploy.Region, cfg.Cdk.Profile)
	if err != nil {
		return err
	}

	name := clcdkutil.PhysicalName(conf, "etl-pipeline")
	client := codepipeline.NewFromConfig(awsCfg)

	state, err := client.GetPipelineState(ctx, &codepipeline.GetPipelineStateInput{
		Name: aws.String(name),
	})
	if err != nil {
		return errors.Wrapf(err, "reading state of pipeline %s", name)
	}

	for _, stage := range state.StageStates {
		status := "(not executed)"
		if stage.LatestExecution != nil {
			status = string(stage.LatestExecution.Status)
		}
		fmt.Fprintf(os.Stdout, "=== %s: %s ===\n", aws.ToString(stage.StageName), status)

		for _, action := range stage.ActionStates {
			actionStatus := "(not executed)"
			changed := ""
			if action.LatestExecution != nil {
				actionStatus = string(action.LatestExecution.Status)
				if action.LatestExecution.LastStatusChange != nil {
					changed = action.LatestExecution.LastStatusChange.UTC().Format(time.RFC3339)
				}
			}
			fmt.Fprintf(os.Stdout, "  %-40s %-12s %s\n",
				aws.ToString(action.ActionName), actionStatus, changed)

			if exec := action.LatestExecution; exec != nil && exec.ErrorDetails != nil {
				fmt.Fprintf(os.Stdout, "    %s\n", aws.ToString(exec.ErrorDetails.Message))
			}
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}
