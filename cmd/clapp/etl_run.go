package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/cockroachdb/errors"

	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type EtlRunCmd struct {
	Environment string `arg:"" help:"Target environment (Dev, Test or Prod)."`
	SourceKey   string `arg:"" name:"source-key" help:"Object key in the collect bucket to process."`
}

// Run starts the collect-to-cleanse job for an object already sitting in the
// collect bucket, with the same arguments the intake trigger would build.
// Useful for reprocessing after a job fix without re-uploading the object.
func (c *EtlRunCmd) Run(cfg *projcfg.Config) error {
	ctx := context.Background()

	conf, err := targetConfig(c.Environment)
	if err != nil {
		return err
	}

	awsCfg, err := awsConfig(ctx, conf.Region, cfg.Cdk.Profile)
	if err != nil {
		return err
	}

	base := path.Base(c.SourceKey)
	base = strings.TrimSuffix(base, path.Ext(base))
	executionID := fmt.Sprintf("manual-%s", time.Now().UTC().Format("20060102T150405Z"))

	jobName := clcdkutil.PhysicalName(conf, "collect-to-cleanse")
	client := glue.NewFromConfig(awsCfg)

	started, err := client.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName: aws.String(jobName),
		Arguments: map[string]string{
			"--source_key":     c.SourceKey,
			"--execution_id":   executionID,
			"--base_file_name": base,
		},
	})
	if err != nil {
		return errors.Wrapf(err, "starting job %s for %s", jobName, c.SourceKey)
	}

	fmt.Fprintf(os.Stdout, "started %s run %s (execution id %s)\n",
		jobName, aws.ToString(started.JobRunId), executionID)
	return nil
}
