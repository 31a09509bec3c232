package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/cockroachdb/errors"

	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
	"github.com/claimslakehq/clapp/infra/cdk"
)

// targetConfig resolves an environment named on the command line against the
// platform mappings.
func targetConfig(name string) (clcdkutil.Config, error) {
	env, err := clcdkutil.ParseEnvironment(name)
	if err != nil {
		return clcdkutil.Config{}, err
	}
	if env == clcdkutil.Deploy {
		return clcdkutil.Config{}, errors.New("Deploy hosts the pipelines; pick one of Dev, Test or Prod")
	}
	return clcdkutil.Resolve(cdk.PlatformMappings, env)
}

func deployConfig() (clcdkutil.Config, error) {
	return clcdkutil.Resolve(cdk.PlatformMappings, clcdkutil.Deploy)
}

// pipelineStackName is the CloudFormation name of the environment's delivery
// pipeline stack in the deploy account.
func pipelineStackName(conf clcdkutil.Config) string {
	return clcdkutil.LogicalID(conf, "EtlPipelineStack")
}

// stageStackNames lists the CloudFormation stacks the pipeline deploys into
// the target environment, in deployment order. The stage prefixes its
// children with the environment name.
func stageStackNames(conf clcdkutil.Config) []string {
	labels := []string{"S3BucketZones", "DynamoDb", "Glue", "EtlTrigger"}
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, string(conf.Environment)+"-"+clcdkutil.LogicalID(conf, label))
	}
	return names
}

// awsConfig loads SDK configuration pinned to a region, honoring the
// configured profile.
func awsConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "loading AWS configuration")
	}
	return cfg, nil
}
