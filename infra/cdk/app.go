// Package cdk assembles the platform's CDK application: one delivery
// pipeline stack per target environment, each deploying the environment's
// data lake, reference tables, Glue jobs and intake trigger.
package cdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"

	"github.com/claimslakehq/clapp/clcdk/clcdkpipeline"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// SetupApp resolves every environment configuration and creates one delivery
// pipeline stack per target environment. It panics on configuration errors:
// synthesis must not proceed on a partially configured app.
func SetupApp(app awscdk.App) {
	configs, err := clcdkutil.ResolveAll(PlatformMappings)
	if err != nil {
		panic(err)
	}

	for _, env := range clcdkutil.TargetEnvironments() {
		clcdkpipeline.New(app, clcdkpipeline.Props{
			Deploy: configs[clcdkutil.Deploy],
			Target: configs[env],
			Stages: NewDeployment,
		})
	}
}
