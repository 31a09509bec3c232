// Package clcdkpipeline provides the self-mutating delivery pipeline stack:
// one CodePipeline per target environment, sourcing from the configured
// repository connection, synthesizing the CDK app and deploying the target
// environment's stage.
//
// The pipeline stack lives in the Deploy account while its deploy stage runs
// in the target environment's own account and region; the pipelines library
// emits the cross-region support stacks when the regions differ. Durability
// follows the target environment class: Test and Prod pipelines retain their
// artifact bucket and keep build logs for six months.
package clcdkpipeline

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipeline"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/pipelines"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cdklabs/cdk-nag-go/cdknag/v2"

	"github.com/claimslakehq/clapp/clcdk/clcdkloggroup"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// StageConstructor populates the deploy stage with the target environment's
// stacks. It receives the stage as scope and the resolved configuration of
// the target environment.
type StageConstructor func(scope constructs.Construct, conf clcdkutil.Config)

// Stack provides access to the pipeline and its underlying resources.
type Stack interface {
	// Stack returns the underlying CDK stack.
	Stack() awscdk.Stack
	// Pipeline returns the CDK pipelines construct.
	Pipeline() pipelines.CodePipeline
	// InnerPipeline returns the CodePipeline resource the construct builds on.
	InnerPipeline() awscodepipeline.Pipeline
}

// Props configures the pipeline stack.
type Props struct {
	// Deploy is the resolved configuration of the Deploy environment hosting
	// the pipeline. Required.
	Deploy clcdkutil.Config
	// Target is the resolved configuration of the environment this pipeline
	// deploys to. Required.
	Target clcdkutil.Config
	// Stages populates the deploy stage. Required.
	Stages StageConstructor
}

type stack struct {
	stack    awscdk.Stack
	pipeline pipelines.CodePipeline
	inner    awscodepipeline.Pipeline
}

// New creates the delivery pipeline stack for one target environment.
//
// The pipeline self-mutates: its update step redeploys this very stack, so
// pipeline changes ride the same commit as the stacks they deploy. Every
// generated CodeBuild project writes into a single explicitly named log
// group, giving build logs the retention of the target environment class
// instead of the CodeBuild default of never expiring.
func New(scope constructs.Construct, props Props) Stack {
	deploy, target := props.Deploy, props.Target
	if !target.HasRepository() {
		panic("clcdkpipeline: no repository configured for " + string(target.Environment) +
			", set RepositoryOwner, Repository and ConnectionARN in the mappings")
	}

	parent := clcdkutil.NewStack(scope, clcdkutil.LogicalID(target, "EtlPipelineStack"), deploy,
		fmt.Sprintf("%s ETL delivery pipeline (%s)", target.LogicalPrefix, target.Environment))
	con := &stack{stack: parent}
	policy := target.Environment.RemovalPolicy()

	artifacts := awss3.NewBucket(parent, jsii.String(clcdkutil.LogicalID(target, "etl-pipeline-artifact")), &awss3.BucketProps{
		BucketName:        jsii.String(clcdkutil.PhysicalName(target, "etl-pipeline-artifact")),
		AccessControl:     awss3.BucketAccessControl_PRIVATE,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
		Encryption:        awss3.BucketEncryption_KMS,
		BucketKeyEnabled:  jsii.Bool(true),
		PublicReadAccess:  jsii.Bool(false),
		Versioned:         jsii.Bool(true),
		ObjectOwnership:   awss3.ObjectOwnership_OBJECT_WRITER,
		RemovalPolicy:     policy,
	})

	con.inner = awscodepipeline.NewPipeline(parent, jsii.String(clcdkutil.LogicalID(target, "EtlPipeline")), &awscodepipeline.PipelineProps{
		PipelineName:     jsii.String(clcdkutil.PhysicalName(target, "etl-pipeline")),
		CrossAccountKeys: jsii.Bool(true),
		PipelineType:     awscodepipeline.PipelineType_V2,
		ExecutionMode:    awscodepipeline.ExecutionMode_QUEUED,
		ArtifactBucket:   artifacts,
	})

	source := pipelines.CodePipelineSource_Connection(
		jsii.String(target.RepositoryFullName()),
		jsii.String(target.Branch),
		&pipelines.ConnectionSourceOptions{
			ConnectionArn: jsii.String(target.ConnectionARN),
			ActionName:    jsii.String("Source"),
		})

	synth := pipelines.NewShellStep(jsii.String("Synth"), &pipelines.ShellStepProps{
		Input: source,
		Commands: jsii.Strings(
			"npm install -g aws-cdk",
			"go mod download",
			"cdk synth",
		),
	})

	logGroup := clcdkloggroup.New(parent, "Build", clcdkloggroup.Props{
		Conf:         target,
		LogGroupName: jsii.String("/aws/codebuild/" + clcdkutil.PhysicalName(target, "etl-pipeline")),
		Purpose:      jsii.String("the pipeline CodeBuild projects"),
	})

	defaults := &pipelines.CodeBuildOptions{
		BuildEnvironment: &awscodebuild.BuildEnvironment{
			BuildImage: awscodebuild.LinuxBuildImage_STANDARD_7_0(),
			Privileged: jsii.Bool(false),
		},
		RolePolicy: &[]awsiam.PolicyStatement{
			awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Sid:       jsii.String("EtlPipelineSecretsManagerPolicy"),
				Effect:    awsiam.Effect_ALLOW,
				Actions:   jsii.Strings("secretsmanager:GetSecretValue"),
				Resources: jsii.Strings(clcdkutil.SecretsPrefixARN(target, *parent.Region(), *parent.Account())),
			}),
			// The synth step resolves context lookups with the bootstrap
			// lookup roles of the target accounts.
			awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Actions:   jsii.Strings("sts:AssumeRole"),
				Resources: jsii.Strings("*"),
				Conditions: &map[string]interface{}{
					"StringEquals": map[string]interface{}{
						"iam:ResourceTag/aws-cdk:bootstrap-role": "lookup",
					},
				},
			}),
		},
		Logging: &awscodebuild.LoggingOptions{
			CloudWatch: &awscodebuild.CloudWatchLoggingOptions{
				LogGroup: logGroup.LogGroup(),
			},
		},
	}

	con.pipeline = pipelines.NewCodePipeline(parent, jsii.String(clcdkutil.LogicalID(target, "EtlCodePipeline")), &pipelines.CodePipelineProps{
		CodePipeline:      con.inner,
		Synth:             synth,
		SelfMutation:      jsii.Bool(true),
		CodeBuildDefaults: defaults,
	})

	stage := awscdk.NewStage(parent, jsii.String(string(target.Environment)), &awscdk.StageProps{
		Env: clcdkutil.AwsEnv(target),
	})
	awscdk.Aspects_Of(stage).Add(cdknag.NewAwsSolutionsChecks(nil), nil)
	props.Stages(stage, target)
	con.pipeline.AddStage(stage, nil)

	// Force pipeline construction during synth so the bucket overrides and
	// the suppressions below see the generated resources.
	con.pipeline.BuildPipeline()

	// Server access logs land in the artifact bucket itself under a
	// dedicated prefix.
	cfnArtifacts := artifacts.Node().DefaultChild().(awss3.CfnBucket)
	cfnArtifacts.SetLoggingConfiguration(&awss3.CfnBucket_LoggingConfigurationProperty{
		LogFilePrefix: jsii.String("access-logs"),
	})
	cfnArtifacts.AddPropertyOverride(jsii.String("VersioningConfiguration.Status"), jsii.String("Enabled"))
	cfnKey := artifacts.EncryptionKey().Node().DefaultChild().(awskms.CfnKey)
	cfnKey.SetEnableKeyRotation(jsii.Bool(true))

	suppressions := &[]*cdknag.NagPackSuppression{{
		Id:     jsii.String("AwsSolutions-IAM5"),
		Reason: jsii.String("Wildcard permissions are used by the generated pipeline and asset roles to deploy arbitrary stacks"),
	}}
	cdknag.NagSuppressions_AddResourceSuppressions(con.pipeline, suppressions, jsii.Bool(true))
	cdknag.NagSuppressions_AddResourceSuppressions(con.inner, suppressions, jsii.Bool(true))

	return con
}

func (s *stack) Stack() awscdk.Stack {
	return s.stack
}

func (s *stack) Pipeline() pipelines.CodePipeline {
	return s.pipeline
}

func (s *stack) InnerPipeline() awscodepipeline.Pipeline {
	return s.inner
}
