package clcdkutil

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// AwsEnv returns the CDK environment for the resolved configuration. When the
// mapping leaves the account or region empty the CDK default environment
// applies, so synthesis works both inside the pipeline build and on developer
// machines.
func AwsEnv(conf Config) *awscdk.Environment {
	account := conf.Account
	if account == "" {
		account = os.Getenv("CDK_DEFAULT_ACCOUNT")
	}
	region := conf.Region
	if region == "" {
		region = os.Getenv("CDK_DEFAULT_REGION")
	}
	return &awscdk.Environment{
		Account: jsii.String(account),
		Region:  jsii.String(region),
	}
}

// NewStack creates a stack bound to the environment's resolved account and
// region, falling back to the CDK default environment per AwsEnv.
func NewStack(scope constructs.Construct, id string, conf Config, description string) awscdk.Stack {
	stack := awscdk.NewStack(scope, jsii.String(id), &awscdk.StackProps{
		Env:         AwsEnv(conf),
		Description: jsii.String(description),
	})

	awscdk.Annotations_Of(stack).AcknowledgeWarning(
		jsii.String("@aws-cdk/aws-lambda-go-alpha:goBuildFlagsSecurityWarning"),
		jsii.String("Build flags are controlled by clcdkutil.ReproducibleGoBundling and are safe"),
	)

	return stack
}
