// Package clcdkloggroup provides a reusable CloudWatch Log Group construct
// with environment-class retention, removal policy, and CloudFormation
// outputs.
//
// Durable environments (Test, Prod) keep logs for six months and retain the
// group when the stack is deleted; everything else keeps logs for one month
// and deletes the group with the stack. All log groups created with this
// construct export their names as stack outputs, enabling discovery via AWS
// CLI queries.
package clcdkloggroup

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// LogGroup provides access to a CloudWatch Log Group with environment-class
// configuration.
type LogGroup interface {
	// LogGroup returns the underlying CDK log group.
	LogGroup() awslogs.ILogGroup
}

// Props configures the LogGroup construct.
type Props struct {
	// Conf decides retention and removal policy via its environment class.
	// Required.
	Conf clcdkutil.Config
	// LogGroupName names the group explicitly. Leave nil to let
	// CloudFormation generate a name.
	LogGroupName *string
	// Purpose describes what this log group is for (e.g., "pipeline build logs").
	// Used in the CfnOutput description.
	// Required.
	Purpose *string
}

type logGroup struct {
	lg awslogs.ILogGroup
}

// New creates a LogGroup construct whose retention and removal policy follow
// the environment class of props.Conf.
//
// A CfnOutput is created with:
//   - Key: "{id}LogGroup" where id is derived from the construct path
//   - Value: The log group name (for CLI queries)
//   - Description: "CloudWatch Log Group for {Purpose}"
func New(scope constructs.Construct, id string, props Props) LogGroup {
	scope = constructs.NewConstruct(scope, jsii.String(id))
	con := &logGroup{}

	con.lg = awslogs.NewLogGroup(scope, jsii.String("LogGroup"), &awslogs.LogGroupProps{
		LogGroupName:  props.LogGroupName,
		Retention:     props.Conf.Environment.LogRetention(),
		RemovalPolicy: props.Conf.Environment.RemovalPolicy(),
	})

	awscdk.NewCfnOutput(scope, jsii.String("LogGroupOutput"), &awscdk.CfnOutputProps{
		Key:         jsii.String(id + "LogGroup"),
		Description: jsii.String("CloudWatch Log Group for " + *props.Purpose),
		Value:       con.lg.LogGroupName(),
	})

	return con
}

func (l *logGroup) LogGroup() awslogs.ILogGroup {
	return l.lg
}
