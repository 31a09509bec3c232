// Package clcdkparams stores and retrieves deployed resource names through
// AWS Systems Manager Parameter Store.
//
// The stage stacks publish bucket and table names under a hierarchical path
// so the operator CLI, the Glue jobs and sibling repositories can discover
// them without parsing CloudFormation outputs.
package clcdkparams

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// ParameterName generates a hierarchical SSM parameter path.
// Returns a path like /{environment}/{resourceprefix}/{namespace}/{name}.
func ParameterName(conf clcdkutil.Config, namespace string, name string) *string {
	return jsii.Sprintf("/%s/%s/%s/%s",
		strings.ToLower(string(conf.Environment)), conf.ResourcePrefix, namespace, name)
}

// Store creates and stores a parameter in AWS SSM Parameter Store.
func Store(scope constructs.Construct, id string, conf clcdkutil.Config, namespace string, name string, value *string) {
	awsssm.NewStringParameter(scope, jsii.String(id),
		&awsssm.StringParameterProps{
			ParameterName: ParameterName(conf, namespace, name),
			StringValue:   value,
		})
}

// LookupLocal retrieves a parameter from SSM Parameter Store within the same
// region and account. Use this for cross-stack references that must not
// become CloudFormation exports.
func LookupLocal(scope constructs.Construct, conf clcdkutil.Config, namespace string, name string) *string {
	return awsssm.StringParameter_ValueForStringParameter(scope,
		ParameterName(conf, namespace, name), nil)
}
