// Command cdk is the CDK application entry point. The cdk CLI runs it via
// cdk.json at the repository root.
package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/infra/cdk"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	cdk.SetupApp(app)
	app.Synth(nil)
}
