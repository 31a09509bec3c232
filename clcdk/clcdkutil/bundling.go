package clcdkutil

import (
	"github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
	"github.com/aws/jsii-runtime-go"
)

// ReproducibleGoBundling returns bundling options that make a Go Lambda
// binary a pure function of its source. CDK hashes the bundled asset to
// decide whether a function changed, so a byte-identical rebuild means the
// trigger is not redeployed when only unrelated files change.
func ReproducibleGoBundling() *awscdklambdagoalpha.BundlingOptions {
	return &awscdklambdagoalpha.BundlingOptions{
		GoBuildFlags: jsii.Strings(
			"-trimpath",          // no absolute build paths in the binary
			"-ldflags=-buildid=", // no per-build id
			"-buildvcs=false",    // no commit stamp, identical across commits
		),
		Environment: &map[string]*string{
			"CGO_ENABLED": jsii.String("0"), // no host C toolchain variance
		},
	}
}
