package clcdkutil

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/cockroachdb/errors"
)

// Environment names one deployment environment of the platform.
type Environment string

const (
	// Deploy is the environment hosting the CDK pipelines themselves. Its
	// mapping also carries the defaults shared by every target environment.
	Deploy Environment = "Deploy"
	// Dev is the development target environment.
	Dev Environment = "Dev"
	// Test is the user acceptance target environment.
	Test Environment = "Test"
	// Prod is the production target environment.
	Prod Environment = "Prod"
)

// TargetEnvironments returns the environments the pipelines deploy to, in
// promotion order.
func TargetEnvironments() []Environment {
	return []Environment{Dev, Test, Prod}
}

// ParseEnvironment converts a case-insensitive environment name into an
// Environment. It accepts Deploy and every target environment.
func ParseEnvironment(name string) (Environment, error) {
	for _, env := range []Environment{Deploy, Dev, Test, Prod} {
		if strings.EqualFold(name, string(env)) {
			return env, nil
		}
	}
	return "", errors.Mark(
		errors.Newf("unknown environment %q, expected one of: Deploy, Dev, Test, Prod", name),
		ErrUnknownEnvironment)
}

// Durable reports whether the environment holds data that must survive stack
// deletion. Test and Prod are durable, everything else is ephemeral.
func (e Environment) Durable() bool {
	return e == Test || e == Prod
}

// RemovalPolicy returns the removal policy applied to stateful resources in
// this environment.
func (e Environment) RemovalPolicy() awscdk.RemovalPolicy {
	if e.Durable() {
		return awscdk.RemovalPolicy_RETAIN
	}
	return awscdk.RemovalPolicy_DESTROY
}

// LogRetention returns the retention period applied to log groups in this
// environment.
func (e Environment) LogRetention() awslogs.RetentionDays {
	if e.Durable() {
		return awslogs.RetentionDays_SIX_MONTHS
	}
	return awslogs.RetentionDays_ONE_MONTH
}

// DefaultBranch returns the repository branch an environment deploys from
// when its mapping does not name one. Deploy has no branch of its own.
func (e Environment) DefaultBranch() string {
	switch e {
	case Dev:
		return "develop"
	case Test:
		return "test"
	case Prod:
		return "main"
	default:
		return ""
	}
}
