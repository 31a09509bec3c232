package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cockroachdb/errors"

	"github.com/claimslakehq/clapp/cmd/internal/bincheck"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type DoctorCmd struct{}

// requiredBinaries lists the tools the CLI and the pipeline's synth step
// shell out to, with the reason each is needed.
var requiredBinaries = []struct{ Name, Reason string }{
	{"cdk", "synthesizes and deploys the pipeline stacks"},
	{"aws", "deploys the pre-bootstrap template and reads stack outputs"},
	{"node", "runs the CDK toolkit"},
	{"npm", "installs the CDK toolkit in the synth step"},
	{"go", "builds the CDK app and the trigger Lambda"},
}

// Run checks that the required binaries are installed, that the cdk version
// meets the configured minimum and that the AWS credentials point at the
// deployment account.
func (c *DoctorCmd) Run(cfg *projcfg.Config) error {
	ctx := context.Background()
	checker := bincheck.NewChecker()
	var failed bool

	fmt.Fprintln(os.Stdout, "=== binaries ===")
	for _, bin := range requiredBinaries {
		if res := checker.Check(bin.Name); res.InPath {
			fmt.Fprintf(os.Stdout, "  ✓ %s (%s)\n", bin.Name, res.Path)
		} else {
			fmt.Fprintf(os.Stdout, "  ✗ %s not found (%s)\n", bin.Name, bin.Reason)
			failed = true
		}
	}

	fmt.Fprintln(os.Stdout, "=== cdk version ===")
	failed = c.checkCdkVersion(ctx, cfg, checker) || failed

	fmt.Fprintln(os.Stdout, "=== AWS credentials ===")
	failed = c.checkCallerAccount(ctx, cfg) || failed

	if failed {
		return errors.New("doctor found problems; see above")
	}

	fmt.Fprintln(os.Stdout, "All checks passed.")
	return nil
}

func (c *DoctorCmd) checkCdkVersion(ctx context.Context, cfg *projcfg.Config, checker *bincheck.Checker) bool {
	if !checker.Check("cdk").InPath {
		fmt.Fprintln(os.Stdout, "  - skipped, cdk not installed")
		return false
	}

	line, err := bincheck.Version(ctx, "cdk", "--version")
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ could not read cdk version: %v\n", err)
		return true
	}

	// "2.236.0 (build 6f5ea27)" -> "2.236.0"
	raw, _, _ := strings.Cut(line, " ")
	version, err := semver.NewVersion(raw)
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ could not parse cdk version %q: %v\n", line, err)
		return true
	}

	if cfg.Cdk.MinimumVersion == "" {
		fmt.Fprintf(os.Stdout, "  ✓ cdk %s (no minimum configured)\n", version)
		return false
	}

	minimum, err := semver.NewVersion(cfg.Cdk.MinimumVersion)
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ invalid cdk.minimum_version %q: %v\n", cfg.Cdk.MinimumVersion, err)
		return true
	}

	if version.LessThan(minimum) {
		fmt.Fprintf(os.Stdout, "  ✗ cdk %s is older than the required %s\n", version, minimum)
		return true
	}

	fmt.Fprintf(os.Stdout, "  ✓ cdk %s (>= %s)\n", version, minimum)
	return false
}

func (c *DoctorCmd) checkCallerAccount(ctx context.Context, cfg *projcfg.Config) bool {
	deploy, err := deployConfig()
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ could not resolve the Deploy configuration: %v\n", err)
		return true
	}

	awsCfg, err := awsConfig(ctx, deploy.Region, cfg.Cdk.Profile)
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ could not load AWS configuration: %v\n", err)
		return true
	}

	identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		fmt.Fprintf(os.Stdout, "  ✗ could not resolve the caller identity: %v\n", err)
		return true
	}

	account := aws.ToString(identity.Account)
	if account != deploy.Account {
		fmt.Fprintf(os.Stdout, "  ✗ credentials are for account %s, the deployment account is %s\n",
			account, deploy.Account)
		return true
	}

	fmt.Fprintf(os.Stdout, "  ✓ %s (deployment account)\n", aws.ToString(identity.Arn))
	return false
}
