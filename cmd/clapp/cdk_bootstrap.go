package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/claimslakehq/clapp/cmd/internal/cdkctx"
	"github.com/claimslakehq/clapp/cmd/internal/cfndeploy"
	"github.com/claimslakehq/clapp/cmd/internal/cfnparams"
	"github.com/claimslakehq/clapp/cmd/internal/cfnpatch"
	"github.com/claimslakehq/clapp/cmd/internal/cfnread"
	"github.com/claimslakehq/clapp/cmd/internal/cfnvalidate"
	"github.com/claimslakehq/clapp/cmd/internal/cmdexec"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

// The pipeline republishes assets on every run, so staged assets older than
// this are leftovers from superseded deployments.
const stagedAssetExpirationDays = 90

type BootstrapCmd struct {
	Profile             string `help:"AWS profile to use for bootstrap (requires admin permissions)."`
	ExecutionPolicies   string `name:"execution-policies" help:"IAM policy ARNs for the CFN execution role."`
	PermissionsBoundary string `name:"permissions-boundary" help:"IAM permissions boundary for bootstrap roles."`
}

func (c *BootstrapCmd) Run(cfg *projcfg.Config) error {
	ctx := context.Background()
	cdkDir := cfg.CdkDir()

	cctx, err := cdkctx.Load(cdkDir)
	if err != nil {
		return err
	}

	profile := c.Profile
	if profile == "" {
		profile = cfg.Cdk.Profile
	}

	executionPolicies, permissionsBoundary, err := c.resolveBootstrapFlags(ctx, cfg, cctx, profile)
	if err != nil {
		return err
	}

	templatePath, err := patchedBootstrapTemplate(ctx, cdkDir)
	if err != nil {
		return err
	}
	defer os.Remove(templatePath)

	args := []string{
		"bootstrap",
		"--qualifier", cctx.Qualifier,
		"--template", templatePath,
	}
	if profile != "" {
		args = append(args, "--profile", profile)
	}
	if executionPolicies != "" {
		args = append(args, "--cloudformation-execution-policies", executionPolicies)
	}
	if permissionsBoundary != "" {
		args = append(args, "--custom-permissions-boundary", permissionsBoundary)
	}
	return cmdexec.Run(ctx, cdkDir, "cdk", args...)
}

// resolveBootstrapFlags deploys the pre-bootstrap stack when one is
// configured and folds its outputs into the bootstrap flags. Explicit flags
// conflict with outputs rather than silently losing.
func (c *BootstrapCmd) resolveBootstrapFlags(
	ctx context.Context, cfg *projcfg.Config, cctx *cdkctx.CDKContext, profile string,
) (executionPolicies, permissionsBoundary string, err error) {
	if cfg.Cdk.PreBootstrap == nil {
		return c.ExecutionPolicies, c.PermissionsBoundary, nil
	}

	outputs, err := runPreBootstrap(ctx, cfg, cctx, profile)
	if err != nil {
		return "", "", err
	}

	executionPolicies = c.ExecutionPolicies
	if v := outputs["ExecutionPolicyArn"]; v != "" {
		if c.ExecutionPolicies != "" {
			return "", "", errors.New(
				"--execution-policies cannot be used when the pre-bootstrap stack provides ExecutionPolicyArn")
		}
		executionPolicies = v
	}

	permissionsBoundary = c.PermissionsBoundary
	if v := outputs["PermissionBoundaryName"]; v != "" {
		if c.PermissionsBoundary != "" {
			return "", "", errors.New(
				"--permissions-boundary cannot be used when the pre-bootstrap stack provides PermissionBoundaryName")
		}
		permissionsBoundary = v
	}

	return executionPolicies, permissionsBoundary, nil
}

func runPreBootstrap(
	ctx context.Context, cfg *projcfg.Config, cctx *cdkctx.CDKContext, profile string,
) (map[string]string, error) {
	pb := cfg.Cdk.PreBootstrap
	templatePath := filepath.Join(cfg.CdkDir(), pb.Template)

	if err := cfnvalidate.PreBootstrapTemplate(templatePath); err != nil {
		return nil, errors.Wrap(err, "validating pre-bootstrap template")
	}

	params, err := cfnparams.Resolve(pb.Parameters, cctx.ContextValues)
	if err != nil {
		return nil, errors.Wrap(err, "resolving pre-bootstrap parameters")
	}

	stackName := cctx.Qualifier + "-pre-bootstrap"

	fmt.Fprintf(os.Stderr, "Deploying pre-bootstrap stack %s...\n", stackName)
	if err := cfndeploy.Deploy(ctx, cfg.CdkDir(), profile, stackName, templatePath, params); err != nil {
		return nil, errors.Wrap(err, "deploying pre-bootstrap stack")
	}

	outputs, err := cfnread.StackOutputs(ctx, "", profile, stackName)
	if err != nil {
		return nil, errors.Wrap(err, "reading pre-bootstrap stack outputs")
	}

	return outputs, nil
}

// patchedBootstrapTemplate writes the default bootstrap template with the
// staged-asset expiration rule added and returns the temp file path. The
// caller removes the file.
func patchedBootstrapTemplate(ctx context.Context, cdkDir string) (string, error) {
	templateYAML, err := cmdexec.Output(ctx, cdkDir, "cdk", "bootstrap", "--show-template")
	if err != nil {
		return "", errors.Wrap(err, "getting default bootstrap template")
	}

	patched, err := cfnpatch.AddAssetExpiration([]byte(templateYAML), stagedAssetExpirationDays)
	if err != nil {
		return "", errors.Wrap(err, "patching bootstrap template")
	}

	tmpFile, err := os.CreateTemp("", "cdk-bootstrap-*.yaml")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file for bootstrap template")
	}

	if _, err := tmpFile.Write(patched); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", errors.Wrap(err, "writing patched bootstrap template")
	}
	tmpFile.Close()

	return tmpFile.Name(), nil
}
