// Command clapp is the ClaimsLake development CLI. It drives the cdk binary
// against the delivery pipeline stacks, runs ETL operations against deployed
// environments and keeps the working copy healthy.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/claimslakehq/clapp/cmd/internal/projcfg"
)

type App struct {
	Cdk struct {
		Bootstrap BootstrapCmd `cmd:"" help:"Bootstrap CDK in the current AWS account/region."`
		Deploy    DeployCmd    `cmd:"" help:"Deploy the delivery pipeline for a target environment."`
		Diff      DiffCmd      `cmd:"" help:"Show the CDK diff for a target environment's pipeline."`
		Synth     SynthCmd     `cmd:"" help:"Synthesize every pipeline stack."`
		Outputs   OutputsCmd   `cmd:"" help:"Show CloudFormation outputs for a target environment."`
	} `cmd:"" help:"CDK commands."`
	Pipeline struct {
		Status PipelineStatusCmd `cmd:"" help:"Show the delivery pipeline state for a target environment."`
	} `cmd:"" help:"Delivery pipeline commands."`
	Etl struct {
		Run     EtlRunCmd     `cmd:"" help:"Start the collect-to-cleanse job for a source object key."`
		Redrive EtlRedriveCmd `cmd:"" help:"Move dead-lettered intake messages back onto the intake queue."`
	} `cmd:"" help:"ETL commands."`
	Doctor DoctorCmd `cmd:"" help:"Check that required tools and AWS access are in place."`
	Check  struct {
		Lint     LintCmd     `cmd:"" help:"Run golangci-lint and shellcheck."`
		UnitTest UnitTestCmd `cmd:"" name:"unit-test" help:"Run all Go tests."`
	} `cmd:"" help:"Check commands."`
	Dev struct {
		Fmt FmtCmd `cmd:"" help:"Format Go files and shell scripts."`
		Gen GenCmd `cmd:"" help:"Generate code."`
	} `cmd:"" help:"Development commands."`
}

func main() {
	cfg, err := projcfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var app App
	ctx := kong.Parse(&app,
		kong.Name("clapp"),
		kong.Description("ClaimsLake development CLI."),
		kong.Bind(cfg),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
