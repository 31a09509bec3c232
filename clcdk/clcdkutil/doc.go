// Package clcdkutil resolves deployment environment configuration and
// provides the naming, region, stack and bundling helpers shared by the
// ClaimsLake construct packages.
//
// # Quick Start
//
// Resolve a target environment from the static mappings and hand the
// resulting Config to the construct packages:
//
//	conf, err := clcdkutil.Resolve(mappings, clcdkutil.Dev)
//	if err != nil {
//	    panic(err)
//	}
//
//	stack := clcdkutil.NewStack(app, "DevClaimsLakeEtlPipelineStack", conf,
//	    "ClaimsLake ETL pipeline (Dev)")
//
// # Environments
//
// Deploy names the account hosting the CDK pipelines; its mapping also
// carries the defaults every target environment inherits. Dev, Test and
// Prod are the pipeline targets. Test and Prod are durable: stateful
// resources are retained on stack deletion and logs are kept for six
// months. Everything else is ephemeral and cleaned up on stack deletion.
//
// # Features
//
//   - [Resolve], [ResolveAll]: environment configuration with validation
//   - [LogicalID], [PhysicalName]: construct and resource naming
//   - [NewStack]: stack creation bound to the resolved account and region
//   - [ReproducibleGoBundling]: Lambda bundling for identical builds
package clcdkutil
