package cdk

import (
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// PlatformMappings is the static environment table of the platform. The
// Deploy mapping carries the pipeline account, the repository connection and
// the defaults every target environment inherits; target mappings override
// per environment. Changing an account or region here changes where the
// pipelines deploy on the next push. Regions go through MustRegion so a
// typo fails when the app loads, before any stack is built.
var PlatformMappings = clcdkutil.Mappings{
	clcdkutil.Deploy: {
		Account:         "417309004485",
		Region:          clcdkutil.MustRegion("us-east-1"),
		LogicalPrefix:   "ClaimsLake",
		ResourcePrefix:  "claimslake",
		RepositoryOwner: "claimslakehq",
		Repository:      "clapp",
		ConnectionARN:   "arn:aws:codestar-connections:us-east-1:417309004485:connection/8c55b68a-94b4-4e37-9f0b-bd4e4f0bca66",
	},
	clcdkutil.Dev: {
		Account: "696117817314",
		Region:  clcdkutil.MustRegion("us-east-1"),
		Lineage: jsii.Bool(true),
	},
	clcdkutil.Test: {
		Account: "823145119801",
		Region:  clcdkutil.MustRegion("us-east-1"),
		Lineage: jsii.Bool(true),
	},
	clcdkutil.Prod: {
		Account: "751998133283",
		Region:  clcdkutil.MustRegion("us-east-1"),
		VPCCIDR: "10.50.0.0/24",
	},
}
