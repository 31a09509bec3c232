package cdk

import (
	"os"
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cdklabs/cdk-nag-go/cdknag/v2"

	"github.com/claimslakehq/clapp/clcdk/clcdkdynamo"
	"github.com/claimslakehq/clapp/clcdk/clcdkglue"
	"github.com/claimslakehq/clapp/clcdk/clcdklake"
	"github.com/claimslakehq/clapp/clcdk/clcdktrigger"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// NewDeployment builds the stacks of one target environment: the zone
// buckets, the reference tables, the Glue ETL jobs and the intake trigger.
// The pipeline calls it once per deploy stage; tests call it directly with a
// plain stage.
func NewDeployment(scope constructs.Construct, conf clcdkutil.Config) {
	lake := clcdklake.New(scope, clcdklake.Props{Conf: conf})
	tables := clcdkdynamo.New(scope, clcdkdynamo.Props{Conf: conf})
	glue := clcdkglue.New(scope, clcdkglue.Props{
		Conf:        conf,
		Lake:        lake,
		Tables:      tables,
		ScriptsPath: repoRelative("gluescripts"),
	})
	trigger := clcdktrigger.New(scope, clcdktrigger.Props{
		Conf:  conf,
		Lake:  lake,
		Glue:  glue,
		Entry: repoRelative("trigger/cmd/etltrigger"),
	})

	// Accepted AwsSolutions findings, with the reason recorded next to the
	// stack that produces them.
	suppressFindings(lake.Stack(),
		suppression{"AwsSolutions-S1", "The access-logs bucket is the log destination for the zone buckets and does not log to itself"},
	)
	suppressFindings(tables.Stack(),
		suppression{"AwsSolutions-DDB3", "Point-in-time recovery is enabled in durable environments only; reference data is reloadable elsewhere"},
	)
	suppressFindings(glue.Stack(),
		suppression{"AwsSolutions-IAM4", "The Glue service role and the deployment handler use the AWS managed policies made for them"},
		suppression{"AwsSolutions-IAM5", "Bucket and table grants use wildcard object and index ARNs"},
		suppression{"AwsSolutions-S1", "The scripts and temp buckets hold transient job artifacts"},
		suppression{"AwsSolutions-L1", "The bucket deployment and log retention handlers run on the runtime their library pins"},
		suppression{"AwsSolutions-GL1", "Job logs carry no sensitive data; the zone buckets encrypt all job output at rest"},
		suppression{"AwsSolutions-GL3", "Job bookmarks hold object keys only"},
	)
	suppressFindings(trigger.Stack(),
		suppression{"AwsSolutions-IAM4", "The trigger function and the notification handler use the Lambda basic execution managed policy"},
		suppression{"AwsSolutions-IAM5", "Bucket and table grants use wildcard object and index ARNs"},
		suppression{"AwsSolutions-SQS3", "The intake dead-letter queue is the terminal queue"},
		suppression{"AwsSolutions-L1", "The notification handler runs on the runtime the CDK library pins"},
		suppression{"AwsSolutions-DDB3", "Point-in-time recovery is enabled in durable environments only; audit items expire operationally"},
	)
}

type suppression struct {
	id     string
	reason string
}

func suppressFindings(stack awscdk.Stack, suppressions ...suppression) {
	packed := make([]*cdknag.NagPackSuppression, 0, len(suppressions))
	for _, sup := range suppressions {
		packed = append(packed, &cdknag.NagPackSuppression{
			Id:     jsii.String(sup.id),
			Reason: jsii.String(sup.reason),
		})
	}
	cdknag.NagSuppressions_AddStackSuppressions(stack, &packed, nil)
}

// repoRelative resolves rel against the repository root, the directory
// holding clapp.toml. Asset paths must not depend on the working directory:
// the CDK CLI synthesizes from the repository root while go test runs from
// the package directory.
func repoRelative(rel string) string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "clapp.toml")); err == nil {
			return filepath.Join(dir, rel)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("clapp.toml not found in any parent directory, run from inside the repository")
		}
		dir = parent
	}
}
