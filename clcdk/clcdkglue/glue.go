// Package clcdkglue provides the Glue ETL jobs stack: the collect-to-cleanse,
// cleanse-to-consume and consume-entity-match Spark jobs, the script and temp
// buckets backing them, and the shared job role.
//
// The PySpark scripts are uploaded from the repository by a bucket deployment
// so a plain pipeline run keeps jobs and scripts in lockstep. When the
// environment configures a VPC CIDR the stack provisions an in-stack VPC with
// one NETWORK Glue connection per availability zone and attaches them to
// every job, letting jobs reach data sources behind private networking.
package clcdkglue

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/clcdk/clcdkdynamo"
	"github.com/claimslakehq/clapp/clcdk/clcdklake"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// Glue jobs run with a fixed-size worker fleet; the worker type comes from
// the environment configuration.
const (
	workerCount       = 5
	maxConcurrentRuns = 10
)

// Stack provides access to the ETL jobs.
type Stack interface {
	// Stack returns the underlying CDK stack.
	Stack() awscdk.Stack
	// CollectToCleanseJobName returns the name of the job triggered on intake.
	CollectToCleanseJobName() *string
	// CleanseToConsumeJobName returns the name of the publication job.
	CleanseToConsumeJobName() *string
	// ConsumeEntityMatchJobName returns the name of the entity match job.
	ConsumeEntityMatchJobName() *string
	// JobRole returns the role shared by all jobs.
	JobRole() awsiam.IRole
}

// Props configures the Glue ETL jobs stack.
type Props struct {
	// Conf is the resolved configuration of the target environment.
	// Required.
	Conf clcdkutil.Config
	// Lake provides the zone buckets the jobs read and write.
	// Required.
	Lake clcdklake.Stack
	// Tables provides the reference tables the jobs look values up in.
	// Required.
	Tables clcdkdynamo.Stack
	// ScriptsPath is the local directory holding the PySpark scripts,
	// relative to the CDK app working directory.
	// Required.
	ScriptsPath string
}

type stack struct {
	stack   awscdk.Stack
	scripts awss3.IBucket
	temp    awss3.IBucket
	role    awsiam.IRole

	collectToCleanse   awsglue.CfnJob
	cleanseToConsume   awsglue.CfnJob
	consumeEntityMatch awsglue.CfnJob
}

// New creates the Glue ETL jobs stack for one target environment.
func New(scope constructs.Construct, props Props) Stack {
	conf := props.Conf
	parent := awscdk.NewStack(scope, jsii.String(clcdkutil.LogicalID(conf, "Glue")), &awscdk.StackProps{
		Description: jsii.Sprintf("%s Glue ETL jobs (%s)", conf.LogicalPrefix, conf.Environment),
	})
	con := &stack{stack: parent}
	policy := conf.Environment.RemovalPolicy()

	con.scripts = awss3.NewBucket(parent, jsii.String("GlueScriptsBucket"), &awss3.BucketProps{
		BucketName:        bucketName(parent, conf, "glue-scripts"),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
		Versioned:         jsii.Bool(true),
		RemovalPolicy:     policy,
	})
	con.temp = awss3.NewBucket(parent, jsii.String("GlueTempBucket"), &awss3.BucketProps{
		BucketName:        bucketName(parent, conf, "glue-temp"),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
		Versioned:         jsii.Bool(true),
		RemovalPolicy:     policy,
	})

	awss3deployment.NewBucketDeployment(parent, jsii.String("DeployGlueScripts"), &awss3deployment.BucketDeploymentProps{
		Sources:              &[]awss3deployment.ISource{awss3deployment.Source_Asset(jsii.String(props.ScriptsPath), nil)},
		DestinationBucket:    con.scripts,
		DestinationKeyPrefix: jsii.String("etl"),
	})

	role := awsiam.NewRole(parent, jsii.String("GlueJobRole"), &awsiam.RoleProps{
		RoleName:  jsii.String(clcdkutil.PhysicalName(conf, "glue-job-role")),
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("glue.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String("service-role/AWSGlueServiceRole")),
		},
	})
	con.role = role

	con.scripts.GrantRead(role, nil)
	con.temp.GrantReadWrite(role, nil)
	props.Lake.CollectBucket().GrantRead(role, nil)
	props.Lake.CleanseBucket().GrantReadWrite(role, nil)
	props.Lake.ConsumeBucket().GrantReadWrite(role, nil)
	props.Tables.GrantReadWriteAll(role)

	connections := newConnections(parent, conf)

	con.collectToCleanse = con.newJob(parent, props, "CollectToCleanseJob", "collect-to-cleanse",
		"collect_to_cleanse.py", props.Lake.CollectBucket(), props.Lake.CleanseBucket(), connections)
	con.cleanseToConsume = con.newJob(parent, props, "CleanseToConsumeJob", "cleanse-to-consume",
		"cleanse_to_consume.py", props.Lake.CleanseBucket(), props.Lake.ConsumeBucket(), connections)
	con.consumeEntityMatch = con.newJob(parent, props, "ConsumeEntityMatchJob", "consume-entity-match",
		"consume_entity_match.py", props.Lake.ConsumeBucket(), props.Lake.ConsumeBucket(), connections)

	// Glue writes driver and executor output to fixed group names; declare
	// their retention so the environment class applies there as well.
	for i, logGroupName := range []string{"/aws-glue/jobs/output", "/aws-glue/jobs/error"} {
		awslogs.NewLogRetention(parent, jsii.String(fmt.Sprintf("GlueLogRetention%d", i+1)), &awslogs.LogRetentionProps{
			LogGroupName: jsii.String(logGroupName),
			Retention:    conf.Environment.LogRetention(),
		})
	}

	return con
}

// newJob creates one glueetl Spark job pointed at an uploaded script.
func (s *stack) newJob(parent awscdk.Stack, props Props, id, label, script string,
	source, target awss3.IBucket, connections *[]*string,
) awsglue.CfnJob {
	conf := props.Conf

	args := map[string]*string{
		"--TempDir":                          jsii.Sprintf("s3://%s/temp/", *s.temp.BucketName()),
		"--spark-event-logs-path":            jsii.Sprintf("s3://%s/spark-logs/", *s.temp.BucketName()),
		"--enable-metrics":                   jsii.String("true"),
		"--enable-spark-ui":                  jsii.String("true"),
		"--enable-glue-datacatalog":          jsii.String("true"),
		"--enable-continuous-cloudwatch-log": jsii.String("true"),
		"--job-bookmark-option":              jsii.String("job-bookmark-disable"),
		"--source_bucket":                    source.BucketName(),
		"--target_bucket":                    target.BucketName(),
		"--hash_value_table":                 props.Tables.HashTable().TableName(),
		"--value_lookup_table":               props.Tables.ValueLookupTable().TableName(),
		"--multi_lookup_table":               props.Tables.MultiLookupTable().TableName(),
		"--dq_results_table":                 props.Tables.DataQualityTable().TableName(),
	}
	if conf.Lineage {
		args["--enable_lineage"] = jsii.String("true")
	}

	jobProps := &awsglue.CfnJobProps{
		Name:        jsii.String(clcdkutil.PhysicalName(conf, label)),
		Description: jsii.Sprintf("%s %s job (%s)", conf.LogicalPrefix, label, conf.Environment),
		Role:        s.role.RoleArn(),
		GlueVersion: jsii.String(conf.GlueVersion),
		Command: &awsglue.CfnJob_JobCommandProperty{
			Name:           jsii.String("glueetl"),
			PythonVersion:  jsii.String("3"),
			ScriptLocation: jsii.Sprintf("s3://%s/etl/%s", *s.scripts.BucketName(), script),
		},
		WorkerType:      jsii.String(conf.SparkWorkerType),
		NumberOfWorkers: jsii.Number(workerCount),
		MaxRetries:      jsii.Number(0),
		ExecutionProperty: &awsglue.CfnJob_ExecutionPropertyProperty{
			MaxConcurrentRuns: jsii.Number(maxConcurrentRuns),
		},
		DefaultArguments: args,
	}
	if connections != nil {
		jobProps.Connections = &awsglue.CfnJob_ConnectionsListProperty{Connections: connections}
	}

	return awsglue.NewCfnJob(parent, jsii.String(id), jobProps)
}

// newConnections provisions the in-stack VPC and one NETWORK Glue connection
// per availability zone. Returns nil when the environment has no VPC CIDR.
//
// The VPC is built from L1 resources so the subnet count stays exactly three
// regardless of how many zones the deploying region reports at synth time.
func newConnections(parent awscdk.Stack, conf clcdkutil.Config) *[]*string {
	if !conf.HasVPC() {
		return nil
	}

	vpc := awsec2.NewCfnVPC(parent, jsii.String("GlueVpc"), &awsec2.CfnVPCProps{
		CidrBlock:          jsii.String(conf.VPCCIDR),
		EnableDnsSupport:   jsii.Bool(true),
		EnableDnsHostnames: jsii.Bool(true),
	})

	sg := awsec2.NewCfnSecurityGroup(parent, jsii.String("GlueSecurityGroup"), &awsec2.CfnSecurityGroupProps{
		GroupDescription: jsii.Sprintf("%s Glue connection security group (%s)", conf.LogicalPrefix, conf.Environment),
		VpcId:            vpc.Ref(),
	})
	// Glue requires a self-referencing all-traffic rule on its connections.
	awsec2.NewCfnSecurityGroupIngress(parent, jsii.String("GlueSecurityGroupSelfIngress"), &awsec2.CfnSecurityGroupIngressProps{
		GroupId:               sg.AttrGroupId(),
		SourceSecurityGroupId: sg.AttrGroupId(),
		IpProtocol:            jsii.String("-1"),
	})

	names := make([]*string, 0, 3)
	for i := range 3 {
		az := awscdk.Fn_Select(jsii.Number(i), awscdk.Fn_GetAzs(nil))
		subnet := awsec2.NewCfnSubnet(parent, jsii.String(fmt.Sprintf("GlueSubnet%d", i+1)), &awsec2.CfnSubnetProps{
			VpcId:            vpc.Ref(),
			CidrBlock:        awscdk.Fn_Select(jsii.Number(i), awscdk.Fn_Cidr(jsii.String(conf.VPCCIDR), jsii.Number(3), jsii.String("6"))),
			AvailabilityZone: az,
		})

		name := jsii.String(fmt.Sprintf("%s-az%d", clcdkutil.PhysicalName(conf, "glue-connection"), i+1))
		awsglue.NewCfnConnection(parent, jsii.String(fmt.Sprintf("GlueConnection%d", i+1)), &awsglue.CfnConnectionProps{
			CatalogId: parent.Account(),
			ConnectionInput: &awsglue.CfnConnection_ConnectionInputProperty{
				Name:           name,
				ConnectionType: jsii.String("NETWORK"),
				PhysicalConnectionRequirements: &awsglue.CfnConnection_PhysicalConnectionRequirementsProperty{
					AvailabilityZone:    az,
					SubnetId:            subnet.Ref(),
					SecurityGroupIdList: &[]*string{sg.AttrGroupId()},
				},
			},
		})
		names = append(names, name)
	}

	return &names
}

// bucketName appends the account and region so names stay globally unique
// across target accounts.
func bucketName(parent awscdk.Stack, conf clcdkutil.Config, label string) *string {
	return jsii.Sprintf("%s-%s-%s", clcdkutil.PhysicalName(conf, label), *parent.Account(), *parent.Region())
}

func (s *stack) Stack() awscdk.Stack {
	return s.stack
}

func (s *stack) CollectToCleanseJobName() *string {
	return s.collectToCleanse.Name()
}

func (s *stack) CleanseToConsumeJobName() *string {
	return s.cleanseToConsume.Name()
}

func (s *stack) ConsumeEntityMatchJobName() *string {
	return s.consumeEntityMatch.Name()
}

func (s *stack) JobRole() awsiam.IRole {
	return s.role
}
