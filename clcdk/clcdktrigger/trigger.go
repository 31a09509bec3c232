// Package clcdktrigger provides the intake trigger stack: an SQS queue fed
// by collect bucket object notifications, the Go Lambda that starts the
// collect-to-cleanse Glue job, and the job audit table recording every run.
//
// The notification is attached to the collect bucket by name from this stack
// so the zone buckets stack never references trigger resources. Failed
// messages land on an encrypted dead-letter queue after three receives and
// can be moved back with the operator CLI.
package clcdktrigger

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambdaeventsources"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3notifications"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/clcdk/clcdkglue"
	"github.com/claimslakehq/clapp/clcdk/clcdklake"
	"github.com/claimslakehq/clapp/clcdk/clcdkloggroup"
	"github.com/claimslakehq/clapp/clcdk/clcdkparams"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

// CollectPrefix is the key prefix under which new objects trigger the ETL.
const CollectPrefix = "collect/"

// maxReceiveCount moves a message to the dead-letter queue after this many
// failed receives.
const maxReceiveCount = 3

// Stack provides access to the intake trigger resources.
type Stack interface {
	// Stack returns the underlying CDK stack.
	Stack() awscdk.Stack
	// Queue returns the intake queue the collect bucket notifies.
	Queue() awssqs.IQueue
	// DeadLetterQueue returns the queue failed messages end up on.
	DeadLetterQueue() awssqs.IQueue
	// Function returns the trigger Lambda.
	Function() awscdklambdagoalpha.GoFunction
	// AuditTable returns the job audit table.
	AuditTable() awsdynamodb.ITableV2
}

// Props configures the intake trigger stack.
type Props struct {
	// Conf is the resolved configuration of the target environment.
	// Required.
	Conf clcdkutil.Config
	// Lake provides the collect bucket the trigger listens on.
	// Required.
	Lake clcdklake.Stack
	// Glue provides the job the trigger starts.
	// Required.
	Glue clcdkglue.Stack
	// Entry is the path to the trigger Lambda command directory, relative
	// to the CDK app working directory.
	// Required.
	Entry string
}

type stack struct {
	stack    awscdk.Stack
	queue    awssqs.IQueue
	dlq      awssqs.IQueue
	function awscdklambdagoalpha.GoFunction
	audit    awsdynamodb.ITableV2
}

// New creates the intake trigger stack for one target environment.
//
// The trigger Lambda consumes the intake queue in batches and reports
// partial failures, so one bad object never blocks the rest of a batch.
func New(scope constructs.Construct, props Props) Stack {
	conf := props.Conf
	parent := awscdk.NewStack(scope, jsii.String(clcdkutil.LogicalID(conf, "EtlTrigger")), &awscdk.StackProps{
		Description: jsii.Sprintf("%s intake trigger (%s)", conf.LogicalPrefix, conf.Environment),
	})
	con := &stack{stack: parent}
	policy := conf.Environment.RemovalPolicy()

	con.dlq = awssqs.NewQueue(parent, jsii.String("DeadLetterQueue"), &awssqs.QueueProps{
		QueueName:       jsii.String(clcdkutil.PhysicalName(conf, "etl-intake-dlq")),
		Encryption:      awssqs.QueueEncryption_SQS_MANAGED,
		EnforceSSL:      jsii.Bool(true),
		RetentionPeriod: awscdk.Duration_Days(jsii.Number(14)),
	})
	con.queue = awssqs.NewQueue(parent, jsii.String("Queue"), &awssqs.QueueProps{
		QueueName:  jsii.String(clcdkutil.PhysicalName(conf, "etl-intake")),
		Encryption: awssqs.QueueEncryption_SQS_MANAGED,
		EnforceSSL: jsii.Bool(true),
		// Six times the function timeout, per the Lambda event source guidance.
		VisibilityTimeout: awscdk.Duration_Minutes(jsii.Number(6)),
		DeadLetterQueue: &awssqs.DeadLetterQueue{
			MaxReceiveCount: jsii.Number(maxReceiveCount),
			Queue:           con.dlq,
		},
	})

	// Attach the notification to a by-name reference so the notification
	// resource and the queue policy both live in this stack. The name comes
	// from the parameter the lake stack publishes, not from an export, so a
	// bucket rename never deadlocks on a CloudFormation export in use.
	collectName := clcdkparams.LookupLocal(parent, conf, "s3", "collect-bucket")
	collect := awss3.Bucket_FromBucketName(parent, jsii.String("CollectBucket"), collectName)
	collect.AddEventNotification(awss3.EventType_OBJECT_CREATED,
		awss3notifications.NewSqsDestination(con.queue),
		&awss3.NotificationKeyFilter{Prefix: jsii.String(CollectPrefix)})

	con.audit = awsdynamodb.NewTableV2(parent, jsii.String("JobAuditTable"), &awsdynamodb.TablePropsV2{
		TableName: jsii.String(clcdkutil.PhysicalName(conf, "etl-job-audit")),
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("run_id"), Type: awsdynamodb.AttributeType_STRING,
		},
		Billing:       awsdynamodb.Billing_OnDemand(nil),
		RemovalPolicy: policy,
		PointInTimeRecoverySpecification: &awsdynamodb.PointInTimeRecoverySpecification{
			PointInTimeRecoveryEnabled: jsii.Bool(conf.Environment.Durable()),
		},
		GlobalSecondaryIndexes: &[]*awsdynamodb.GlobalSecondaryIndexPropsV2{
			{
				IndexName: jsii.String("gsi1"),
				PartitionKey: &awsdynamodb.Attribute{
					Name: jsii.String("object_key"), Type: awsdynamodb.AttributeType_STRING,
				},
				SortKey: &awsdynamodb.Attribute{
					Name: jsii.String("started_at"), Type: awsdynamodb.AttributeType_STRING,
				},
			},
		},
	})

	logGroup := clcdkloggroup.New(parent, "Trigger", clcdkloggroup.Props{
		Conf:    conf,
		Purpose: jsii.String("the intake trigger Lambda"),
	}).LogGroup()

	env := map[string]*string{
		"CL_JOB_NAME":       props.Glue.CollectToCleanseJobName(),
		"CL_AUDIT_TABLE":    con.audit.TableName(),
		"CL_COLLECT_BUCKET": collectName,
		"CL_SERVICE_NAME":   jsii.String(clcdkutil.PhysicalName(conf, "etl-trigger")),
		"CL_LOG_LEVEL":      jsii.String("info"),
		"CL_OTEL_EXPORTER":  jsii.String("xrayudp"),
	}
	con.function = awscdklambdagoalpha.NewGoFunction(parent, jsii.String("Function"),
		&awscdklambdagoalpha.GoFunctionProps{
			FunctionName:  jsii.String(clcdkutil.PhysicalName(conf, "etl-trigger")),
			Description:   jsii.String("Starts the collect-to-cleanse job for new collect objects"),
			Entry:         jsii.String(props.Entry),
			Architecture:  awslambda.Architecture_ARM_64(),
			Runtime:       awslambda.Runtime_PROVIDED_AL2023(),
			MemorySize:    jsii.Number(128),
			Timeout:       awscdk.Duration_Minutes(jsii.Number(1)),
			Environment:   &env,
			Bundling:      clcdkutil.ReproducibleGoBundling(),
			Tracing:       awslambda.Tracing_ACTIVE,
			LogGroup:      logGroup,
			LoggingFormat: awslambda.LoggingFormat_JSON,
		})

	con.function.AddEventSource(awslambdaeventsources.NewSqsEventSource(con.queue,
		&awslambdaeventsources.SqsEventSourceProps{
			BatchSize:               jsii.Number(10),
			ReportBatchItemFailures: jsii.Bool(true),
		}))

	con.audit.GrantWriteData(con.function)
	props.Lake.CollectBucket().GrantRead(con.function, nil)

	jobArn := parent.FormatArn(&awscdk.ArnComponents{
		Service:      jsii.String("glue"),
		Resource:     jsii.String("job"),
		ResourceName: props.Glue.CollectToCleanseJobName(),
	})
	con.function.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   jsii.Strings("glue:StartJobRun", "glue:GetJobRun", "glue:GetJobRuns"),
		Resources: &[]*string{jobArn},
	}))

	clcdkparams.Store(parent, "IntakeQueueParam", conf, "sqs", "intake-queue", con.queue.QueueName())
	clcdkparams.Store(parent, "IntakeDlqParam", conf, "sqs", "intake-dlq", con.dlq.QueueName())
	clcdkparams.Store(parent, "AuditTableParam", conf, "dynamo", "etl-job-audit", con.audit.TableName())

	awscdk.NewCfnOutput(parent, jsii.String("IntakeQueueOutput"), &awscdk.CfnOutputProps{
		Key:         jsii.String(clcdkutil.LogicalID(conf, "IntakeQueueName")),
		Description: jsii.Sprintf("Intake queue (%s)", conf.Environment),
		Value:       con.queue.QueueName(),
	})
	awscdk.NewCfnOutput(parent, jsii.String("TriggerFunctionOutput"), &awscdk.CfnOutputProps{
		Key:         jsii.String(clcdkutil.LogicalID(conf, "TriggerFunctionName")),
		Description: jsii.Sprintf("Intake trigger function (%s)", conf.Environment),
		Value:       con.function.FunctionName(),
	})

	return con
}

func (s *stack) Stack() awscdk.Stack { return s.stack }

func (s *stack) Queue() awssqs.IQueue { return s.queue }

func (s *stack) DeadLetterQueue() awssqs.IQueue { return s.dlq }

func (s *stack) Function() awscdklambdagoalpha.GoFunction { return s.function }

func (s *stack) AuditTable() awsdynamodb.ITableV2 { return s.audit }
