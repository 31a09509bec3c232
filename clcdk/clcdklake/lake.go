// Package clcdklake provides the data lake zone buckets stack: one KMS key
// and the access-logs, collect, cleanse and consume buckets every other part
// of the platform builds on.
//
// Objects land in collect, are cleaned into cleanse and published to consume
// by the Glue jobs. Bucket names carry the account and region so the same
// mapping works in every target account. Names are published both as stack
// outputs and as SSM parameters for the operator CLI and sibling repositories.
package clcdklake

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/clcdk/clcdkparams"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

const paramsNamespace = "s3"

// Stack provides access to the zone buckets and their encryption key.
type Stack interface {
	// Stack returns the underlying CDK stack.
	Stack() awscdk.Stack
	// Key returns the KMS key encrypting the zone buckets.
	Key() awskms.IKey
	// AccessLogsBucket returns the server access log target bucket.
	AccessLogsBucket() awss3.IBucket
	// CollectBucket returns the raw intake bucket.
	CollectBucket() awss3.IBucket
	// CleanseBucket returns the cleansed data bucket.
	CleanseBucket() awss3.IBucket
	// ConsumeBucket returns the consumer-facing bucket.
	ConsumeBucket() awss3.IBucket
}

// Props configures the zone buckets stack.
type Props struct {
	// Conf is the resolved configuration of the target environment.
	// Required.
	Conf clcdkutil.Config
}

type stack struct {
	stack      awscdk.Stack
	key        awskms.IKey
	accessLogs awss3.IBucket
	collect    awss3.IBucket
	cleanse    awss3.IBucket
	consume    awss3.IBucket
}

// New creates the zone buckets stack for one target environment.
//
// Durable environments retain the key and every bucket on stack deletion;
// ephemeral environments destroy them. All buckets are versioned, block
// public access and enforce SSL. The zone buckets log access into the
// access-logs bucket under their own label.
func New(scope constructs.Construct, props Props) Stack {
	conf := props.Conf
	parent := awscdk.NewStack(scope, jsii.String(clcdkutil.LogicalID(conf, "S3BucketZones")), &awscdk.StackProps{
		Description: jsii.Sprintf("%s data lake zone buckets (%s)", conf.LogicalPrefix, conf.Environment),
	})
	con := &stack{stack: parent}
	policy := conf.Environment.RemovalPolicy()

	con.key = awskms.NewKey(parent, jsii.String("Key"), &awskms.KeyProps{
		Alias:             jsii.String(clcdkutil.PhysicalName(conf, "kms-key")),
		EnableKeyRotation: jsii.Bool(true),
		RemovalPolicy:     policy,
	})

	// Server access logging requires S3-managed encryption on the target.
	con.accessLogs = awss3.NewBucket(parent, jsii.String("AccessLogsBucket"), &awss3.BucketProps{
		BucketName:        bucketName(parent, conf, "access-logs"),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		ObjectOwnership:   awss3.ObjectOwnership_OBJECT_WRITER,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
		Versioned:         jsii.Bool(true),
		RemovalPolicy:     policy,
	})

	con.collect = newZoneBucket(parent, con, conf, "CollectBucket", "collect")
	con.cleanse = newZoneBucket(parent, con, conf, "CleanseBucket", "cleanse")
	con.consume = newZoneBucket(parent, con, conf, "ConsumeBucket", "consume")

	publications := []struct {
		id     string
		name   string
		bucket awss3.IBucket
	}{
		{"CollectBucketParam", "collect-bucket", con.collect},
		{"CleanseBucketParam", "cleanse-bucket", con.cleanse},
		{"ConsumeBucketParam", "consume-bucket", con.consume},
	}
	for _, pub := range publications {
		clcdkparams.Store(parent, pub.id, conf, paramsNamespace, pub.name, pub.bucket.BucketName())
		awscdk.NewCfnOutput(parent, jsii.String(pub.id+"Output"), &awscdk.CfnOutputProps{
			Key:         jsii.String(clcdkutil.LogicalID(conf, pub.name+"-name")),
			Description: jsii.Sprintf("Data lake %s (%s)", pub.name, conf.Environment),
			Value:       pub.bucket.BucketName(),
		})
	}

	return con
}

func newZoneBucket(parent awscdk.Stack, con *stack, conf clcdkutil.Config, id, label string) awss3.IBucket {
	return awss3.NewBucket(parent, jsii.String(id), &awss3.BucketProps{
		BucketName:             bucketName(parent, conf, label),
		Encryption:             awss3.BucketEncryption_KMS,
		EncryptionKey:          con.key,
		BucketKeyEnabled:       jsii.Bool(true),
		BlockPublicAccess:      awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:             jsii.Bool(true),
		Versioned:              jsii.Bool(true),
		ServerAccessLogsBucket: con.accessLogs,
		ServerAccessLogsPrefix: jsii.String(label + "/"),
		RemovalPolicy:          conf.Environment.RemovalPolicy(),
	})
}

// bucketName appends the account and region so names stay globally unique
// across target accounts.
func bucketName(parent awscdk.Stack, conf clcdkutil.Config, label string) *string {
	return jsii.Sprintf("%s-%s-%s", clcdkutil.PhysicalName(conf, label), *parent.Account(), *parent.Region())
}

func (s *stack) Stack() awscdk.Stack {
	return s.stack
}

func (s *stack) Key() awskms.IKey {
	return s.key
}

func (s *stack) AccessLogsBucket() awss3.IBucket {
	return s.accessLogs
}

func (s *stack) CollectBucket() awss3.IBucket {
	return s.collect
}

func (s *stack) CleanseBucket() awss3.IBucket {
	return s.cleanse
}

func (s *stack) ConsumeBucket() awss3.IBucket {
	return s.consume
}
