// Package clcdkdynamo provides the ETL reference tables stack: the hash,
// value lookup, multi lookup and data quality results DynamoDB tables the
// Glue jobs read and write while transforming claims data.
//
// All tables are on-demand TableV2 tables. Durable environments enable
// point-in-time recovery and retain the tables on stack deletion. Table
// names are published as stack outputs and SSM parameters.
package clcdkdynamo

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/claimslakehq/clapp/clcdk/clcdkparams"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

const paramsNamespace = "dynamo"

// Stack provides access to the ETL reference tables.
type Stack interface {
	// Stack returns the underlying CDK stack.
	Stack() awscdk.Stack
	// HashTable returns the table of row hashes keyed by hash_key.
	HashTable() awsdynamodb.ITableV2
	// ValueLookupTable returns the single-column lookup table keyed by
	// source_system and column_name.
	ValueLookupTable() awsdynamodb.ITableV2
	// MultiLookupTable returns the multi-column lookup table keyed by
	// lookup_group and lookup_item.
	MultiLookupTable() awsdynamodb.ITableV2
	// DataQualityTable returns the data quality results table keyed by
	// execution_id and rule_id, with expiring items.
	DataQualityTable() awsdynamodb.ITableV2

	// GrantReadWriteAll grants read/write on every table and its indexes.
	GrantReadWriteAll(grantee awsiam.IGrantable)
}

// Props configures the reference tables stack.
type Props struct {
	// Conf is the resolved configuration of the target environment.
	// Required.
	Conf clcdkutil.Config
}

type stack struct {
	stack       awscdk.Stack
	hash        awsdynamodb.ITableV2
	valueLookup awsdynamodb.ITableV2
	multiLookup awsdynamodb.ITableV2
	dataQuality awsdynamodb.ITableV2
}

// New creates the reference tables stack for one target environment.
func New(scope constructs.Construct, props Props) Stack {
	conf := props.Conf
	parent := awscdk.NewStack(scope, jsii.String(clcdkutil.LogicalID(conf, "DynamoDb")), &awscdk.StackProps{
		Description: jsii.Sprintf("%s ETL reference tables (%s)", conf.LogicalPrefix, conf.Environment),
	})
	con := &stack{stack: parent}

	con.hash = newTable(parent, conf, "HashTable", "hash-values", &awsdynamodb.TablePropsV2{
		PartitionKey: &awsdynamodb.Attribute{Name: jsii.String("hash_key"), Type: awsdynamodb.AttributeType_STRING},
	})
	con.valueLookup = newTable(parent, conf, "ValueLookupTable", "value-lookup", &awsdynamodb.TablePropsV2{
		PartitionKey: &awsdynamodb.Attribute{Name: jsii.String("source_system"), Type: awsdynamodb.AttributeType_STRING},
		SortKey:      &awsdynamodb.Attribute{Name: jsii.String("column_name"), Type: awsdynamodb.AttributeType_STRING},
	})
	con.multiLookup = newTable(parent, conf, "MultiLookupTable", "multi-lookup", &awsdynamodb.TablePropsV2{
		PartitionKey: &awsdynamodb.Attribute{Name: jsii.String("lookup_group"), Type: awsdynamodb.AttributeType_STRING},
		SortKey:      &awsdynamodb.Attribute{Name: jsii.String("lookup_item"), Type: awsdynamodb.AttributeType_STRING},
	})
	con.dataQuality = newTable(parent, conf, "DataQualityTable", "dq-results", &awsdynamodb.TablePropsV2{
		PartitionKey:        &awsdynamodb.Attribute{Name: jsii.String("execution_id"), Type: awsdynamodb.AttributeType_STRING},
		SortKey:             &awsdynamodb.Attribute{Name: jsii.String("rule_id"), Type: awsdynamodb.AttributeType_STRING},
		TimeToLiveAttribute: jsii.String("expire_at"),
		GlobalSecondaryIndexes: &[]*awsdynamodb.GlobalSecondaryIndexPropsV2{
			{
				IndexName:    jsii.String("gsi1"),
				PartitionKey: &awsdynamodb.Attribute{Name: jsii.String("job_name"), Type: awsdynamodb.AttributeType_STRING},
				SortKey:      &awsdynamodb.Attribute{Name: jsii.String("executed_at"), Type: awsdynamodb.AttributeType_STRING},
			},
		},
	})

	publications := []struct {
		id    string
		name  string
		table awsdynamodb.ITableV2
	}{
		{"HashTableParam", "hash-values-table", con.hash},
		{"ValueLookupTableParam", "value-lookup-table", con.valueLookup},
		{"MultiLookupTableParam", "multi-lookup-table", con.multiLookup},
		{"DataQualityTableParam", "dq-results-table", con.dataQuality},
	}
	for _, pub := range publications {
		clcdkparams.Store(parent, pub.id, conf, paramsNamespace, pub.name, pub.table.TableName())
		awscdk.NewCfnOutput(parent, jsii.String(pub.id+"Output"), &awscdk.CfnOutputProps{
			Description: jsii.Sprintf("ETL %s (%s)", pub.name, conf.Environment),
			Value:       pub.table.TableName(),
		})
	}

	return con
}

// newTable fills in the settings shared by every reference table before
// creating it.
func newTable(parent awscdk.Stack, conf clcdkutil.Config, id, label string, props *awsdynamodb.TablePropsV2) awsdynamodb.ITableV2 {
	props.TableName = jsii.String(clcdkutil.PhysicalName(conf, label))
	props.Billing = awsdynamodb.Billing_OnDemand(nil)
	props.RemovalPolicy = conf.Environment.RemovalPolicy()
	props.PointInTimeRecoverySpecification = &awsdynamodb.PointInTimeRecoverySpecification{
		PointInTimeRecoveryEnabled: jsii.Bool(conf.Environment.Durable()),
	}
	return awsdynamodb.NewTableV2(parent, jsii.String(id), props)
}

func (s *stack) Stack() awscdk.Stack {
	return s.stack
}

func (s *stack) HashTable() awsdynamodb.ITableV2 {
	return s.hash
}

func (s *stack) ValueLookupTable() awsdynamodb.ITableV2 {
	return s.valueLookup
}

func (s *stack) MultiLookupTable() awsdynamodb.ITableV2 {
	return s.multiLookup
}

func (s *stack) DataQualityTable() awsdynamodb.ITableV2 {
	return s.dataQuality
}

func (s *stack) GrantReadWriteAll(grantee awsiam.IGrantable) {
	tables := []awsdynamodb.ITableV2{s.hash, s.valueLookup, s.multiLookup, s.dataQuality}
	for _, table := range tables {
		table.GrantReadWriteData(grantee)

		indexArn := jsii.Sprintf("%s/index/*", *table.TableArn())
		awsiam.Grant_AddToPrincipal(&awsiam.GrantOnPrincipalOptions{
			Grantee:      grantee,
			ResourceArns: &[]*string{indexArn},
			Actions: &[]*string{
				jsii.String("dynamodb:Query"),
				jsii.String("dynamodb:Scan"),
				jsii.String("dynamodb:GetItem"),
				jsii.String("dynamodb:BatchGetItem"),
				jsii.String("dynamodb:ConditionCheckItem"),
			},
		})
	}
}
