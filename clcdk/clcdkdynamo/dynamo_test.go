//nolint:paralleltest // jsii runtime doesn't support parallel tests
package clcdkdynamo_test

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/claimslakehq/clapp/clcdk/clcdkdynamo"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

func confFor(env clcdkutil.Environment) clcdkutil.Config {
	return clcdkutil.Config{
		Environment:    env,
		Account:        "123456789012",
		Region:         "us-east-1",
		LogicalPrefix:  "TestLake",
		ResourcePrefix: "testlake",
	}
}

func TestNew_CreatesFourTables(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	tables := clcdkdynamo.New(app, clcdkdynamo.Props{Conf: confFor(clcdkutil.Dev)})

	if tables.HashTable() == nil || tables.ValueLookupTable() == nil ||
		tables.MultiLookupTable() == nil || tables.DataQualityTable() == nil {
		t.Fatal("table accessors should not be nil")
	}

	tmpl := synthTemplate(t, app, "DevTestLakeDynamoDb")
	got := resourcesOfType(tmpl, "AWS::DynamoDB::GlobalTable")
	if len(got) != 4 {
		t.Fatalf("want 4 tables, got %d", len(got))
	}
	for _, table := range got {
		props := table["Properties"].(map[string]any)
		if props["BillingMode"] != "PAY_PER_REQUEST" {
			t.Errorf("table %v BillingMode = %v, want PAY_PER_REQUEST",
				props["TableName"], props["BillingMode"])
		}
	}
}

func TestNew_KeySchemas(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	clcdkdynamo.New(app, clcdkdynamo.Props{Conf: confFor(clcdkutil.Dev)})

	tmpl := synthTemplate(t, app, "DevTestLakeDynamoDb")

	tests := []struct {
		tableName string
		hashKey   string
		rangeKey  string
	}{
		{"dev-testlake-hash-values", "hash_key", ""},
		{"dev-testlake-value-lookup", "source_system", "column_name"},
		{"dev-testlake-multi-lookup", "lookup_group", "lookup_item"},
		{"dev-testlake-dq-results", "execution_id", "rule_id"},
	}

	for _, tt := range tests {
		t.Run(tt.tableName, func(t *testing.T) {
			props := tableProps(t, tmpl, tt.tableName)
			schema := props["KeySchema"].([]any)

			want := 1
			if tt.rangeKey != "" {
				want = 2
			}
			if len(schema) != want {
				t.Fatalf("KeySchema = %v, want %d keys", schema, want)
			}

			hash := schema[0].(map[string]any)
			if hash["AttributeName"] != tt.hashKey || hash["KeyType"] != "HASH" {
				t.Errorf("hash key = %v, want %s", hash, tt.hashKey)
			}
			if tt.rangeKey != "" {
				rng := schema[1].(map[string]any)
				if rng["AttributeName"] != tt.rangeKey || rng["KeyType"] != "RANGE" {
					t.Errorf("range key = %v, want %s", rng, tt.rangeKey)
				}
			}
		})
	}
}

func TestNew_DataQualityTableExtras(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	clcdkdynamo.New(app, clcdkdynamo.Props{Conf: confFor(clcdkutil.Dev)})

	tmpl := synthTemplate(t, app, "DevTestLakeDynamoDb")
	props := tableProps(t, tmpl, "dev-testlake-dq-results")

	ttl, _ := props["TimeToLiveSpecification"].(map[string]any)
	if ttl["AttributeName"] != "expire_at" || ttl["Enabled"] != true {
		t.Errorf("TimeToLiveSpecification = %v, want expire_at enabled", ttl)
	}

	gsis, _ := props["GlobalSecondaryIndexes"].([]any)
	if len(gsis) != 1 {
		t.Fatalf("want 1 GSI, got %v", gsis)
	}
	gsi := gsis[0].(map[string]any)
	if gsi["IndexName"] != "gsi1" {
		t.Errorf("IndexName = %v, want gsi1", gsi["IndexName"])
	}
	schema := gsi["KeySchema"].([]any)
	if first := schema[0].(map[string]any); first["AttributeName"] != "job_name" {
		t.Errorf("GSI hash key = %v, want job_name", first)
	}
}

func TestNew_DurabilityByEnvironment(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	clcdkdynamo.New(app, clcdkdynamo.Props{Conf: confFor(clcdkutil.Dev)})
	clcdkdynamo.New(app, clcdkdynamo.Props{Conf: confFor(clcdkutil.Prod)})

	dev := synthTemplate(t, app, "DevTestLakeDynamoDb")
	for _, table := range resourcesOfType(dev, "AWS::DynamoDB::GlobalTable") {
		if table["DeletionPolicy"] != "Delete" {
			t.Errorf("Dev table DeletionPolicy = %v, want Delete", table["DeletionPolicy"])
		}
		if pitrEnabled(table) {
			t.Error("Dev tables should not enable point-in-time recovery")
		}
	}

	prod := synthTemplate(t, app, "ProdTestLakeDynamoDb")
	for _, table := range resourcesOfType(prod, "AWS::DynamoDB::GlobalTable") {
		if table["DeletionPolicy"] != "Retain" {
			t.Errorf("Prod table DeletionPolicy = %v, want Retain", table["DeletionPolicy"])
		}
		if !pitrEnabled(table) {
			t.Error("Prod tables should enable point-in-time recovery")
		}
	}
}

func TestNew_PublishesNames(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	clcdkdynamo.New(app, clcdkdynamo.Props{Conf: confFor(clcdkutil.Dev)})

	tmpl := synthTemplate(t, app, "DevTestLakeDynamoDb")
	params := resourcesOfType(tmpl, "AWS::SSM::Parameter")
	if len(params) != 4 {
		t.Fatalf("want 4 SSM parameters, got %d", len(params))
	}
}

func tableProps(t *testing.T, tmpl map[string]any, tableName string) map[string]any {
	t.Helper()

	for _, table := range resourcesOfType(tmpl, "AWS::DynamoDB::GlobalTable") {
		props := table["Properties"].(map[string]any)
		if props["TableName"] == tableName {
			return props
		}
	}
	t.Fatalf("table %q not found", tableName)
	return nil
}

func pitrEnabled(table map[string]any) bool {
	props, _ := table["Properties"].(map[string]any)
	replicas, _ := props["Replicas"].([]any)
	if len(replicas) == 0 {
		return false
	}
	replica, _ := replicas[0].(map[string]any)
	pitr, _ := replica["PointInTimeRecoverySpecification"].(map[string]any)
	return pitr["PointInTimeRecoveryEnabled"] == true
}

func synthTemplate(t *testing.T, app awscdk.App, stackName string) map[string]any {
	t.Helper()

	template := app.Synth(nil).GetStackByName(jsii.String(stackName)).Template()
	templateJSON, err := json.Marshal(template)
	if err != nil {
		t.Fatalf("failed to marshal template: %v", err)
	}

	var tmpl map[string]any
	if err := json.Unmarshal(templateJSON, &tmpl); err != nil {
		t.Fatalf("failed to unmarshal template: %v", err)
	}
	return tmpl
}

func resourcesOfType(tmpl map[string]any, typ string) []map[string]any {
	resources, _ := tmpl["Resources"].(map[string]any)

	var out []map[string]any
	for _, val := range resources {
		res, ok := val.(map[string]any)
		if !ok {
			continue
		}
		if res["Type"] == typ {
			out = append(out, res)
		}
	}
	return out
}
