//nolint:paralleltest // jsii runtime doesn't support parallel tests
package clcdkglue_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/claimslakehq/clapp/clcdk/clcdkdynamo"
	"github.com/claimslakehq/clapp/clcdk/clcdkglue"
	"github.com/claimslakehq/clapp/clcdk/clcdklake"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
)

func confFor(env clcdkutil.Environment) clcdkutil.Config {
	return clcdkutil.Config{
		Environment:     env,
		Account:         "123456789012",
		Region:          "us-east-1",
		LogicalPrefix:   "TestLake",
		ResourcePrefix:  "testlake",
		GlueVersion:     "4.0",
		SparkWorkerType: "G.1X",
	}
}

func newGlueStack(app awscdk.App, conf clcdkutil.Config) clcdkglue.Stack {
	lake := clcdklake.New(app, clcdklake.Props{Conf: conf})
	tables := clcdkdynamo.New(app, clcdkdynamo.Props{Conf: conf})
	return clcdkglue.New(app, clcdkglue.Props{
		Conf:        conf,
		Lake:        lake,
		Tables:      tables,
		ScriptsPath: "../../gluescripts",
	})
}

func TestNew_ResourceCounts(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	glue := newGlueStack(app, confFor(clcdkutil.Dev))

	if glue.JobRole() == nil {
		t.Fatal("JobRole() should not be nil")
	}

	tmpl := synthTemplate(t, app, "DevTestLakeGlue")

	counts := []struct {
		typ  string
		want int
	}{
		{"AWS::Glue::Job", 3},
		{"AWS::S3::Bucket", 2},
		{"AWS::Lambda::Function", 2},
		{"AWS::IAM::Role", 3},
		{"AWS::Glue::Connection", 0},
	}
	for _, tt := range counts {
		if got := len(resourcesOfType(tmpl, tt.typ)); got != tt.want {
			t.Errorf("%s count = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestNew_JobProperties(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	glue := newGlueStack(app, confFor(clcdkutil.Dev))

	if *glue.CollectToCleanseJobName() != "dev-testlake-collect-to-cleanse" {
		t.Errorf("CollectToCleanseJobName() = %q", *glue.CollectToCleanseJobName())
	}

	tmpl := synthTemplate(t, app, "DevTestLakeGlue")
	jobs := resourcesOfType(tmpl, "AWS::Glue::Job")

	foundCollect := false
	for _, job := range jobs {
		props := job["Properties"].(map[string]any)
		if props["GlueVersion"] != "4.0" {
			t.Errorf("job %v GlueVersion = %v, want 4.0", props["Name"], props["GlueVersion"])
		}
		if props["WorkerType"] != "G.1X" {
			t.Errorf("job %v WorkerType = %v, want G.1X", props["Name"], props["WorkerType"])
		}

		command := props["Command"].(map[string]any)
		if command["Name"] != "glueetl" {
			t.Errorf("job %v Command.Name = %v, want glueetl", props["Name"], command["Name"])
		}

		if props["Name"] == "dev-testlake-collect-to-cleanse" {
			foundCollect = true
			location, _ := json.Marshal(command["ScriptLocation"])
			if !strings.Contains(string(location), "collect_to_cleanse.py") {
				t.Errorf("ScriptLocation %s should reference collect_to_cleanse.py", location)
			}
		}
	}
	if !foundCollect {
		t.Error("collect-to-cleanse job not found")
	}
}

func TestNew_LineageArgument(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	withLineage := confFor(clcdkutil.Dev)
	withLineage.Lineage = true
	newGlueStack(app, withLineage)
	newGlueStack(app, confFor(clcdkutil.Prod))

	dev := synthTemplate(t, app, "DevTestLakeGlue")
	for _, job := range resourcesOfType(dev, "AWS::Glue::Job") {
		args := job["Properties"].(map[string]any)["DefaultArguments"].(map[string]any)
		if args["--enable_lineage"] != "true" {
			t.Errorf("job %v should carry the lineage argument", job["Properties"].(map[string]any)["Name"])
		}
	}

	prod := synthTemplate(t, app, "ProdTestLakeGlue")
	for _, job := range resourcesOfType(prod, "AWS::Glue::Job") {
		args := job["Properties"].(map[string]any)["DefaultArguments"].(map[string]any)
		if _, ok := args["--enable_lineage"]; ok {
			t.Error("lineage argument should be absent when the toggle is off")
		}
	}
}

func TestNew_VPCConnections(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	conf := confFor(clcdkutil.Dev)
	conf.VPCCIDR = "10.20.0.0/24"
	newGlueStack(app, conf)

	tmpl := synthTemplate(t, app, "DevTestLakeGlue")

	connections := resourcesOfType(tmpl, "AWS::Glue::Connection")
	if len(connections) != 3 {
		t.Fatalf("want 3 Glue connections, got %d", len(connections))
	}
	for _, connection := range connections {
		input := connection["Properties"].(map[string]any)["ConnectionInput"].(map[string]any)
		if input["ConnectionType"] != "NETWORK" {
			t.Errorf("ConnectionType = %v, want NETWORK", input["ConnectionType"])
		}
	}

	if got := len(resourcesOfType(tmpl, "AWS::EC2::VPC")); got != 1 {
		t.Errorf("VPC count = %d, want 1", got)
	}
	if got := len(resourcesOfType(tmpl, "AWS::EC2::Subnet")); got != 3 {
		t.Errorf("subnet count = %d, want 3", got)
	}

	for _, job := range resourcesOfType(tmpl, "AWS::Glue::Job") {
		props := job["Properties"].(map[string]any)
		list, _ := props["Connections"].(map[string]any)
		names, _ := list["Connections"].([]any)
		if len(names) != 3 {
			t.Errorf("job %v should reference 3 connections, got %v", props["Name"], names)
		}
	}
}

func TestNew_RemovalPolicyByEnvironment(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	newGlueStack(app, confFor(clcdkutil.Test))

	tmpl := synthTemplate(t, app, "TestTestLakeGlue")
	for _, bucket := range resourcesOfType(tmpl, "AWS::S3::Bucket") {
		if bucket["DeletionPolicy"] != "Retain" {
			t.Errorf("Test bucket DeletionPolicy = %v, want Retain", bucket["DeletionPolicy"])
		}
	}
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
