//nolint:paralleltest // this test doesn't need parallel execution
package clcdkutil_test

import (
	"strings"
	"testing"

	"github.com/aws/jsii-runtime-go"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
	"github.com/cockroachdb/errors"
)

func testMappings() clcdkutil.Mappings {
	return clcdkutil.Mappings{
		clcdkutil.Deploy: {
			Account:         "111111111111",
			Region:          "us-east-2",
			LogicalPrefix:   "TestLake",
			ResourcePrefix:  "testlake",
			RepositoryOwner: "hernandj",
			Repository:      "mock-github-repository",
			ConnectionARN:   "arn:aws:codestar-connections:us-east-2:111111111111:connection/12345678-abcd-1234-abcd-123456789012",
		},
		clcdkutil.Dev: {
			Account: "222222222222",
			Region:  "us-east-2",
			VPCCIDR: "10.20.0.0/24",
			Lineage: jsii.Bool(true),
		},
		clcdkutil.Test: {
			Account: "333333333333",
			Region:  "us-east-2",
		},
		clcdkutil.Prod: {
			Account: "444444444444",
			Region:  "us-east-2",
		},
	}
}

func TestResolve_Defaults(t *testing.T) {
	conf, err := clcdkutil.Resolve(testMappings(), clcdkutil.Dev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conf.Environment != clcdkutil.Dev {
		t.Errorf("Environment = %q, want %q", conf.Environment, clcdkutil.Dev)
	}
	if conf.Account != "222222222222" {
		t.Errorf("Account = %q, want environment override", conf.Account)
	}
	if conf.LogicalPrefix != "TestLake" {
		t.Errorf("LogicalPrefix = %q, want inherited %q", conf.LogicalPrefix, "TestLake")
	}
	if conf.ResourcePrefix != "testlake" {
		t.Errorf("ResourcePrefix = %q, want inherited %q", conf.ResourcePrefix, "testlake")
	}
	if conf.Repository != "mock-github-repository" {
		t.Errorf("Repository = %q, want inherited repository", conf.Repository)
	}
	if conf.Branch != "develop" {
		t.Errorf("Branch = %q, want built-in default %q", conf.Branch, "develop")
	}
	if conf.GlueVersion != clcdkutil.DefaultGlueVersion {
		t.Errorf("GlueVersion = %q, want %q", conf.GlueVersion, clcdkutil.DefaultGlueVersion)
	}
	if conf.SparkWorkerType != clcdkutil.DefaultSparkWorkerType {
		t.Errorf("SparkWorkerType = %q, want %q", conf.SparkWorkerType, clcdkutil.DefaultSparkWorkerType)
	}
	if !conf.Lineage {
		t.Error("Lineage = false, want true")
	}
	if !conf.HasVPC() {
		t.Error("HasVPC() = false, want true")
	}
	if conf.RepositoryFullName() != "hernandj/mock-github-repository" {
		t.Errorf("RepositoryFullName() = %q", conf.RepositoryFullName())
	}
}

func TestResolve_Overrides(t *testing.T) {
	m := testMappings()

	deploy := m[clcdkutil.Deploy]
	deploy.GlueVersion = "3.0"
	deploy.Lineage = jsii.Bool(true)
	m[clcdkutil.Deploy] = deploy

	prod := m[clcdkutil.Prod]
	prod.GlueVersion = "4.0"
	prod.SparkWorkerType = "G.2X"
	prod.Branch = "release"
	prod.Lineage = jsii.Bool(false)
	m[clcdkutil.Prod] = prod

	conf, err := clcdkutil.Resolve(m, clcdkutil.Prod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.GlueVersion != "4.0" {
		t.Errorf("GlueVersion = %q, want environment override", conf.GlueVersion)
	}
	if conf.SparkWorkerType != "G.2X" {
		t.Errorf("SparkWorkerType = %q, want environment override", conf.SparkWorkerType)
	}
	if conf.Branch != "release" {
		t.Errorf("Branch = %q, want mapping to win over built-in default", conf.Branch)
	}
	if conf.Lineage {
		t.Error("Lineage = true, want explicit false override to win over inherited true")
	}

	test, err := clcdkutil.Resolve(m, clcdkutil.Test)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if test.GlueVersion != "3.0" {
		t.Errorf("GlueVersion = %q, want inherited %q", test.GlueVersion, "3.0")
	}
	if !test.Lineage {
		t.Error("Lineage = false, want inherited true")
	}
}

func TestResolve_DeployEnvironment(t *testing.T) {
	conf, err := clcdkutil.Resolve(testMappings(), clcdkutil.Deploy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Environment != clcdkutil.Deploy {
		t.Errorf("Environment = %q, want %q", conf.Environment, clcdkutil.Deploy)
	}
	if conf.Account != "111111111111" {
		t.Errorf("Account = %q, want %q", conf.Account, "111111111111")
	}
	if conf.Branch != "" {
		t.Errorf("Branch = %q, want empty: Deploy has no default branch", conf.Branch)
	}
	if conf.GlueVersion != clcdkutil.DefaultGlueVersion {
		t.Errorf("GlueVersion = %q, want %q", conf.GlueVersion, clcdkutil.DefaultGlueVersion)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name        string
		env         clcdkutil.Environment
		mutate      func(m clcdkutil.Mappings)
		wantMark    error
		errContains []string
	}{
		{
			name:        "unknown environment",
			env:         clcdkutil.Environment("Staging"),
			mutate:      func(clcdkutil.Mappings) {},
			wantMark:    clcdkutil.ErrUnknownEnvironment,
			errContains: []string{"Staging", "Dev", "Prod"},
		},
		{
			name: "malformed account id",
			env:  clcdkutil.Dev,
			mutate: func(m clcdkutil.Mappings) {
				dev := m[clcdkutil.Dev]
				dev.Account = "12345"
				m[clcdkutil.Dev] = dev
			},
			wantMark:    clcdkutil.ErrInvalidConfig,
			errContains: []string{"Account", "12-digit"},
		},
		{
			name: "unknown region",
			env:  clcdkutil.Dev,
			mutate: func(m clcdkutil.Mappings) {
				dev := m[clcdkutil.Dev]
				dev.Region = "us-moon-1"
				m[clcdkutil.Dev] = dev
			},
			wantMark:    clcdkutil.ErrInvalidConfig,
			errContains: []string{"Region", "not a known AWS region"},
		},
		{
			name: "malformed vpc cidr",
			env:  clcdkutil.Dev,
			mutate: func(m clcdkutil.Mappings) {
				dev := m[clcdkutil.Dev]
				dev.VPCCIDR = "10.20.0.0/99"
				m[clcdkutil.Dev] = dev
			},
			wantMark:    clcdkutil.ErrInvalidConfig,
			errContains: []string{"VPCCIDR", "CIDR"},
		},
		{
			name: "repository without owner and connection",
			env:  clcdkutil.Test,
			mutate: func(m clcdkutil.Mappings) {
				deploy := m[clcdkutil.Deploy]
				deploy.RepositoryOwner = ""
				deploy.ConnectionARN = ""
				m[clcdkutil.Deploy] = deploy
			},
			wantMark: clcdkutil.ErrInvalidConfig,
			errContains: []string{
				"RepositoryOwner is required when Repository is set",
				"ConnectionARN is required when Repository is set",
			},
		},
		{
			name: "malformed connection arn",
			env:  clcdkutil.Test,
			mutate: func(m clcdkutil.Mappings) {
				deploy := m[clcdkutil.Deploy]
				deploy.ConnectionARN = "arn:aws:iam::111111111111:role/connection"
				m[clcdkutil.Deploy] = deploy
			},
			wantMark:    clcdkutil.ErrInvalidConfig,
			errContains: []string{"ConnectionARN", "CodeStar connections ARN"},
		},
		{
			name: "missing prefixes",
			env:  clcdkutil.Prod,
			mutate: func(m clcdkutil.Mappings) {
				deploy := m[clcdkutil.Deploy]
				deploy.LogicalPrefix = ""
				deploy.ResourcePrefix = ""
				m[clcdkutil.Deploy] = deploy
			},
			wantMark: clcdkutil.ErrInvalidConfig,
			errContains: []string{
				"LogicalPrefix is required",
				"ResourcePrefix is required",
			},
		},
		{
			name: "malformed prefixes",
			env:  clcdkutil.Prod,
			mutate: func(m clcdkutil.Mappings) {
				deploy := m[clcdkutil.Deploy]
				deploy.LogicalPrefix = "testLake"
				deploy.ResourcePrefix = "TestLake"
				m[clcdkutil.Deploy] = deploy
			},
			wantMark:    clcdkutil.ErrInvalidConfig,
			errContains: []string{"uppercase letter", "lowercase alphanumeric"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMappings()
			tt.mutate(m)

			_, err := clcdkutil.Resolve(m, tt.env)
			if err == nil {
				t.Fatal("expected error but got nil")
			}
			if !errors.Is(err, tt.wantMark) {
				t.Errorf("error %v is not marked with %v", err, tt.wantMark)
			}
			for _, contains := range tt.errContains {
				if !strings.Contains(err.Error(), contains) {
					t.Errorf("error %q should contain %q", err.Error(), contains)
				}
			}
		})
	}
}

func TestResolveAll(t *testing.T) {
	configs, err := clcdkutil.ResolveAll(testMappings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(configs) != 4 {
		t.Fatalf("len(configs) = %d, want 4", len(configs))
	}
	for _, env := range clcdkutil.TargetEnvironments() {
		conf, ok := configs[env]
		if !ok {
			t.Fatalf("missing config for %s", env)
		}
		if conf.Environment != env {
			t.Errorf("configs[%s].Environment = %q", env, conf.Environment)
		}
		if conf.LogicalPrefix != "TestLake" {
			t.Errorf("configs[%s].LogicalPrefix = %q", env, conf.LogicalPrefix)
		}
	}
}

func TestResolveAll_MissingTarget(t *testing.T) {
	m := testMappings()
	delete(m, clcdkutil.Test)

	_, err := clcdkutil.ResolveAll(m)
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, clcdkutil.ErrUnknownEnvironment) {
		t.Errorf("error %v is not marked with ErrUnknownEnvironment", err)
	}
	if !strings.Contains(err.Error(), "Test") {
		t.Errorf("error %q should name the missing environment", err.Error())
	}
}
