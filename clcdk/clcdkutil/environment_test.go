package clcdkutil_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/claimslakehq/clapp/clcdk/clcdkutil"
	"github.com/cockroachdb/errors"
)

func TestEnvironmentClasses(t *testing.T) {
	tests := []struct {
		env       clcdkutil.Environment
		durable   bool
		policy    awscdk.RemovalPolicy
		retention awslogs.RetentionDays
		branch    string
	}{
		{clcdkutil.Deploy, false, awscdk.RemovalPolicy_DESTROY, awslogs.RetentionDays_ONE_MONTH, ""},
		{clcdkutil.Dev, false, awscdk.RemovalPolicy_DESTROY, awslogs.RetentionDays_ONE_MONTH, "develop"},
		{clcdkutil.Test, true, awscdk.RemovalPolicy_RETAIN, awslogs.RetentionDays_SIX_MONTHS, "test"},
		{clcdkutil.Prod, true, awscdk.RemovalPolicy_RETAIN, awslogs.RetentionDays_SIX_MONTHS, "main"},
	}

	for _, tt := range tests {
		t.Run(string(tt.env), func(t *testing.T) {
			if got := tt.env.Durable(); got != tt.durable {
				t.Errorf("Durable() = %v, want %v", got, tt.durable)
			}
			if got := tt.env.RemovalPolicy(); got != tt.policy {
				t.Errorf("RemovalPolicy() = %v, want %v", got, tt.policy)
			}
			if got := tt.env.LogRetention(); got != tt.retention {
				t.Errorf("LogRetention() = %v, want %v", got, tt.retention)
			}
			if got := tt.env.DefaultBranch(); got != tt.branch {
				t.Errorf("DefaultBranch() = %q, want %q", got, tt.branch)
			}
		})
	}
}

func TestTargetEnvironments(t *testing.T) {
	got := clcdkutil.TargetEnvironments()
	want := []clcdkutil.Environment{clcdkutil.Dev, clcdkutil.Test, clcdkutil.Prod}
	if len(got) != len(want) {
		t.Fatalf("TargetEnvironments() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TargetEnvironments()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		input   string
		want    clcdkutil.Environment
		wantErr bool
	}{
		{"Dev", clcdkutil.Dev, false},
		{"dev", clcdkutil.Dev, false},
		{"PROD", clcdkutil.Prod, false},
		{"deploy", clcdkutil.Deploy, false},
		{"staging", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := clcdkutil.ParseEnvironment(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				if !errors.Is(err, clcdkutil.ErrUnknownEnvironment) {
					t.Errorf("error %v is not marked with ErrUnknownEnvironment", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseEnvironment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
