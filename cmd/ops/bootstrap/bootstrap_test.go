package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// newTestRunner wires a runner to a mock SSM client, a format-only
// validator, and scripted stdin.
func newTestRunner(mock *mockSSMClient, stdin string, inventory []BootstrapStep) (*BootstrapRunner, *bytes.Buffer) {
	mgr, _ := newTestSSMManager(mock, "dev")
	stderr := &bytes.Buffer{}
	return &BootstrapRunner{
		SSM:               mgr,
		Validator:         NewValidatorWithDeps(nil, ""),
		Stdin:             strings.NewReader(stdin),
		Stderr:            stderr,
		inventoryOverride: inventory,
	}, stderr
}

func putsByName(calls []*ssm.PutParameterInput) map[string]*ssm.PutParameterInput {
	out := make(map[string]*ssm.PutParameterInput, len(calls))
	for _, c := range calls {
		out[aws.ToString(c.Name)] = c
	}
	return out
}

func TestBuildInventory(t *testing.T) {
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))
	if len(inv) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(inv))
	}

	seen := make(map[string]bool)
	for _, step := range inv {
		if step.EnvVar == "" {
			t.Errorf("step %q has no EnvVar", step.HumanLabel)
		}
		if seen[step.SSMCategoryKey] {
			t.Errorf("duplicate SSM key %q", step.SSMCategoryKey)
		}
		seen[step.SSMCategoryKey] = true
		if step.Source == SourcePrompt && step.ValidateFn == nil {
			t.Errorf("prompted step %q has no validator", step.HumanLabel)
		}
	}

	if inv[0].EnvVar != "OPENWEATHER_API_KEY" || inv[0].ParamType != ParamSecureString || !inv[0].IsSecret {
		t.Errorf("first step should be the secret API key, got %+v", inv[0])
	}
	if !inv[1].Optional {
		t.Error("transition queue should be optional")
	}
	if inv[2].Source != SourceFixed || inv[2].FixedValue != "RainWatch" {
		t.Errorf("metric namespace should be fixed to RainWatch, got %+v", inv[2])
	}
}

func TestRun_FreshEnvironment(t *testing.T) {
	mock := &mockSSMClient{getParameterFn: notFound}
	runner, stderr := newTestRunner(mock, validOWMKey+"\n\n", nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	puts := putsByName(mock.putCalls)
	if len(puts) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(puts))
	}

	key := puts["/dev/rainwatch/openweather/key"]
	if key == nil || key.Type != ssmtypes.ParameterTypeSecureString || aws.ToString(key.Value) != validOWMKey {
		t.Errorf("API key not written as SecureString: %+v", key)
	}
	ns := puts["/dev/rainwatch/observability/metric_namespace"]
	if ns == nil || aws.ToString(ns.Value) != "RainWatch" {
		t.Errorf("metric namespace not written: %+v", ns)
	}
	if _, ok := puts["/dev/rainwatch/aws/sqs_transitions"]; ok {
		t.Error("empty optional queue URL should be skipped")
	}

	out := stderr.String()
	if strings.Contains(out, validOWMKey) {
		t.Error("secret echoed to stderr")
	}
	for _, want := range []string{
		"Received 32 chars.",
		"Written: 2 | Overwritten: 0 | Skipped: 1",
		"OPENWEATHER_API_KEY_SSM_PARAM=/dev/rainwatch/openweather/key",
		"METRIC_NAMESPACE_SSM_PARAM=/dev/rainwatch/observability/metric_namespace",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr missing %q", want)
		}
	}
	if strings.Contains(out, "SQS_TRANSITIONS_SSM_PARAM") {
		t.Error("skipped step should not get a pointer hint")
	}
}

func TestRun_ExistingParametersSkipped(t *testing.T) {
	mock := &mockSSMClient{}
	runner, stderr := newTestRunner(mock, "s\nskip\nS\n", nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(mock.putCalls) != 0 {
		t.Errorf("expected no writes, got %d", len(mock.putCalls))
	}
	if !strings.Contains(stderr.String(), "Skipped: 3") {
		t.Errorf("summary should count 3 skips:\n%s", stderr.String())
	}
}

func TestRun_OverwriteExistingSecret(t *testing.T) {
	mock := &mockSSMClient{}
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))[:1]
	runner, stderr := newTestRunner(mock, "x\no\n"+validOWMKey+"\n", inv)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(mock.putCalls) != 1 || !aws.ToBool(mock.putCalls[0].Overwrite) {
		t.Fatalf("expected one overwriting put, got %+v", mock.putCalls)
	}
	out := stderr.String()
	if !strings.Contains(out, "Please enter 'S' to skip or 'O' to overwrite.") {
		t.Error("invalid choice should re-prompt")
	}
	if !strings.Contains(out, "[OVERWRITTEN]") {
		t.Error("summary should show overwritten action")
	}
}

func TestRun_RetriesExceeded(t *testing.T) {
	mock := &mockSSMClient{getParameterFn: notFound}
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))[:1]
	runner, _ := newTestRunner(mock, strings.Repeat("bad-key\n", maxRetries), inv)

	err := runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "maximum retries") {
		t.Fatalf("expected retry exhaustion, got %v", err)
	}
	if len(mock.putCalls) != 0 {
		t.Error("nothing should be written after validation failures")
	}
}

func TestRun_RecoversAfterInvalidInput(t *testing.T) {
	mock := &mockSSMClient{getParameterFn: notFound}
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))[:1]
	runner, stderr := newTestRunner(mock, "nope\n"+validOWMKey+"\n", inv)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(stderr.String(), "Try again (1/5).") {
		t.Error("expected retry notice")
	}
	if len(mock.putCalls) != 1 {
		t.Errorf("expected 1 write, got %d", len(mock.putCalls))
	}
}

func TestRun_EmptyRequiredInput(t *testing.T) {
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))[:1]

	t.Run("skip", func(t *testing.T) {
		mock := &mockSSMClient{getParameterFn: notFound}
		runner, _ := newTestRunner(mock, "\ns\n", inv)
		if err := runner.Run(context.Background()); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if len(mock.putCalls) != 0 {
			t.Error("skipped step should not be written")
		}
	})

	t.Run("retry", func(t *testing.T) {
		mock := &mockSSMClient{getParameterFn: notFound}
		runner, _ := newTestRunner(mock, "\nr\n"+validOWMKey+"\n", inv)
		if err := runner.Run(context.Background()); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if len(mock.putCalls) != 1 {
			t.Errorf("expected 1 write after retry, got %d", len(mock.putCalls))
		}
	})
}

func TestRun_SkipOptionalFlag(t *testing.T) {
	mock := &mockSSMClient{getParameterFn: notFound}
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))[1:2]
	runner, stderr := newTestRunner(mock, "", inv)
	runner.SkipOptional = true

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(mock.getCalls) != 0 || len(mock.putCalls) != 0 {
		t.Error("optional step should not touch SSM")
	}
	if !strings.Contains(stderr.String(), "--skip-optional") {
		t.Error("expected skip notice")
	}
}

func TestRun_EndOfInput(t *testing.T) {
	mock := &mockSSMClient{getParameterFn: notFound}
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))[:1]
	runner, _ := newTestRunner(mock, "", inv)

	err := runner.Run(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestRun_WriteFailure(t *testing.T) {
	boom := errors.New("kms key disabled")
	mock := &mockSSMClient{
		getParameterFn: notFound,
		putParameterFn: func(context.Context, *ssm.PutParameterInput) (*ssm.PutParameterOutput, error) {
			return nil, boom
		},
	}
	inv := BuildInventory(NewValidatorWithDeps(nil, ""))[2:]
	runner, _ := newTestRunner(mock, "", inv)

	err := runner.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped put error, got %v", err)
	}
}
