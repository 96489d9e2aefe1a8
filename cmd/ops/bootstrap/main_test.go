package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type mockSTSClient struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (m *mockSTSClient) GetCallerIdentity(ctx context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("identity check should carry a deadline")
	}
	return m.out, m.err
}

func testContext() *BootstrapContext {
	return &BootstrapContext{
		Environment: "prod",
		AWSRegion:   "eu-central-1",
		AccountID:   "123456789012",
		CallerARN:   "arn:aws:iam::123456789012:user/ops",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestValidEnvironments(t *testing.T) {
	for _, env := range []string{"dev", "staging", "prod"} {
		if !validEnvironments[env] {
			t.Errorf("%q should be valid", env)
		}
	}
	for _, env := range []string{"", "local", "test", "PROD"} {
		if validEnvironments[env] {
			t.Errorf("%q should be rejected", env)
		}
	}
}

func TestVerifyIdentity(t *testing.T) {
	bctx := testContext()
	bctx.AccountID, bctx.CallerARN = "", ""

	client := &mockSTSClient{out: &sts.GetCallerIdentityOutput{
		Account: aws.String("210987654321"),
		Arn:     aws.String("arn:aws:sts::210987654321:assumed-role/deploy/session"),
	}}
	if err := verifyIdentity(context.Background(), client, bctx); err != nil {
		t.Fatalf("verifyIdentity returned error: %v", err)
	}
	if bctx.AccountID != "210987654321" {
		t.Errorf("AccountID = %q", bctx.AccountID)
	}
	if !strings.HasSuffix(bctx.CallerARN, "deploy/session") {
		t.Errorf("CallerARN = %q", bctx.CallerARN)
	}

	boom := errors.New("ExpiredToken")
	err := verifyIdentity(context.Background(), &mockSTSClient{err: boom}, testContext())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped STS error, got %v", err)
	}
}

func TestConfirmProduction(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"  YES \n", true},
		{"y\n", false},
		{"no\n", false},
		{"", false},
	}
	for _, tt := range tests {
		out := &bytes.Buffer{}
		if got := confirmProduction(testContext(), strings.NewReader(tt.input), out); got != tt.want {
			t.Errorf("confirmProduction(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "123456789012") {
			t.Error("warning should show the account")
		}
	}
}

func TestPrintBanner(t *testing.T) {
	bctx := testContext()
	bctx.AWSProfile = "rainwatch-prod"
	out := &bytes.Buffer{}

	printBanner(bctx, out)

	for _, want := range []string{
		"RainWatch Bootstrap",
		"Environment:  prod",
		"AWS Region:   eu-central-1",
		"Profile:      rainwatch-prod",
		"SSM Prefix:   /prod/rainwatch/",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("banner missing %q", want)
		}
	}

	out.Reset()
	bctx.AWSProfile = ""
	printBanner(bctx, out)
	if strings.Contains(out.String(), "Profile:") {
		t.Error("profile line should be omitted without a profile")
	}
}
