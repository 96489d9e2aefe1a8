package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// mockSSMClient records calls and delegates to optional function fields.
type mockSSMClient struct {
	getParameterFn func(ctx context.Context, input *ssm.GetParameterInput) (*ssm.GetParameterOutput, error)
	putParameterFn func(ctx context.Context, input *ssm.PutParameterInput) (*ssm.PutParameterOutput, error)

	getCalls []*ssm.GetParameterInput
	putCalls []*ssm.PutParameterInput
}

func (m *mockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	m.getCalls = append(m.getCalls, params)
	if m.getParameterFn != nil {
		return m.getParameterFn(ctx, params)
	}
	return &ssm.GetParameterOutput{}, nil
}

func (m *mockSSMClient) PutParameter(ctx context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	m.putCalls = append(m.putCalls, params)
	if m.putParameterFn != nil {
		return m.putParameterFn(ctx, params)
	}
	return &ssm.PutParameterOutput{Version: 1}, nil
}

func newTestSSMManager(mock *mockSSMClient, env string) (*SSMManager, *bytes.Buffer) {
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewSSMManagerWithClient(mock, env, logger), logs
}

func notFound(context.Context, *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
	return nil, &ssmtypes.ParameterNotFound{Message: aws.String("not found")}
}

func TestSSMPath(t *testing.T) {
	tests := []struct {
		env, key, want string
	}{
		{"dev", "openweather/key", "/dev/rainwatch/openweather/key"},
		{"prod", "aws/sqs_transitions", "/prod/rainwatch/aws/sqs_transitions"},
	}
	for _, tt := range tests {
		mgr, _ := newTestSSMManager(&mockSSMClient{}, tt.env)
		if got := mgr.SSMPath(tt.key); got != tt.want {
			t.Errorf("SSMPath(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestParameterExists(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := &mockSSMClient{}
		mgr, _ := newTestSSMManager(mock, "dev")
		exists, err := mgr.ParameterExists(context.Background(), "/dev/rainwatch/openweather/key")
		if err != nil || !exists {
			t.Fatalf("ParameterExists = %v, %v; want true, nil", exists, err)
		}
		if aws.ToBool(mock.getCalls[0].WithDecryption) {
			t.Error("existence check should not request decryption")
		}
	})

	t.Run("not found", func(t *testing.T) {
		mgr, _ := newTestSSMManager(&mockSSMClient{getParameterFn: notFound}, "dev")
		exists, err := mgr.ParameterExists(context.Background(), "/dev/rainwatch/x")
		if err != nil || exists {
			t.Fatalf("ParameterExists = %v, %v; want false, nil", exists, err)
		}
	})

	t.Run("other error", func(t *testing.T) {
		boom := errors.New("access denied")
		mgr, _ := newTestSSMManager(&mockSSMClient{
			getParameterFn: func(context.Context, *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) { return nil, boom },
		}, "dev")
		_, err := mgr.ParameterExists(context.Background(), "/dev/rainwatch/x")
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}

func TestPutSecretNeverLogsValue(t *testing.T) {
	mock := &mockSSMClient{}
	mgr, logs := newTestSSMManager(mock, "dev")

	const secret = "0123456789abcdef0123456789abcdef"
	if err := mgr.PutSecret(context.Background(), "/dev/rainwatch/openweather/key", secret, false); err != nil {
		t.Fatalf("PutSecret returned error: %v", err)
	}

	if len(mock.putCalls) != 1 {
		t.Fatalf("expected 1 put call, got %d", len(mock.putCalls))
	}
	put := mock.putCalls[0]
	if put.Type != ssmtypes.ParameterTypeSecureString {
		t.Errorf("Type = %q, want SecureString", put.Type)
	}
	if aws.ToBool(put.Overwrite) {
		t.Error("Overwrite should be false")
	}
	if strings.Contains(logs.String(), secret) {
		t.Error("secret value leaked into logs")
	}
}

func TestPutStringOverwrites(t *testing.T) {
	mock := &mockSSMClient{}
	mgr, _ := newTestSSMManager(mock, "dev")

	if err := mgr.PutString(context.Background(), "/dev/rainwatch/observability/metric_namespace", "RainWatch"); err != nil {
		t.Fatalf("PutString returned error: %v", err)
	}
	put := mock.putCalls[0]
	if put.Type != ssmtypes.ParameterTypeString || !aws.ToBool(put.Overwrite) {
		t.Errorf("unexpected put input: type=%q overwrite=%v", put.Type, aws.ToBool(put.Overwrite))
	}
}

func TestPutParameterValidation(t *testing.T) {
	mgr, _ := newTestSSMManager(&mockSSMClient{}, "dev")
	if err := mgr.PutString(context.Background(), "", "v"); err == nil {
		t.Error("expected error for empty path")
	}
	if err := mgr.PutString(context.Background(), "/dev/rainwatch/x", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestPutSecretAlreadyExists(t *testing.T) {
	mgr, _ := newTestSSMManager(&mockSSMClient{
		putParameterFn: func(context.Context, *ssm.PutParameterInput) (*ssm.PutParameterOutput, error) {
			return nil, &ssmtypes.ParameterAlreadyExists{Message: aws.String("exists")}
		},
	}, "dev")

	err := mgr.PutSecret(context.Background(), "/dev/rainwatch/openweather/key", "v", false)
	var exists *ssmtypes.ParameterAlreadyExists
	if !errors.As(err, &exists) {
		t.Errorf("expected ParameterAlreadyExists, got %v", err)
	}
}

func TestGetParameterValue(t *testing.T) {
	mock := &mockSSMClient{
		getParameterFn: func(_ context.Context, in *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
			return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Name: in.Name, Value: aws.String("plain")}}, nil
		},
	}
	mgr, _ := newTestSSMManager(mock, "dev")

	value, ok, err := mgr.GetParameterValue(context.Background(), "/dev/rainwatch/openweather/key", true)
	if err != nil || !ok || value != "plain" {
		t.Fatalf("GetParameterValue = %q, %v, %v", value, ok, err)
	}
	if !aws.ToBool(mock.getCalls[0].WithDecryption) {
		t.Error("expected decryption to be requested")
	}

	missing, _ := newTestSSMManager(&mockSSMClient{getParameterFn: notFound}, "dev")
	_, ok, err = missing.GetParameterValue(context.Background(), "/dev/rainwatch/x", false)
	if err != nil || ok {
		t.Errorf("missing parameter = ok %v, err %v; want false, nil", ok, err)
	}
}
