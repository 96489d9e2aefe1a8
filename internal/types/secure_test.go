package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

const testSecret = "owm-api-key-12345"

func TestSecretString_Redacted(t *testing.T) {
	s := SecretString(testSecret)

	for _, out := range []string{s.String(), fmt.Sprintf("%s", s), fmt.Sprintf("%v", s)} {
		if strings.Contains(out, testSecret) {
			t.Errorf("formatted output leaked the raw secret: %q", out)
		}
		if out != redactedPlaceholder {
			t.Errorf("got %q, want %q", out, redactedPlaceholder)
		}
	}
}

func TestSecretString_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Key SecretString `json:"key"`
	}{Key: SecretString(testSecret)})
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}
	if strings.Contains(string(data), testSecret) {
		t.Errorf("JSON leaked the raw secret: %s", data)
	}
	if string(data) != `{"key":"***REDACTED***"}` {
		t.Errorf("JSON = %s", data)
	}
}

func TestSecretString_Unmask(t *testing.T) {
	if got := SecretString(testSecret).Unmask(); got != testSecret {
		t.Errorf("Unmask() = %q, want %q", got, testSecret)
	}
}
