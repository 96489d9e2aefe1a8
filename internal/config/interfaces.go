package config

import "context"

// SecretProvider resolves secret values by key. SSMProvider serves deployed
// environments; EnvVarProvider serves local development and tests.
type SecretProvider interface {
	// GetParametersBatch returns key -> plaintext for every key it could
	// resolve. Unresolved keys are omitted from the map.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
