package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ExportEnvConfig configures ExportEnvFile.
type ExportEnvConfig struct {
	OutputPath  string
	Environment string
	SSM         *SSMManager
	Stderr      io.Writer

	// IncludeLocalDefaults appends APP_ENV=local and other settings that
	// let the exported file run the service without AWS.
	IncludeLocalDefaults bool

	// Inventory overrides BuildInventory for tests.
	Inventory []BootstrapStep
}

// localDefaults are written after the exported parameters.
var localDefaults = map[string]string{
	"APP_ENV":        "local",
	"LOG_LEVEL":      "debug",
	"LOCATION_MODE":  "ip",
	"ENABLE_METRICS": "false",
}

// ExportEnvFile reads every inventory parameter back from SSM and writes
// them, encoded by godotenv, to OutputPath with 0600 permissions. Missing
// parameters are skipped with a notice.
func ExportEnvFile(ctx context.Context, cfg ExportEnvConfig) error {
	if cfg.SSM == nil {
		return fmt.Errorf("export requires an SSM manager")
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("export requires an output path")
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	inventory := cfg.Inventory
	if inventory == nil {
		inventory = BuildInventory(NewValidatorWithDeps(nil, ""))
	}

	values := make(map[string]string)
	for _, step := range inventory {
		if step.EnvVar == "" {
			continue
		}
		path := cfg.SSM.SSMPath(step.SSMCategoryKey)
		value, ok, err := cfg.SSM.GetParameterValue(ctx, path, step.ParamType == ParamSecureString)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", step.EnvVar, err)
		}
		if !ok {
			fmt.Fprintf(stderr, "  Not found, skipped: %s\n", path)
			continue
		}
		values[step.EnvVar] = value
	}
	exported := len(values)

	if cfg.IncludeLocalDefaults {
		for k, v := range localDefaults {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}

	body, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", cfg.OutputPath, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Exported from SSM /%s/rainwatch/ for local development.\n", cfg.Environment)
	fmt.Fprintf(&b, "# Contains secrets. Do not commit.\n")
	b.WriteString(body)
	b.WriteString("\n")

	if err := os.WriteFile(cfg.OutputPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}
	fmt.Fprintf(stderr, "  Wrote %s (%d parameters)\n", cfg.OutputPath, exported)
	return nil
}
