package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ParameterType selects the SSM storage type.
type ParameterType int

const (
	ParamSecureString ParameterType = iota
	ParamString
)

// InputSource describes how a step obtains its value.
type InputSource int

const (
	SourcePrompt InputSource = iota
	SourceFixed
)

// BootstrapStep is one SSM parameter to populate.
type BootstrapStep struct {
	HumanLabel string

	// SSMCategoryKey becomes /{env}/rainwatch/{SSMCategoryKey}.
	SSMCategoryKey string

	// EnvVar is the configuration variable the parameter backs. The service
	// reads it through EnvVar + "_SSM_PARAM".
	EnvVar string

	ParamType  ParameterType
	Source     InputSource
	FixedValue string
	Prompt     string

	// ValidateFn checks prompted input; nil accepts anything.
	ValidateFn func(ctx context.Context, input string) ValidationResult

	// IsSecret masks the input on a terminal.
	IsSecret bool

	// Optional steps are skipped on empty input without confirmation.
	Optional bool

	Phase string
}

// maxRetries caps validation failures per step.
const maxRetries = 5

// errSkipped marks a step the operator chose to skip.
var errSkipped = errors.New("parameter skipped by operator")

// BuildInventory returns the ordered RainWatch parameters.
func BuildInventory(v *Validator) []BootstrapStep {
	return []BootstrapStep{
		{
			HumanLabel:     "OpenWeatherMap API Key",
			SSMCategoryKey: "openweather/key",
			EnvVar:         "OPENWEATHER_API_KEY",
			ParamType:      ParamSecureString,
			Source:         SourcePrompt,
			Prompt: `1. Sign in at https://home.openweathermap.org.
   2. Open "API keys" and copy an active key.
   3. Paste it here:`,
			ValidateFn: v.ValidateOpenWeatherKey,
			IsSecret:   true,
			Phase:      "Weather Provider",
		},
		{
			HumanLabel:     "Transition Queue URL (optional)",
			SSMCategoryKey: "aws/sqs_transitions",
			EnvVar:         "SQS_TRANSITIONS",
			ParamType:      ParamString,
			Source:         SourcePrompt,
			Prompt:         `Paste the SQS queue URL that should receive rain-state transitions (or press Enter to skip):`,
			ValidateFn:     v.ValidateQueueURL,
			Optional:       true,
			Phase:          "Messaging",
		},
		{
			HumanLabel:     "Metric Namespace",
			SSMCategoryKey: "observability/metric_namespace",
			EnvVar:         "METRIC_NAMESPACE",
			ParamType:      ParamString,
			Source:         SourceFixed,
			FixedValue:     "RainWatch",
			Phase:          "Observability",
		},
	}
}

// BootstrapRunner walks the inventory, prompting and writing to SSM.
type BootstrapRunner struct {
	SSM       *SSMManager
	Validator *Validator
	Stdin     io.Reader
	Stderr    io.Writer

	// SkipOptional auto-skips optional steps. Set by --skip-optional.
	SkipOptional bool

	// scanner is shared so buffered reads are not lost between prompts.
	scanner *bufio.Scanner

	inventoryOverride []BootstrapStep
}

// NewBootstrapRunner creates a runner with production dependencies.
func NewBootstrapRunner(bctx *BootstrapContext) *BootstrapRunner {
	return &BootstrapRunner{
		SSM:       NewSSMManager(bctx),
		Validator: NewValidator(),
		Stdin:     os.Stdin,
		Stderr:    os.Stderr,
	}
}

func (r *BootstrapRunner) inventory() []BootstrapStep {
	if r.inventoryOverride != nil {
		return r.inventoryOverride
	}
	return BuildInventory(r.Validator)
}

// Run processes every step in order and prints a summary.
func (r *BootstrapRunner) Run(ctx context.Context) error {
	inventory := r.inventory()

	var currentPhase string
	var results []stepResult

	for i, step := range inventory {
		if step.Phase != currentPhase {
			currentPhase = step.Phase
			r.printPhaseHeader(currentPhase)
		}

		fmt.Fprintf(r.Stderr, "\n[%d/%d] %s\n", i+1, len(inventory), step.HumanLabel)

		result, err := r.processStep(ctx, step)
		if err != nil {
			return fmt.Errorf("step %q failed: %w", step.HumanLabel, err)
		}
		results = append(results, result)
	}

	r.printSummary(results)
	return nil
}

type stepResult struct {
	Label  string
	EnvVar string
	Action string // "written", "skipped", "overwritten"
	Path   string
}

func (r *BootstrapRunner) processStep(ctx context.Context, step BootstrapStep) (stepResult, error) {
	path := r.SSM.SSMPath(step.SSMCategoryKey)
	result := stepResult{Label: step.HumanLabel, EnvVar: step.EnvVar, Path: path}

	if step.Optional && r.SkipOptional {
		fmt.Fprintf(r.Stderr, "  Skipped (--skip-optional)\n")
		result.Action = "skipped"
		return result, nil
	}

	exists, err := r.SSM.ParameterExists(ctx, path)
	if err != nil {
		return result, fmt.Errorf("checking existence of %s: %w", path, err)
	}
	if exists {
		fmt.Fprintf(r.Stderr, "  Parameter already exists: %s\n", path)
		choice, err := r.promptSkipOrOverwrite()
		if err != nil {
			return result, fmt.Errorf("reading skip/overwrite choice: %w", err)
		}
		if choice == "skip" {
			fmt.Fprintf(r.Stderr, "  Skipped.\n")
			result.Action = "skipped"
			return result, nil
		}
	}

	var value string
	switch step.Source {
	case SourcePrompt:
		value, err = r.promptAndValidate(ctx, step)
		if errors.Is(err, errSkipped) {
			fmt.Fprintf(r.Stderr, "  Skipped.\n")
			result.Action = "skipped"
			return result, nil
		}
		if err != nil {
			return result, err
		}
	case SourceFixed:
		value = step.FixedValue
		fmt.Fprintf(r.Stderr, "  Using fixed value: %s\n", value)
	}

	if step.ParamType == ParamSecureString {
		err = r.SSM.PutSecret(ctx, path, value, exists)
	} else {
		err = r.SSM.PutString(ctx, path, value)
	}
	if err != nil {
		return result, fmt.Errorf("writing SSM parameter %s: %w", path, err)
	}

	result.Action = "written"
	if exists {
		result.Action = "overwritten"
	}
	fmt.Fprintf(r.Stderr, "  Stored: %s\n", path)
	return result, nil
}

// promptAndValidate reads input until it validates or maxRetries failures
// accumulate. Secrets are acknowledged by length only.
func (r *BootstrapRunner) promptAndValidate(ctx context.Context, step BootstrapStep) (string, error) {
	fmt.Fprintf(r.Stderr, "\n  %s\n\n", step.Prompt)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		var input string
		var err error
		if step.IsSecret {
			input, err = r.readSecretInput("  > ")
		} else {
			input, err = r.readInput("  > ")
		}
		if err != nil {
			return "", fmt.Errorf("reading input for %s: %w", step.HumanLabel, err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			if step.Optional {
				return "", errSkipped
			}
			choice, choiceErr := r.promptSkipOrRetry()
			if choiceErr != nil {
				return "", fmt.Errorf("reading skip/retry choice for %s: %w", step.HumanLabel, choiceErr)
			}
			if choice == "skip" {
				return "", errSkipped
			}
			attempt--
			continue
		}

		if step.IsSecret {
			fmt.Fprintf(r.Stderr, "  Received %d chars.\n", len(input))
		}

		if step.ValidateFn != nil {
			vr := step.ValidateFn(ctx, input)
			if !vr.Valid {
				fmt.Fprintf(r.Stderr, "  Validation failed: %s\n", vr.Message)
				if attempt < maxRetries {
					fmt.Fprintf(r.Stderr, "  Try again (%d/%d).\n", attempt, maxRetries)
				}
				continue
			}
			fmt.Fprintf(r.Stderr, "  Validated: %s\n", vr.Message)
		}

		return input, nil
	}

	return "", fmt.Errorf("maximum retries (%d) exceeded for %s", maxRetries, step.HumanLabel)
}

func (r *BootstrapRunner) scanLine() (string, error) {
	if r.scanner == nil {
		r.scanner = bufio.NewScanner(r.Stdin)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *BootstrapRunner) readInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)
	return r.scanLine()
}

// readSecretInput disables echo when stdin is a terminal and falls back to
// line reading for piped input.
func (r *BootstrapRunner) readSecretInput(prompt string) (string, error) {
	fmt.Fprint(r.Stderr, prompt)

	if f, ok := r.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret input: %w", err)
		}
		return string(secret), nil
	}
	return r.scanLine()
}

func (r *BootstrapRunner) promptSkipOrOverwrite() (string, error) {
	return r.promptChoice("  [S]kip or [O]verwrite? ", map[string]string{
		"s": "skip", "skip": "skip", "o": "overwrite", "overwrite": "overwrite",
	}, "  Please enter 'S' to skip or 'O' to overwrite.\n")
}

func (r *BootstrapRunner) promptSkipOrRetry() (string, error) {
	return r.promptChoice("  No input received. [S]kip this parameter or [R]etry? ", map[string]string{
		"s": "skip", "skip": "skip", "r": "retry", "retry": "retry",
	}, "  Please enter 'S' to skip or 'R' to retry.\n")
}

func (r *BootstrapRunner) promptChoice(prompt string, choices map[string]string, help string) (string, error) {
	for {
		fmt.Fprint(r.Stderr, prompt)
		line, err := r.scanLine()
		if err != nil {
			return "", err
		}
		if choice, ok := choices[strings.TrimSpace(strings.ToLower(line))]; ok {
			return choice, nil
		}
		fmt.Fprint(r.Stderr, help)
	}
}

func (r *BootstrapRunner) printPhaseHeader(phase string) {
	fmt.Fprintf(r.Stderr, "\n============================================================\n")
	fmt.Fprintf(r.Stderr, "  Phase: %s\n", phase)
	fmt.Fprintf(r.Stderr, "============================================================\n")
}

// printSummary lists each step's action and the *_SSM_PARAM pointer the
// service needs for it.
func (r *BootstrapRunner) printSummary(results []stepResult) {
	fmt.Fprintf(r.Stderr, "\n============================================================\n")
	fmt.Fprintf(r.Stderr, "  Bootstrap Summary\n")
	fmt.Fprintf(r.Stderr, "============================================================\n")

	counts := map[string]int{}
	for _, res := range results {
		counts[res.Action]++
		fmt.Fprintf(r.Stderr, "  %-14s %s\n", "["+strings.ToUpper(res.Action)+"]", res.Label)
	}

	fmt.Fprintf(r.Stderr, "------------------------------------------------------------\n")
	fmt.Fprintf(r.Stderr, "  Total: %d parameters\n", len(results))
	fmt.Fprintf(r.Stderr, "  Written: %d | Overwritten: %d | Skipped: %d\n",
		counts["written"], counts["overwritten"], counts["skipped"])
	fmt.Fprintf(r.Stderr, "============================================================\n\n")

	fmt.Fprintf(r.Stderr, "  Set these on the service to resolve parameters from SSM:\n")
	for _, res := range results {
		if res.Action == "skipped" || res.EnvVar == "" {
			continue
		}
		fmt.Fprintf(r.Stderr, "    %s_SSM_PARAM=%s\n", res.EnvVar, res.Path)
	}
	fmt.Fprintf(r.Stderr, "\n")
}
