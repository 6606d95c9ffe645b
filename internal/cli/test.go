package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // glob over scenario file names without extension
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>",
		Short: "Run store scenarios",
		Long: `Run YAML scenarios against a fresh store wired to an in-process sandbox.

Each scenario dispatches commands and effects, then checks its assertions
against the recorded trace, the final state, and the token storage.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  storefront test ./scenarios
  storefront test ./scenarios --filter "cart_*"
  storefront test ./scenarios/checkout.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, path string, w io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", path))
	}

	files, err := harness.ScenarioFiles(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list scenarios", err)
	}
	files, err = filterScenarios(files, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter pattern", err)
	}

	result := harness.RunFiles(files)
	out := newFormatter(opts.RootOptions, w)

	if opts.Format == "json" {
		if err := encodeJSON(w, CLIResponse{Status: suiteStatus(result), Data: result}); err != nil {
			return err
		}
	} else {
		_ = out.Success(result, func(w io.Writer) { writeSuite(w, files, result) })
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.TotalScenarios))
	}
	return nil
}

func filterScenarios(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	var kept []string
	for _, path := range files {
		base := filepath.Base(path)
		matched, err := filepath.Match(pattern, strings.TrimSuffix(base, filepath.Ext(base)))
		if err != nil {
			return nil, err
		}
		if matched {
			kept = append(kept, path)
		}
	}
	return kept, nil
}

func suiteStatus(result *harness.SuiteResult) string {
	if result.Failed > 0 {
		return "error"
	}
	return "ok"
}

func writeSuite(w io.Writer, files []string, result *harness.SuiteResult) {
	if result.TotalScenarios == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	failed := make(map[string]harness.ScenarioFailure, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.ScenarioPath] = f
	}
	for _, path := range files {
		name := filepath.Base(path)
		if f, ok := failed[path]; ok {
			fmt.Fprintf(w, "✗ %s\n", name)
			fmt.Fprintf(w, "  %s\n", f.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s\n", name)
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.TotalScenarios)
}
