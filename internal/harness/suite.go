package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a scenario that failed to load, run, or pass.
type ScenarioFailure struct {
	ScenarioPath string `json:"scenario_path"`
	Scenario     string `json:"scenario,omitempty"`
	Error        string `json:"error"`
}

// ScenarioFiles lists the scenario files at path. A file path is returned
// as-is; a directory yields its *.yaml and *.yml files in name order.
func ScenarioFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// RunFiles loads and runs every scenario and collects the outcomes.
// A scenario that fails to load counts as failed; the rest still run.
func RunFiles(paths []string) *SuiteResult {
	result := &SuiteResult{}

	for _, path := range paths {
		result.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("failed to load scenario: %v", err),
			})
			continue
		}

		runResult, err := Run(scenario)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Scenario:     scenario.Name,
				Error:        fmt.Sprintf("scenario execution failed: %v", err),
			})
			continue
		}

		if !runResult.Pass {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Scenario:     scenario.Name,
				Error:        fmt.Sprintf("scenario assertions failed: %v", runResult.Errors),
			})
			continue
		}

		result.Passed++
	}

	return result
}
