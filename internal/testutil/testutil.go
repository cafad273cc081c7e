// Package testutil provides testing utilities for sparcli tests.
package testutil

import (
	"bytes"
	"os"
	"os/exec"
	"testing"
)

// HelperEnv is the environment variable that marks a re-executed test
// binary as a helper process. Its value names the scenario to run.
const HelperEnv = "SPARCLI_TEST_HELPER"

// HelperScenario returns the scenario requested for this process, or ""
// when running as a normal test.
func HelperScenario() string {
	return os.Getenv(HelperEnv)
}

// RunHelper re-executes the current test binary so that only testName runs,
// with HelperEnv set to scenario. Tests that redirect the real standard
// streams run there, keeping the parent's output untouched. It returns what
// the helper wrote to stdout and stderr and fails the test if the helper
// exits non-zero.
func RunHelper(t *testing.T, testName, scenario string) (string, string) {
	t.Helper()

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to locate test binary: %v", err)
	}

	cmd := exec.Command(exe, "-test.run=^"+testName+"$", "-test.count=1")
	cmd.Env = append(os.Environ(), HelperEnv+"="+scenario)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("helper %s/%s failed: %v\nstdout:\n%s\nstderr:\n%s",
			testName, scenario, err, stdout.String(), stderr.String())
	}
	return stdout.String(), stderr.String()
}

// ExitHelper terminates a helper process. Deferred calls have already run
// by the time the scenario returns, so it is safe to skip the test
// framework's own summary output, which would otherwise pollute stdout.
func ExitHelper(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("helper error: " + err.Error() + "\n")
		os.Exit(1)
	}
	os.Exit(0)
}
