package testutil

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

const updateExpectedEnvVar = "BITCOMP_UPDATE_EXPECTED"

// shouldUpdateExpected checks if the environment variable specified by updateExpectedEnvVar is set to a truthy value.
func shouldUpdateExpected() bool {
	value := strings.TrimSpace(os.Getenv(updateExpectedEnvVar))
	if value == "" {
		return false
	}

	b, err := strconv.ParseBool(value)
	return err == nil && b
}

// CompareWithExpected fails the test with a unified diff when output differs
// from the contents of expectedFile. With BITCOMP_UPDATE_EXPECTED set the
// file is rewritten instead.
func CompareWithExpected(t *testing.T, output []byte, expectedFile string) {
	t.Helper()

	if shouldUpdateExpected() {
		if err := os.WriteFile(expectedFile, output, 0644); err != nil {
			t.Fatalf("Failed to update expected file %s: %v", expectedFile, err)
		}
		t.Logf("Updated expected file: %s", expectedFile)
		return
	}

	expected, err := os.ReadFile(expectedFile)
	if err != nil {
		t.Fatalf("Failed to read expected file %s: %v", expectedFile, err)
	}

	// First, a simple and fast check to see if they are identical.
	if string(output) == string(expected) {
		return
	}

	actualFile, err := os.CreateTemp(t.TempDir(), "actual_*.out")
	if err != nil {
		t.Fatalf("Failed to create temp file for actual output: %v", err)
	}
	defer actualFile.Close()

	if _, err := actualFile.Write(output); err != nil {
		t.Fatalf("Failed to write actual output to temp file: %v", err)
	}

	// The `diff` command exits with 1 if files differ. We expect this.
	diffCmd := exec.Command("diff", "-u", expectedFile, actualFile.Name())
	diffOutput, err := diffCmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			t.Errorf("output differs from %s and diff could not run: %v\ngot:\n%s", expectedFile, err, output)
			return
		}
	}

	t.Logf("\n%s", string(diffOutput))

	t.Fail()
}
