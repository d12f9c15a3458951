// Package support holds the shared state and step definitions for the
// CLI feature tests. Commands run in-process against the cobra tree so
// the suite needs no prebuilt binary.
package support

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// TestContext holds the state for one scenario.
type TestContext struct {
	// Command execution state
	LastCommand string
	LastOutput  string
	LastError   error

	// Scenario workspace; commands run with this as working directory.
	TempDir     string
	originalDir string
}

// NewTestContext creates a scenario workspace and remembers the original
// working directory so Cleanup can restore it.
func NewTestContext() (*TestContext, error) {
	originalDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "fieldscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir:     tempDir,
		originalDir: originalDir,
	}, nil
}

// Cleanup restores the working directory and removes scenario artifacts.
func (testCtx *TestContext) Cleanup() error {
	if err := os.Chdir(testCtx.originalDir); err != nil {
		return fmt.Errorf("failed to restore working directory: %w", err)
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		return fmt.Errorf("failed to remove temp directory: %w", err)
	}
	return nil
}

// runCaptured executes fn with os.Stdout and os.Stderr redirected into the
// returned string. Parts of the CLI write straight to the process streams,
// so capturing the cobra writers alone is not enough.
func runCaptured(fn func(out io.Writer) error) (string, error) {
	origStdout, origStderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("failed to create capture pipe: %w", err)
	}
	os.Stdout, os.Stderr = w, w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := fn(w)

	os.Stdout, os.Stderr = origStdout, origStderr
	_ = w.Close()
	captured := <-done
	_ = r.Close()

	return captured, runErr
}

// splitArgs tokenizes a command line on whitespace. Feature files keep
// arguments simple, so no quoting support is needed.
func splitArgs(commandLine string) []string {
	return strings.Fields(commandLine)
}
