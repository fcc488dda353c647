package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the listicle_agent binary for testing
func getBinaryPath(t *testing.T) string {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", "listicle_agent")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/listicle_agent ./cmd/listicle_agent'", binaryPath)
	}

	return binaryPath
}

// runBinary runs the CLI with a clean provider environment.
func runBinary(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinaryPath(t), args...)
	cmd.Env = append([]string{"PATH=" + os.Getenv("PATH"), "HOME=" + t.TempDir()}, env...)
	cmd.Dir = t.TempDir()
	output, err := cmd.CombinedOutput()
	return string(output), err
}
