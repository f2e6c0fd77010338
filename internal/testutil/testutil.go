package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes an executable /bin/sh script with body and returns its path.
// t is the active test; dir is the output directory; name is the executable file name.
func WriteScript(t *testing.T, dir string, name string, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := []byte("#!/bin/sh\n" + body + "\n")
	if err := os.WriteFile(path, content, 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// WriteStubWithExit writes an executable stub that exits with the provided code.
// t is the active test; dir is the output directory; name is the executable file name.
func WriteStubWithExit(t *testing.T, dir string, name string, exitCode int) string {
	t.Helper()
	return WriteScript(t, dir, name, fmt.Sprintf("exit %d", exitCode))
}

// WriteVersionStub writes a fake PlatformIO executable that prints version
// the way `platformio --version` does.
func WriteVersionStub(t *testing.T, dir string, name string, version string) string {
	t.Helper()
	return WriteScript(t, dir, name, fmt.Sprintf("echo \"PlatformIO Core, version %s\"", version))
}

// WriteRecorderStub writes a stub that appends its arguments as one line to logPath.
// When sleepSeconds is positive the stub sleeps afterwards, standing in for a
// long-running monitor.
func WriteRecorderStub(t *testing.T, dir string, name string, logPath string, sleepSeconds int) string {
	t.Helper()
	body := fmt.Sprintf("echo \"$@\" >> %q", logPath)
	if sleepSeconds > 0 {
		body += fmt.Sprintf("\nexec sleep %d", sleepSeconds)
	}
	return WriteScript(t, dir, name, body)
}
