package terminal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsInteractive(t *testing.T) {
	// Depends on how the test binary was started; it must not panic.
	_ = IsInteractive()
}

func TestIsTerminalRejectsFilesAndNil(t *testing.T) {
	if IsTerminal(nil) {
		t.Fatal("nil file is not a terminal")
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Fatal("regular file is not a terminal")
	}
}
