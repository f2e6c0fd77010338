// Package root locates the PlatformIO project that contains a directory.
package root

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// ProjectFile marks the root of a PlatformIO project.
const ProjectFile = "platformio.ini"

// FindProjectRoot walks up from start looking for ProjectFile.
// It reports found=false when no ancestor is a project.
func FindProjectRoot(start string) (string, bool, error) {
	if start == "" {
		return "", false, errors.New(messages.RootStartPathRequired)
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, err
	}
	for {
		candidate := filepath.Join(dir, ProjectFile)
		info, err := os.Stat(candidate)
		switch {
		case err == nil:
			if info.IsDir() {
				return "", false, fmt.Errorf(messages.RootProjectFileIsDirFmt, candidate)
			}
			return dir, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}
