package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// PIOHomeEnv overrides the PlatformIO home directory.
const PIOHomeEnv = "PLATFORMIO_HOME_DIR"

// System abstracts the environment lookups used by path resolution.
type System interface {
	Getenv(key string) string
	HomeDir() (string, error)
	GOOS() string
}

// RealSystem implements System using the process environment.
type RealSystem struct{}

// Getenv returns the value of the environment variable named by key.
func (RealSystem) Getenv(key string) string {
	return os.Getenv(key)
}

// HomeDir returns the current user's home directory.
func (RealSystem) HomeDir() (string, error) {
	return homedir.Dir()
}

// GOOS returns the running operating system.
func (RealSystem) GOOS() string {
	return runtime.GOOS
}

// Paths holds resolved workspace and PlatformIO paths.
type Paths struct {
	Workspace  string
	ConfigPath string
	PIOHome    string
	CacheDir   string
	EnvDir     string
	EnvBinDir  string
	LockPath   string
	LogDir     string
}

// DefaultPaths resolves paths for workspace using the real environment.
// workspace may be empty when no project is open.
func DefaultPaths(workspace string) (Paths, error) {
	return ResolvePaths(workspace, RealSystem{})
}

// ResolvePaths resolves paths for workspace using sys.
func ResolvePaths(workspace string, sys System) (Paths, error) {
	home := sys.Getenv(PIOHomeEnv)
	if home == "" {
		userHome, err := sys.HomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf(messages.ConfigHomeDirFmt, err)
		}
		home = filepath.Join(userHome, ".platformio")
	}
	goos := sys.GOOS()
	if goos == "windows" {
		home = asciiHomeDir(home)
	}
	binName := "bin"
	if goos == "windows" {
		binName = "Scripts"
	}

	cache := filepath.Join(home, ".cache-ide")
	env := filepath.Join(home, "penv")
	paths := Paths{
		Workspace: workspace,
		PIOHome:   home,
		CacheDir:  cache,
		EnvDir:    env,
		EnvBinDir: filepath.Join(env, binName),
		LockPath:  filepath.Join(cache, "install.lock"),
		LogDir:    filepath.Join(cache, "logs"),
	}
	if workspace != "" {
		paths.ConfigPath = filepath.Join(workspace, ".pio-layer", "config.toml")
	}
	return paths, nil
}

// asciiHomeDir moves a home directory containing non-ASCII characters to the
// root of its drive, where PlatformIO's Python tooling can handle it.
func asciiHomeDir(dir string) string {
	for _, r := range dir {
		if r > 127 {
			return windowsRoot(dir) + ".platformio"
		}
	}
	return dir
}

// windowsRoot returns the drive root of a Windows path ("C:\") regardless of
// the host OS.
func windowsRoot(dir string) string {
	if len(dir) >= 2 && dir[1] == ':' {
		return dir[:2] + `\`
	}
	if strings.HasPrefix(dir, `\`) || strings.HasPrefix(dir, "/") {
		return dir[:1]
	}
	return ""
}
