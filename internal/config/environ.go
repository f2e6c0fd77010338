package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environ returns base with the PlatformIO virtualenv bin dir prepended to
// PATH, so tasks and terminal commands find the managed `pio`.
func (p Paths) Environ(base []string) []string {
	out := make([]string, 0, len(base)+1)
	found := false
	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if ok && pathKey(key) {
			found = true
			if !containsPath(value, p.EnvBinDir) {
				kv = key + "=" + p.EnvBinDir + string(os.PathListSeparator) + value
			}
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+p.EnvBinDir)
	}
	return out
}

// DefaultInstallCommand creates the managed virtualenv when needed and
// installs or upgrades PlatformIO Core inside it.
func (p Paths) DefaultInstallCommand() []string {
	python := filepath.Join(p.EnvBinDir, "python")
	script := fmt.Sprintf("[ -x %q ] || python3 -m venv %q && %q -m pip install -U platformio", python, p.EnvDir, python)
	return []string{"/bin/sh", "-c", script}
}

// Executable returns the path of name inside the virtualenv bin dir.
func (p Paths) Executable(name string) string {
	return filepath.Join(p.EnvBinDir, name)
}

func pathKey(key string) bool {
	return key == "PATH" || strings.EqualFold(key, "Path") && os.PathListSeparator == ';'
}

func containsPath(list string, dir string) bool {
	for _, entry := range filepath.SplitList(list) {
		if entry == dir {
			return true
		}
	}
	return false
}
