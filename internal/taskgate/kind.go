package taskgate

import (
	"fmt"
	"strings"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// Kind identifies a PlatformIO task the gate can dispatch.
type Kind int

// Task kinds.
const (
	Build Kind = iota + 1
	Upload
	UploadAndMonitor
	Clean
	Monitor
	Test
	Program
)

type kindInfo struct {
	slug     string
	taskName string
	monitor  bool
}

var kinds = map[Kind]kindInfo{
	Build:            {slug: "build", taskName: "PlatformIO: Build"},
	Upload:           {slug: "upload", taskName: "PlatformIO: Upload"},
	UploadAndMonitor: {slug: "upload-and-monitor", taskName: "PlatformIO: Upload and Monitor", monitor: true},
	Clean:            {slug: "clean", taskName: "PlatformIO: Clean"},
	Monitor:          {slug: "monitor", taskName: "PlatformIO: Monitor", monitor: true},
	Test:             {slug: "test", taskName: "PlatformIO: Test"},
	Program:          {slug: "program", taskName: "PlatformIO: Program"},
}

// Kinds returns every task kind in dispatch-menu order.
func Kinds() []Kind {
	return []Kind{Build, Upload, UploadAndMonitor, Clean, Monitor, Test, Program}
}

// String returns the kind's short name, e.g. "upload-and-monitor".
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.slug
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// TaskName returns the host task name, e.g. "PlatformIO: Build".
func (k Kind) TaskName() string {
	return kinds[k].taskName
}

// IsMonitor reports whether the task keeps running until terminated.
func (k Kind) IsMonitor() bool {
	return kinds[k].monitor
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// ParseKind accepts a short name or a host task name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	needle := strings.TrimSpace(s)
	for _, k := range Kinds() {
		info := kinds[k]
		if strings.EqualFold(needle, info.slug) || strings.EqualFold(needle, info.taskName) {
			return k, nil
		}
	}
	return 0, fmt.Errorf(messages.TaskgateUnknownKindFmt, s)
}

// KindForTaskName maps a host task name back to its kind.
func KindForTaskName(name string) (Kind, bool) {
	for k, info := range kinds {
		if info.taskName == name {
			return k, true
		}
	}
	return 0, false
}
