package taskgate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"build":                          Build,
		"  Upload ":                      Upload,
		"upload-and-monitor":             UploadAndMonitor,
		"PlatformIO: Upload and Monitor": UploadAndMonitor,
		"platformio: clean":              Clean,
		"monitor":                        Monitor,
		"test":                           Test,
		"program":                        Program,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseKind("flash")
	require.Error(t, err)
}

func TestKindProperties(t *testing.T) {
	for _, k := range Kinds() {
		require.True(t, k.Valid())
		require.NotEmpty(t, k.TaskName())
		got, ok := KindForTaskName(k.TaskName())
		require.True(t, ok)
		require.Equal(t, k, got)
	}
	require.True(t, Monitor.IsMonitor())
	require.True(t, UploadAndMonitor.IsMonitor())
	require.False(t, Build.IsMonitor())
	require.False(t, Kind(0).Valid())
	require.Equal(t, "kind(0)", Kind(0).String())
}
