package config

import "github.com/conn-castle/pio-layer/internal/messages"

// FieldType classifies the kind of value a config field accepts.
type FieldType string

const (
	// FieldBool accepts true or false.
	FieldBool FieldType = "bool"
	// FieldEnum accepts one of a fixed set of options.
	FieldEnum FieldType = "enum"
	// FieldFreetext accepts arbitrary string input.
	FieldFreetext FieldType = "freetext"
	// FieldDuration accepts a Go duration string such as "500ms".
	FieldDuration FieldType = "duration"
	// FieldList accepts an array of strings.
	FieldList FieldType = "list"
)

// FieldOption describes a single selectable value for a field.
type FieldOption struct {
	Value       string
	Description string // empty for options without descriptions
}

// FieldDef describes a single config field.
type FieldDef struct {
	Key         string
	Type        FieldType
	Default     string
	Description string
	Options     []FieldOption
}

// fields is the ordered registry of every config key.
var fields = []FieldDef{
	{Key: "tasks.force_upload_and_monitor", Type: FieldBool, Default: "false", Description: messages.ConfigFieldForceUploadAndMonitor},
	{Key: "tasks.settle_delay", Type: FieldDuration, Default: DefaultSettleDelay.String(), Description: messages.ConfigFieldSettleDelay},
	{Key: "tasks.terminate_timeout", Type: FieldDuration, Default: DefaultTerminateTimeout.String(), Description: messages.ConfigFieldTerminateTimeout},
	{Key: "toolchain.min_version", Type: FieldFreetext, Default: DefaultMinVersion, Description: messages.ConfigFieldMinVersion},
	{Key: "toolchain.install_command", Type: FieldList, Description: messages.ConfigFieldInstallCommand},
	{Key: "toolchain.executable", Type: FieldFreetext, Default: DefaultExecutable, Description: messages.ConfigFieldExecutable},
	{Key: "lock.stale_after", Type: FieldDuration, Default: DefaultStaleAfter.String(), Description: messages.ConfigFieldStaleAfter},
	{Key: "lock.heartbeat_every", Type: FieldDuration, Default: DefaultHeartbeatEvery.String(), Description: messages.ConfigFieldHeartbeatEvery},
	{
		Key:         "log.level",
		Type:        FieldEnum,
		Default:     DefaultLogLevel,
		Description: messages.ConfigFieldLogLevel,
		Options: []FieldOption{
			{Value: "debug", Description: messages.ConfigLogLevelDebug},
			{Value: "info", Description: messages.ConfigLogLevelInfo},
			{Value: "warn", Description: messages.ConfigLogLevelWarn},
			{Value: "error", Description: messages.ConfigLogLevelError},
		},
	},
}

// fieldIndex provides O(1) lookup by key.
var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Key] = i
	}
	return idx
}

// LookupField returns the field definition for the given config key.
// Returns false when the key is not in the catalog.
func LookupField(key string) (FieldDef, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return FieldDef{}, false
	}
	return copyFieldDef(fields[i]), true
}

// Fields returns a copy of all registered field definitions in catalog order.
func Fields() []FieldDef {
	out := make([]FieldDef, len(fields))
	for i, f := range fields {
		out[i] = copyFieldDef(f)
	}
	return out
}

// FieldOptionValues returns the option values for a field as a plain string slice.
// Returns nil when the key is not in the catalog or has no options.
func FieldOptionValues(key string) []string {
	f, ok := LookupField(key)
	if !ok || len(f.Options) == 0 {
		return nil
	}
	values := make([]string, len(f.Options))
	for i, opt := range f.Options {
		values[i] = opt.Value
	}
	return values
}

// copyFieldDef returns a deep copy of a FieldDef so callers cannot mutate the registry.
func copyFieldDef(f FieldDef) FieldDef {
	if len(f.Options) > 0 {
		opts := make([]FieldOption, len(f.Options))
		copy(opts, f.Options)
		f.Options = opts
	}
	return f
}
