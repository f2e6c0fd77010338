package toolchain

// Stage identifies a step of the installation lifecycle.
type Stage string

// Reported stages, in the order an install passes through them.
const (
	StageChecking   Stage = "checking"
	StageInstalling Stage = "installing"
	StageOutput     Stage = "output"
	StageVerifying  Stage = "verifying"
	StageDone       Stage = "done"
)

// Progress is one structured progress event.
type Progress struct {
	Stage   Stage
	Message string
}

// Reporter receives progress events. Implementations must be safe to call
// from the goroutine streaming install output.
type Reporter interface {
	Report(p Progress)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(p Progress)

// Report calls f when it is non-nil.
func (f ReporterFunc) Report(p Progress) {
	if f != nil {
		f(p)
	}
}

// Discard drops every event.
var Discard Reporter = ReporterFunc(nil)
