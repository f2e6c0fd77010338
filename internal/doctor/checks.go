package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conn-castle/pio-layer/internal/config"
	"github.com/conn-castle/pio-layer/internal/installer"
	"github.com/conn-castle/pio-layer/internal/lockstore"
	"github.com/conn-castle/pio-layer/internal/messages"
)

var (
	loadConfigFunc        = config.Load
	loadConfigLenientFunc = config.LoadLenient
)

// ToolchainChecker compares the installed toolchain against the minimum.
type ToolchainChecker interface {
	Check(ctx context.Context) (installer.Status, error)
}

// LockReader exposes the installation lock record.
type LockReader interface {
	Path() string
	Read() (lockstore.Record, bool, error)
	IsStale(rec lockstore.Record) bool
}

// CheckConfig validates that the configuration file can be loaded and parsed.
// When strict loading fails validation but lenient loading succeeds, it
// returns a FAIL result together with the lenient config so later checks
// still run.
func CheckConfig(path string) ([]Result, config.Config) {
	var results []Result
	cfg, err := loadConfigFunc(path)
	if err != nil {
		if !errors.Is(err, config.ErrConfigValidation) {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.DoctorCheckNameConfig,
				Message:        fmt.Sprintf(messages.DoctorConfigLoadFailedFmt, err),
				Recommendation: messages.DoctorConfigLoadRecommend,
			})
			return results, config.Default()
		}
		lenientCfg, lenientErr := loadConfigLenientFunc(path)
		if lenientErr != nil {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.DoctorCheckNameConfig,
				Message:        fmt.Sprintf(messages.DoctorConfigLoadFailedFmt, lenientErr),
				Recommendation: messages.DoctorConfigLoadRecommend,
			})
			return results, config.Default()
		}
		results = append(results, Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameConfig,
			Message:        fmt.Sprintf(messages.DoctorConfigLoadFailedFmt, err),
			Recommendation: messages.DoctorConfigLoadLenientRecommend,
		})
		return results, lenientCfg
	}

	msg := messages.DoctorConfigLoaded
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		msg = fmt.Sprintf(messages.DoctorConfigDefaultFmt, path)
	}
	results = append(results, Result{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNameConfig,
		Message:   msg,
	})
	return results, cfg
}

// CheckToolchain reports whether PlatformIO Core meets the minimum version.
func CheckToolchain(ctx context.Context, checker ToolchainChecker) Result {
	result := Result{CheckName: messages.DoctorCheckNameToolchain}
	status, err := checker.Check(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf(messages.DoctorToolchainCheckFailedFmt, err)
		result.Recommendation = messages.DoctorToolchainCheckRecommend
		return result
	}
	switch status.Kind {
	case installer.StatusSatisfied:
		result.Status = StatusOK
		result.Message = fmt.Sprintf(messages.DoctorToolchainSatisfiedFmt, status.Installed, status.Minimum)
	case installer.StatusOutOfDate:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(messages.DoctorToolchainOutOfDateFmt, status.Installed, status.Minimum)
		result.Recommendation = messages.DoctorToolchainInstallRecommend
	default:
		result.Status = StatusFail
		result.Message = messages.DoctorToolchainAbsent
		result.Recommendation = messages.DoctorToolchainInstallRecommend
	}
	return result
}

// CheckLock reports the installation lock. A live record held by another
// session is a warning; an abandoned one is a warning with a cleanup hint.
func CheckLock(store LockReader) Result {
	result := Result{CheckName: messages.DoctorCheckNameLock}
	rec, found, err := store.Read()
	switch {
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf(messages.DoctorLockReadFailedFmt, err)
		result.Recommendation = messages.DoctorLockReadRecommend
	case !found:
		result.Status = StatusOK
		result.Message = fmt.Sprintf(messages.DoctorLockFreeFmt, store.Path())
	case store.IsStale(rec):
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(messages.DoctorLockStaleFmt, rec.Owner, rec.PID, rec.Host)
		result.Recommendation = messages.DoctorLockStaleRecommend
	default:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(messages.DoctorLockHeldFmt, rec.Owner, rec.PID, rec.Host, rec.HeartbeatAt.Format(time.RFC3339))
		result.Recommendation = messages.DoctorLockHeldRecommend
	}
	return result
}

// CheckWorkspace reports whether tasks can run in workspace.
func CheckWorkspace(workspace string) Result {
	result := Result{CheckName: messages.DoctorCheckNameWorkspace}
	if workspace == "" {
		result.Status = StatusWarn
		result.Message = messages.DoctorWorkspaceNone
		result.Recommendation = messages.DoctorWorkspaceRecommend
		return result
	}
	if _, err := os.Stat(filepath.Join(workspace, "platformio.ini")); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(messages.DoctorWorkspaceNoProjectFmt, workspace)
		result.Recommendation = messages.DoctorWorkspaceRecommend
		return result
	}
	result.Status = StatusOK
	result.Message = fmt.Sprintf(messages.DoctorWorkspaceProjectFmt, workspace)
	return result
}
