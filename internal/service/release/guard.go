package release

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/shipper/internal/logger"
)

// isAnotherInstanceRunning scans the process table for another process with
// our executable name. Two releases mutating the same backup folder and remote
// paths at once would interleave badly, so the second one refuses to start.
func isAnotherInstanceRunning(ctx context.Context) bool {
	executable, err := os.Executable()
	if err != nil {
		logger.Infof(ctx, "Unable to resolve own executable: %v", err)
		return false
	}

	processList, err := ps.Processes()
	if err != nil {
		logger.Infof(ctx, "Unable to list processes: %v", err)
		return false
	}

	var (
		ownName = filepath.Base(executable)
		ownPID  = os.Getpid()
	)

	for _, process := range processList {
		if process.Pid() == ownPID {
			continue
		}

		if process.Executable() == ownName {
			logger.InfoKV(ctx, "Found a running release", "pid", process.Pid())
			return true
		}
	}

	return false
}
