// Package envinfo captures the host and build environment a benchmark ran
// in, for reproducibility: the machine, the toolchain, and the revisions
// of the runtime and of the benchmarked code.
package envinfo

import (
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Record identifies one benchmarking session. Revision fields are empty
// when unknown; the CSV writer renders them as the literal NULL.
type Record struct {
	UUID            string
	Timestamp       time.Time
	RuntimeRevision string // Go toolchain identity, e.g. go1.24.0
	PackageRevision string // VCS head of the benchmarked code
	OS              string
	CPUCores        int
	Arch            string
	Machine         string // hostname
	CgoEnabled      bool
	WordSize        int // bits
}

// Capture assembles a Record for the current process.
//
// The package revision is taken from the build info stamped into the
// binary when present; callers benchmarking a different repository can
// overwrite PackageRevision with a revision from the vcs package.
func Capture() Record {
	rec := Record{
		UUID:            uuid.NewString(),
		Timestamp:       time.Now(),
		RuntimeRevision: runtime.Version(),
		OS:              runtime.GOOS,
		CPUCores:        runtime.NumCPU(),
		Arch:            runtime.GOARCH,
		WordSize:        strconv.IntSize,
	}

	if hostname, err := os.Hostname(); err == nil {
		rec.Machine = hostname
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				rec.PackageRevision = setting.Value
			case "CGO_ENABLED":
				rec.CgoEnabled = setting.Value == "1"
			}
		}
	}

	return rec
}
