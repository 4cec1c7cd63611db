// Package version reports the build of the probeacc binary.
package version

import "fmt"

// Set at build time with -ldflags "-X github.com/example/probeacc/internal/version.Commit=..."
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns "probeacc dev (commit: <short hash>, built: <time>)".
func String() string {
	return fmt.Sprintf("probeacc dev (commit: %s, built: %s)", short(Commit), BuildTime)
}

func short(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
