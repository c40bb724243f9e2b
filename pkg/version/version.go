package version

import (
	"fmt"
	"strconv"
	"time"
)

// Set at link time with -ldflags "-X github.com/nais/publish/pkg/version.revision=..."
var (
	revision  = "unknown"
	buildTime = "0"
)

func Version() string {
	return revision
}

// BuildTime returns when the binary was built, from a UNIX timestamp injected at link time.
func BuildTime() (time.Time, error) {
	epoch, err := strconv.ParseInt(buildTime, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("build time '%s' is not a unix timestamp: %w", buildTime, err)
	}
	if epoch == 0 {
		return time.Time{}, fmt.Errorf("build time not set")
	}
	return time.Unix(epoch, 0), nil
}
