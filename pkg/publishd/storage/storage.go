package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

const folder = "deployments"

var unsafeCharacters = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Hint describes where an artifact comes from and who owns it.
type Hint struct {
	Owner       string
	Filename    string
	ContentType string
	Time        time.Time
}

// ArtifactStore uploads source artifacts and returns a URL where they can be fetched.
type ArtifactStore interface {
	Store(ctx context.Context, r io.Reader, size int64, hint Hint) (string, error)
}

// ObjectKey returns the storage key for an artifact: deployments/<owner>/<unix millis>_<filename>.
func ObjectKey(hint Hint) string {
	filename := path.Base(strings.ReplaceAll(hint.Filename, "\\", "/"))
	filename = unsafeCharacters.ReplaceAllString(filename, "_")
	if filename == "." || filename == "/" || filename == "_" || len(filename) == 0 {
		filename = "artifact"
	}

	owner := unsafeCharacters.ReplaceAllString(hint.Owner, "_")

	return fmt.Sprintf("%s/%s/%d_%s", folder, owner, hint.Time.UnixMilli(), filename)
}
