// Package runid derives a stable correlation identifier for a single
// conversion run, attached to every log line so multiple concurrent
// invocations (e.g. batch conversion of a whole maps/ directory) can
// be told apart in aggregated logs.
//
// Adapted from the teacher's pkg/util hashing helper: instead of
// hashing an arbitrary JSON-serializable value, we hash the inputs
// that actually identify a run (source path, target path, start time).
package runid

import (
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"
)

// New derives a deterministic run ID from the conversion's source and
// target paths and a caller-supplied nonce (typically a timestamp).
// Callers in tests can pass a fixed nonce for a reproducible ID.
func New(sourcePath, targetPath, nonce string) string {
	hasher := md5.New()
	fmt.Fprintf(hasher, "%s\x00%s\x00%s", sourcePath, targetPath, nonce)
	hash := hasher.Sum(nil)

	id, err := uuid.FromBytes(hash[:16])
	if err != nil {
		return ""
	}
	return id.String()
}
