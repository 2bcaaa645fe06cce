package runengine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// newRunUID generates a globally-unique run identifier. Collisions are
// cryptographically implausible, which is the property a run_uid
// actually needs (uniqueness), not sortability.
func newRunUID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is a sign of a badly broken host; fall back
		// to a fixed, clearly-synthetic id rather than panicking an
		// experiment that might otherwise have succeeded.
		return "run-fallback-0000000000000000"
	}
	return fmt.Sprintf("run-%s", hex.EncodeToString(b[:]))
}
