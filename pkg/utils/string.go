package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSubmissionID returns an opaque identifier for a new submission,
// e.g. "sub_9f1c2ab4d87e".
func NewSubmissionID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in no state to serve.
		panic(err)
	}
	return "sub_" + hex.EncodeToString(b)
}
