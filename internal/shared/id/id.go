// Package id provides centralized identity generation for the service.
//
// Four identity kinds exist:
//   - Session IDs: short random hex strings, collision-resistant over the
//     short lifetime of a terminal session
//   - Synthetic PIDs: negative placeholder process identities, provably
//     disjoint from the OS PID space, reconciled to real PIDs on the
//     session's first heartbeat
//   - Request IDs: lexicographically sortable ULIDs for HTTP tracing
//   - Message IDs: monotonic ULIDs for mailbox entries, so IDs sort in
//     deposit order
package id

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionIDLength is the hex-character length of generated session IDs.
const SessionIDLength = 8

// NewSessionID generates a fresh random session identifier.
func NewSessionID() string {
	buf := make([]byte, SessionIDLength/2)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; fall back to a time-derived value rather than panic.
		binary.BigEndian.PutUint32(buf, uint32(time.Now().UnixNano()))
	}
	return hex.EncodeToString(buf)
}

// NewSyntheticPID generates a placeholder process identity for launches
// where the real OS PID cannot be determined synchronously. Synthetic
// PIDs are always negative, so they can never collide with a real PID.
func NewSyntheticPID() int {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		binary.BigEndian.PutUint32(buf, uint32(time.Now().UnixNano()))
	}
	n := int(binary.BigEndian.Uint32(buf) & 0x7fffffff)
	if n == 0 {
		n = 1
	}
	return -n
}

// IsSynthetic reports whether pid is a synthetic placeholder.
func IsSynthetic(pid int) bool {
	return pid < 0
}

var (
	entropy   io.Reader = rand.Reader
	entropyMu sync.Mutex
)

// NewRequestID generates a ULID request identifier for HTTP tracing.
func NewRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

var (
	msgEntropy   = ulid.Monotonic(rand.Reader, 0)
	msgEntropyMu sync.Mutex
)

// NewMessageID generates a mailbox message identifier. Monotonic ULIDs
// sort in creation order even within the same millisecond, so inbox
// listings sorted by ID preserve deposit order.
func NewMessageID() string {
	msgEntropyMu.Lock()
	defer msgEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), msgEntropy).String()
}
