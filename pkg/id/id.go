package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID for the current time.
func New() string {
	s, err := At(time.Now())
	if err != nil {
		panic(err) // the clock is inside the ULID range
	}
	return s
}

// At returns a ULID stamped with t. Imported ledger rows use the row's own
// creation time so that id order follows creation order, which the
// analytics tie-breaks depend on. Times before the Unix epoch or past
// ulid.MaxTime are rejected.
func At(t time.Time) (string, error) {
	ms := t.UnixMilli()
	if ms < 0 || uint64(ms) > ulid.MaxTime() {
		return "", fmt.Errorf("time %s outside the ULID range: %w", t.UTC().Format(time.RFC3339), ulid.ErrBigTime)
	}

	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(uint64(ms), mono)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Time extracts the timestamp embedded in a ULID.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}
