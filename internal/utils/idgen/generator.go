package idgen

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	PrefixChat    = "chat"
	PrefixMessage = "msg"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// New returns "<prefix>_<lowercase ulid>". IDs generated by one process sort by creation time.
func New(prefix string) string {
	return NewAt(prefix, time.Now())
}

// NewAt is New with an explicit timestamp component.
func NewAt(prefix string, at time.Time) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(at), entropy)
	entropyMu.Unlock()
	return fmt.Sprintf("%s_%s", prefix, strings.ToLower(id.String()))
}

// Parse strips the prefix and returns the ULID.
func Parse(prefix, value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, prefix+"_") {
		return ulid.ULID{}, fmt.Errorf("id %q does not have prefix %q", value, prefix)
	}
	return ulid.Parse(strings.TrimPrefix(value, prefix+"_"))
}

// IsValid reports whether value is a well formed ID with the given prefix.
func IsValid(prefix, value string) bool {
	_, err := Parse(prefix, value)
	return err == nil
}
