package di

import (
	"strconv"
	"sync/atomic"
)

// ScopeID is the process-unique identity of one container. IDs are handed
// out by a process-wide counter, so they also record creation order, which
// makes interleaved scope activity easy to follow in logs.
type ScopeID uint64

var scopeIDs atomic.Uint64

func nextScopeID() ScopeID {
	return ScopeID(scopeIDs.Add(1))
}

// String renders the ID as "scope-N".
func (id ScopeID) String() string {
	return "scope-" + strconv.FormatUint(uint64(id), 10)
}
