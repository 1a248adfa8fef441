package store

import "sync/atomic"

var versionSeq atomic.Uint64

// NextVersion returns a snapshot version greater than every version handed
// out before it in this process, so a machine reopened for the same user
// never has its writes mistaken for stale ones.
func NextVersion() uint64 {
	return versionSeq.Add(1)
}
