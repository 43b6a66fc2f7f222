package engine

import "time"

// Clock supplies the block timestamp stamped on new posts, in seconds.
// A post stamped 0 would read as absent, so implementations must not return 0.
type Clock interface {
	Now() uint32
}

// WallClock reads the system time.
type WallClock struct{}

// Now returns the current Unix time truncated to 32 bits.
func (WallClock) Now() uint32 {
	return uint32(time.Now().Unix())
}
