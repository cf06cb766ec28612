package limiter

import "time"

// hostTiming tracks when a remote host was last contacted and how long to wait before the next call.
type hostTiming struct {
	lastAccessAt time.Time
	backoffDelay time.Duration
	minInterval  time.Duration
	backoffCount int
}

func (h hostTiming) MinInterval() time.Duration {
	return h.minInterval
}

func (h hostTiming) BackoffDelay() time.Duration {
	return h.backoffDelay
}

func (h hostTiming) LastAccessAt() time.Time {
	return h.lastAccessAt
}

func (h hostTiming) BackoffCount() int {
	return h.backoffCount
}
