package cache

import "time"

// Policy is the asymmetric TTL split applied by lookup caches: a definite
// answer stays fresh for Positive, a confirmed miss only for Negative so
// the next run retries it.
type Policy struct {
	Positive time.Duration
	Negative time.Duration
}

// NewPolicy normalises configured TTL seconds into durations, falling back
// to the provided defaults when unset.
func NewPolicy(positiveSec, negativeSec int, defaultPositive, defaultNegative time.Duration) Policy {
	return Policy{
		Positive: durationOrDefault(positiveSec, defaultPositive),
		Negative: durationOrDefault(negativeSec, defaultNegative),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
