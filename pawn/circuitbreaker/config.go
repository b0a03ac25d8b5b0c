package circuitbreaker

import "time"

// DefaultConfig suits backend calls made while a teller waits at the counter.
func DefaultConfig() Config {
	return Config{
		MaxRequests:         2,
		Interval:            time.Minute,
		Timeout:             15 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

// CommitConfig is more tolerant: a commit failure leaves the batch at Review
// and the teller retries by hand.
func CommitConfig() Config {
	return Config{
		MaxRequests:         1,
		Interval:            2 * time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 3,
		FailureRatio:        0.6,
		MinRequests:         5,
	}
}
