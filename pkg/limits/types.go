package limits

import "time"

// CheckResult is the decision for one request.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Limit is the burst size of the client's bucket.
	Limit int

	// Remaining is how many requests the client could make right now.
	Remaining int

	// RetryAfter is how long to wait before the next request would be
	// allowed. Zero when Allowed.
	RetryAfter time.Duration

	// Reset is when the bucket is full again.
	Reset time.Time
}
