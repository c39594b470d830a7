package constants

import "time"

// Retry and pacing constants
const (
	// Fallback request timeout when a scraper setting carries no usable value
	DefaultRequestTimeout = 10 * time.Second

	// Stepped-random pause bounds between fetch retries, in seconds
	RetryPauseMinSeconds = 1.0
	RetryPauseMaxSeconds = 3.0
	RetryPauseStep       = 0.3

	// Flat pause after a proxy-layer failure before the next attempt
	ProxyRetryPause = 250 * time.Millisecond
)

// Rescue values applied when the config store has no usable scraper entry.
// Units mirror the stored records: whole seconds for sleeps and timeouts.
const (
	RescueIterSleepFromScnds = 20
	RescueIterSleepToScnds   = 30
	RescueIterSleepSteps     = 0.5

	RescueFetchTimeoutScnds   = 8
	RescueFetchMaxRetries     = 4
	RescueFetchUseRandomProxy = true

	RescuePostTimeoutScnds   = 8
	RescuePostMaxRetries     = 4
	RescuePostUseRandomProxy = true
)
