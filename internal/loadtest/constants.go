package loadtest

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	progressInterval        = time.Second
)

// Report constants.
const (
	PercentageMultiplier = 100
	worstShown           = 5
)
