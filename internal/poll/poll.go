// Package poll provides bounded predicate polling for the agent's busy-wait
// loops: the boot-console attach wait and the startup connection grace period.
//
// Keeping the polling policy behind an injected sleep function makes those
// waits testable without real timers.
package poll

import "time"

// Sleeper suspends the caller for the given duration. Production code passes
// time.Sleep; tests pass a recording fake.
type Sleeper func(d time.Duration)

// Until polls predicate up to maxAttempts times, sleeping delay between
// attempts, and returns true the first time the predicate holds.
//
// The predicate is checked before each sleep, so a predicate that already
// holds costs no delay. maxAttempts == 0 means poll forever; the call then
// returns only when the predicate becomes true.
func Until(maxAttempts int, delay time.Duration, sleep Sleeper, predicate func() bool) bool {
	for attempt := 0; maxAttempts == 0 || attempt < maxAttempts; attempt++ {
		if predicate() {
			return true
		}
		sleep(delay)
	}
	return predicate()
}
