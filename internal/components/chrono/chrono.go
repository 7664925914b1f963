package chrono

import "time"

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	Now() time.Time
	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now()
}

func (StandardTime) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Instant is a TimeAPI whose waits complete immediately, it records every
// requested wait so tests can assert on pacing.
type Instant struct {
	Waits []time.Duration
	now   time.Time
}

func (i *Instant) Now() time.Time {
	if i.now.IsZero() {
		i.now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return i.now
}

func (i *Instant) After(d time.Duration) <-chan time.Time {
	i.Waits = append(i.Waits, d)
	i.now = i.Now().Add(d)
	ch := make(chan time.Time, 1)
	ch <- i.now
	return ch
}
