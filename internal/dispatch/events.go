package dispatch

import (
	"sync"
	"sync/atomic"
	"time"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusInfo    Status = "info"
	StatusStopped Status = "stopped"
)

// LogEntry is a single line of a run's log. IDs increase by one for every
// entry of a run, starting at 1.
type LogEntry struct {
	ID      int       `json:"id"`
	Status  Status    `json:"status"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Sink observes a run. It is called from the dispatch loop, so it should not
// block for long.
type Sink interface {
	OnLog(entry LogEntry)
	OnProgress(done, total int)
}

type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	}
	return "idle"
}

// CancelToken requests a cooperative stop of a single run. The run observes
// it between submissions, never during one. The zero value is ready to use.
type CancelToken struct {
	mutex   sync.Mutex
	stopped atomic.Bool
	done    chan struct{}
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// channel returns done, creating it on first use.
func (t *CancelToken) channel() chan struct{} {
	if t.done == nil {
		t.done = make(chan struct{})
	}
	return t.done
}

func (t *CancelToken) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.stopped.Load() {
		return
	}
	t.stopped.Store(true)
	close(t.channel())
}

func (t *CancelToken) Stopped() bool {
	return t.stopped.Load()
}

// Done is closed once Stop is called.
func (t *CancelToken) Done() <-chan struct{} {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.channel()
}
