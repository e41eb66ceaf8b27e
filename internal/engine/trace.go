package engine

import (
	"sync"
	"sync/atomic"
)

// Firing records one rule application.
type Firing struct {
	Seq       int64  `json:"seq"`
	Pass      int    `json:"pass"`
	Interview string `json:"interview"`
	Rule      string `json:"rule"`
	Target    string `json:"target"`
	Changed   bool   `json:"changed"`
	Error     string `json:"error,omitempty"`
}

// firingSeq numbers the firings of one engine from 1, across every
// interview it executes. It stands in for time in traces: two runs of the
// same participant yield the same numbers.
type firingSeq struct {
	n atomic.Int64
}

func (s *firingSeq) next() int64 {
	return s.n.Add(1)
}

// Observer receives every firing in execution order.
type Observer interface {
	OnFiring(Firing)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Firing)

// OnFiring calls f.
func (f ObserverFunc) OnFiring(fr Firing) {
	f(fr)
}

// Recorder is an Observer that keeps every firing.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	firings []Firing
}

// OnFiring appends fr.
func (r *Recorder) OnFiring(fr Firing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.firings = append(r.firings, fr)
}

// Firings returns a copy of the recorded firings.
func (r *Recorder) Firings() []Firing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Firing, len(r.firings))
	copy(out, r.firings)
	return out
}
