// Package notify carries user-facing signals out of the codec,
// so that the codec need not know whether a terminal, a test or nothing is listening.
package notify

import "sync"

type Kind int

const (
	Input   Kind = iota + 1 // a source or weights file cannot be used
	Output                  // a destination cannot be written
	Confirm                 // a destination exists; the answer decides whether to overwrite it
	Done
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "INPUT"
	case Output:
		return "OUTPUT"
	case Confirm:
		return "CONFIRM"
	case Done:
		return "DONE"
	}
	return "UNKNOWN"
}

type Signal struct {
	Kind    Kind
	Title   string
	Message string
}

// A Sink receives signals. The return value answers a Confirm and is otherwise ignored.
type Sink interface {
	Notify(Signal) bool
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Signal) bool

func (f SinkFunc) Notify(s Signal) bool { return f(s) }

// Discard drops every signal and agrees to every Confirm.
var Discard Sink = SinkFunc(func(Signal) bool { return true })

// A Recorder keeps the signals it receives and answers Confirm with Proceed.
// It is safe for concurrent use.
type Recorder struct {
	Proceed bool

	mu      sync.Mutex
	signals []Signal
}

func (r *Recorder) Notify(s Signal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
	return r.Proceed
}

func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.signals...)
}

// Kinds lists the kinds received so far, oldest first.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]Kind, len(r.signals))
	for i, s := range r.signals {
		ret[i] = s.Kind
	}
	return ret
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = nil
}
