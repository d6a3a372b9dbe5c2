package common

import "go.uber.org/atomic"

// Phase is a step in the one-way life of a long running component.
type Phase int32

const (
	Idle Phase = iota
	Starting
	Running
	Stopping
	Halted
)

// LifecycleStatus guards Start and Stop against repeated or out-of-order calls.
// The zero value is Idle.
type LifecycleStatus struct {
	phase atomic.Int32
}

func (l *LifecycleStatus) move(from, to Phase) bool {
	return l.phase.CAS(int32(from), int32(to))
}

func (l *LifecycleStatus) PreStart() bool  { return l.move(Idle, Starting) }
func (l *LifecycleStatus) PostStart() bool { return l.move(Starting, Running) }
func (l *LifecycleStatus) PreStop() bool   { return l.move(Running, Stopping) }
func (l *LifecycleStatus) PostStop() bool  { return l.move(Stopping, Halted) }

// Reset returns a component whose start failed to Idle.
func (l *LifecycleStatus) Reset() { l.phase.Store(int32(Idle)) }

func (l *LifecycleStatus) Phase() Phase { return Phase(l.phase.Load()) }

func (l *LifecycleStatus) Started() bool { return l.Phase() == Running }

func (l *LifecycleStatus) Stopped() bool {
	p := l.Phase()
	return p == Stopping || p == Halted
}
