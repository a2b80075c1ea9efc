// Package event implements the engine's typed, synchronous event bus.
// Observers run in the caller's thread; the bus never buffers or
// reorders events.
package event

import "github.com/sirupsen/logrus"

// Bus dispatches typed events to zero or more Observers. It replaces the
// ad-hoc named-string progress signals of callback-based designs with a
// closed, typed event set.
type Bus struct {
	observers []Observer
	log       logrus.FieldLogger
}

// New returns a Bus that also logs every emitted event at debug level via
// log, if log is non-nil.
func New(log logrus.FieldLogger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers obs to receive all future events.
func (b *Bus) Subscribe(obs Observer) {
	b.observers = append(b.observers, obs)
}

// Emit delivers ev to every subscribed observer, in subscription order.
func (b *Bus) Emit(ev Event) {
	if b.log != nil {
		b.log.WithFields(logrus.Fields{"event": ev.Name()}).Debug(ev.Name())
	}
	for _, o := range b.observers {
		o.Notify(ev)
	}
}

// EmitCancellable delivers a PreflightCheck event and returns true if any
// observer asked to cancel the run. This is the only cancellation point in
// the engine.
func (b *Bus) EmitCancellable(ev PreflightCheck) (cancel bool) {
	if b.log != nil {
		b.log.WithFields(logrus.Fields{"event": ev.Name()}).Debug(ev.Name())
	}
	for _, o := range b.observers {
		if o.Notify(ev) == Cancel {
			cancel = true
		}
	}
	return cancel
}

// Decision is what an Observer asks the bus to do after a cancellable
// event. Notify return values for non-cancellable events are ignored.
type Decision int

// The two decisions an observer can return from PreflightCheck.
const (
	Continue Decision = iota
	Cancel
)

// Observer receives events emitted on a Bus.
type Observer interface {
	Notify(ev Event) Decision
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ev Event) Decision

// Notify calls f.
func (f ObserverFunc) Notify(ev Event) Decision { return f(ev) }
