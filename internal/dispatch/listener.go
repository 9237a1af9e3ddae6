package dispatch

// Listener observes operator lifecycle events. OnOperatorRegistered fires
// after the operator is visible through Find, so the listener may query it;
// OnOperatorDeregistered fires when the last schema registration is being
// reversed, before the entry is removed, so the handle is still valid
// inside the call.
// Notifications are synchronous and delivered in listener attachment order.
// Panics from a listener propagate to the registrant; containment is the
// caller's policy, not this package's.
type Listener interface {
	OnOperatorRegistered(op OperatorHandle)
	OnOperatorDeregistered(op OperatorHandle)
}

// listenerList keeps attachment order. Guarded by the dispatcher mutex.
type listenerList struct {
	listeners []Listener
}

func (l *listenerList) add(listener Listener) {
	l.listeners = append(l.listeners, listener)
}

func (l *listenerList) notifyRegistered(op OperatorHandle) {
	for _, listener := range l.listeners {
		listener.OnOperatorRegistered(op)
	}
}

func (l *listenerList) notifyDeregistered(op OperatorHandle) {
	for _, listener := range l.listeners {
		listener.OnOperatorDeregistered(op)
	}
}
