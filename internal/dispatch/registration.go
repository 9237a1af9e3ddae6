package dispatch

import "sync/atomic"

// Registration is the single-use capability returned by every Register
// call. Deregister reverses exactly that registration: it removes the
// kernel or drops the schema refcount, and erases the operator entry when
// it was the last reference.
//
// A Registration must be deregistered exactly once. A second call is an
// internal-consistency violation and panics; it is detected here, before
// any refcount is touched, so misuse can never silently underflow the
// registry's counts.
type Registration struct {
	disposed atomic.Bool
	reverse  func()
}

func newRegistration(reverse func()) *Registration {
	return &Registration{reverse: reverse}
}

// Deregister undoes the registration this handle was returned for.
func (r *Registration) Deregister() {
	if r.disposed.Swap(true) {
		panic("dispatch: Registration deregistered twice")
	}
	r.reverse()
}
