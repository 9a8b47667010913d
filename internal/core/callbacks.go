package core

// Callbacks routes classified outcomes back to the caller. Every field is
// optional; a nil handler is a no-op. OnSuccess is the one handler callers
// almost always supply, since it is the only typed access to the result.
//
// Exactly one handler fires per invocation that is not throttled or
// superseded. Panics raised inside a handler are not recovered.
type Callbacks[T any] struct {
	// OnSuccess receives the operation's value.
	OnSuccess func(T)
	// OnError receives the operation's error.
	OnError func(error)
	// OnNull fires when the operation returned an absent value.
	OnNull func()
	// OnEmpty fires when the operation returned an empty collection.
	OnEmpty func()
	// OnThrottle fires when a throttled call is rejected inside an active
	// window. Debounce never invokes it.
	OnThrottle func()
	// OnTimeout fires when an asynchronous operation missed its deadline.
	OnTimeout func()
	// OnWaiting fires once when an asynchronous operation is observed still
	// pending, before any terminal handler.
	OnWaiting func()
}

// handle invokes the single handler matching a terminal outcome.
func (c Callbacks[T]) handle(o Outcome[T]) {
	switch o.Kind {
	case OutcomeError:
		if c.OnError != nil {
			c.OnError(o.Err)
		}
	case OutcomeNull:
		if c.OnNull != nil {
			c.OnNull()
		}
	case OutcomeEmpty:
		if c.OnEmpty != nil {
			c.OnEmpty()
		}
	case OutcomeSuccess:
		if c.OnSuccess != nil {
			c.OnSuccess(o.Value)
		}
	case OutcomeTimeout:
		if c.OnTimeout != nil {
			c.OnTimeout()
		}
	}
}

// throttled invokes the rejection handler, if any.
func (c Callbacks[T]) throttled() {
	if c.OnThrottle != nil {
		c.OnThrottle()
	}
}

// waiting invokes the pending-signal handler, if any.
func (c Callbacks[T]) waiting() {
	if c.OnWaiting != nil {
		c.OnWaiting()
	}
}
