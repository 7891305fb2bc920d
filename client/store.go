package client

// The store engine: a state container whose only mutation path is a pure
// reducer applied on a single goroutine.
//
// Operations dispatch events; the loop goroutine owns the state, applies
// the reducer, and notifies subscribers — all on one goroutine, so
// reducers and subscribers never need locks and events are observed in
// dispatch order. Dispatch is synchronous: it returns the snapshot the
// event produced, which lets an operation read the fencing token its own
// start event was assigned.

// event is a state-transition input. Each store defines its own unexported
// event types; the reducer switches over them.
type event any

// store serializes events through a single queue and applies reduce to
// produce each next state.
type store[S any] struct {
	reduce func(S, event) S
	ops    chan func()
	stop   chan struct{}

	// owned by the loop goroutine
	state   S
	subs    map[int]func(S)
	nextSub int
}

func newStore[S any](initial S, reduce func(S, event) S) *store[S] {
	s := &store[S]{
		reduce: reduce,
		ops:    make(chan func()),
		stop:   make(chan struct{}),
		state:  initial,
		subs:   make(map[int]func(S)),
	}
	go s.loop()
	return s
}

func (s *store[S]) loop() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.stop:
			return
		}
	}
}

// do runs fn on the loop goroutine and waits for it to finish.
func (s *store[S]) do(fn func()) {
	done := make(chan struct{})
	select {
	case s.ops <- func() { fn(); close(done) }:
		<-done
	case <-s.stop:
	}
}

// dispatch applies ev through the reducer and returns the resulting
// snapshot. Subscribers are notified before dispatch returns.
func (s *store[S]) dispatch(ev event) S {
	var snapshot S
	s.do(func() {
		s.state = s.reduce(s.state, ev)
		snapshot = s.state
		for _, fn := range s.subs {
			fn(s.state)
		}
	})
	return snapshot
}

// snapshot returns the current state, serialized through the same queue
// as mutations.
func (s *store[S]) snapshot() S {
	var snap S
	s.do(func() { snap = s.state })
	return snap
}

// subscribe registers fn to be called with every new snapshot. The
// returned function unsubscribes. Unsubscribing does not cancel in-flight
// operations — their settle events still apply (and still notify the
// remaining subscribers).
func (s *store[S]) subscribe(fn func(S)) func() {
	var id int
	s.do(func() {
		id = s.nextSub
		s.nextSub++
		s.subs[id] = fn
	})
	return func() {
		s.do(func() { delete(s.subs, id) })
	}
}

// close stops the loop goroutine. Dispatches after close are no-ops.
func (s *store[S]) close() {
	close(s.stop)
}
