package plughost

import "sync"

// Dispatcher executes functions on a caller-chosen serialized context.
// Discovery and instantiation results are delivered through a Dispatcher so
// that completion callbacks run on the presentation loop rather than on the
// background goroutine that produced them.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch calls d(fn).
func (d DispatcherFunc) Dispatch(fn func()) { d(fn) }

// Sync returns a Dispatcher that runs functions immediately on the calling
// goroutine. Intended for tests and synchronous tools.
func Sync() Dispatcher {
	return DispatcherFunc(func(fn func()) { fn() })
}

// SerialDispatcher runs dispatched functions one at a time, in submission
// order, on a single background goroutine. Dispatch never blocks, so
// dispatched functions may safely dispatch further work.
type SerialDispatcher struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	closed  bool
	done    chan struct{}
}

// NewSerialDispatcher starts the dispatch goroutine.
func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *SerialDispatcher) run() {
	defer close(d.done)
	for {
		<-d.wake

		for {
			d.mu.Lock()
			if len(d.pending) == 0 {
				closed := d.closed
				d.mu.Unlock()
				if closed {
					return
				}
				break
			}
			fn := d.pending[0]
			d.pending = d.pending[1:]
			d.mu.Unlock()

			fn()
		}
	}
}

// Dispatch enqueues fn. Functions dispatched after Close are dropped.
func (d *SerialDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
	d.signal()
}

// Close stops the dispatch goroutine after draining already-queued work.
func (d *SerialDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.signal()
	<-d.done
}

func (d *SerialDispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}
