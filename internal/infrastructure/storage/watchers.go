package storage

import "sync"

// watchers fans written values out to per-key listeners. Each registration
// owns an unbounded queue drained by its own goroutine, so a slow listener
// never blocks a writer and values arrive in the order they were written.
type watchers struct {
	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]*subscription
}

type subscription struct {
	fn    func(string)
	mu    sync.Mutex
	queue []string
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newWatchers() *watchers {
	return &watchers{subs: make(map[string]map[uint64]*subscription)}
}

func (w *watchers) add(key string, fn func(string)) func() {
	sub := &subscription{
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	w.mu.Lock()
	id := w.next
	w.next++
	if w.subs[key] == nil {
		w.subs[key] = make(map[uint64]*subscription)
	}
	w.subs[key][id] = sub
	w.mu.Unlock()

	go sub.run()

	return func() {
		w.mu.Lock()
		delete(w.subs[key], id)
		if len(w.subs[key]) == 0 {
			delete(w.subs, key)
		}
		w.mu.Unlock()
		sub.stop()
	}
}

func (w *watchers) notify(key, value string) {
	w.mu.Lock()
	subs := make([]*subscription, 0, len(w.subs[key]))
	for _, sub := range w.subs[key] {
		subs = append(subs, sub)
	}
	w.mu.Unlock()

	for _, sub := range subs {
		sub.push(value)
	}
}

func (s *subscription) push(value string) {
	s.mu.Lock()
	s.queue = append(s.queue, value)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			value := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.fn(value)
		}
	}
}
