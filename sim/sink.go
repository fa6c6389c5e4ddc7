package sim

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// EventSink receives events from a run. Emit is called concurrently from
// every process of the run and must not block for long; a slow consumer
// should sit behind a ChannelSink.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// Emit calls f(ev).
func (f EventSinkFunc) Emit(ev Event) { f(ev) }

// discardSink drops every event.
type discardSink struct{}

func (discardSink) Emit(Event) {}

// multiSink forwards to several sinks in order.
type multiSink []EventSink

func (m multiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Sinks combines sinks into one; nil entries are skipped.
func Sinks(sinks ...EventSink) EventSink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ChannelSink is an unbounded mailbox in front of a channel. Emit never
// blocks; a forwarding goroutine delivers events in emission order.
type ChannelSink struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Event
	closed  bool

	out  chan Event
	done chan struct{}
}

// NewChannelSink starts a ChannelSink. Call Close to stop its goroutine.
func NewChannelSink() *ChannelSink {
	s := &ChannelSink{
		out:  make(chan Event),
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.forward()
	return s
}

// Emit queues ev for delivery. Events emitted after Close are dropped.
func (s *ChannelSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, ev)
	s.cond.Signal()
}

// Events returns the delivery channel. It is closed after Close.
func (s *ChannelSink) Events() <-chan Event {
	return s.out
}

// Close stops delivery. Undelivered events are discarded.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	s.cond.Signal()
}

func (s *ChannelSink) forward() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// Broadcaster fans events out to any number of subscribers, each behind its
// own ChannelSink.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[int]*ChannelSink
	next int
}

// NewBroadcaster creates a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]*ChannelSink)}
}

// Emit delivers ev to every current subscriber.
func (b *Broadcaster) Emit(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		s.Emit(ev)
	}
}

// Subscribe registers a subscriber. The returned cancel function removes it
// and closes its channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	s := NewChannelSink()
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			s.Close()
		})
	}
	return s.Events(), cancel
}

// Subscribers returns the number of registered subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// LogSink renders events through a logrus logger. Narration goes out at
// Info; state changes at Debug with structured fields.
type LogSink struct {
	Logger *logrus.Logger // nil means the standard logger
}

// Emit logs ev.
func (l LogSink) Emit(ev Event) {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	switch e := ev.(type) {
	case LogEvent:
		logger.Info(e.Message)
	case Completed:
		logger.Debug("completed")
	case RunStateChanged:
		logger.WithField("state", e.State).Info("run state changed")
	case ArrivalStatusChanged:
		entry := logger.WithFields(logrus.Fields{"arrival": e.ArrivalID, "status": e.Status})
		if e.BayID != 0 {
			entry = entry.WithField("bay", e.BayID)
		}
		entry.Debug("arrival status")
	case QueueChanged:
		logger.WithField("queue", e.Contents).Debug("queue changed")
	case BayStatusChanged:
		logger.WithFields(logrus.Fields{"bay": e.BayID, "arrival": e.ArrivalID, "occupied": e.Occupied}).Debug("bay status")
	case BayProgressChanged:
		logger.WithFields(logrus.Fields{"bay": e.BayID, "percent": e.Percent}).Debug("bay progress")
	default:
		logger.WithField("type", ev.Type()).Debug("event")
	}
}
