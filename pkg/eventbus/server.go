package eventbus

import (
	"bufio"
	"context"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aoyoqui/benderr/pkg/types"
)

// defaultQueueDepth bounds how many unsent events a slow subscriber may
// accumulate before the server starts shedding Log events.
const defaultQueueDepth = 256

// Server is the single event producer for a run: the sequence runner
// publishes StepStarted/StepEnded/Log events to it, and it fans them out
// to every connected Subscriber.
type Server struct {
	addr      string
	log       zerolog.Logger
	queueSize int

	mu       sync.Mutex
	nextID   uint64
	subs     map[uint64]*subscriberConn
	listener net.Listener
}

// subscriberConn owns one accepted connection. A single writer goroutine
// drains queue so outbound frames for a given subscriber are never
// interleaved by concurrent writers.
type subscriberConn struct {
	conn  net.Conn
	mu    sync.Mutex
	queue []Event
	wake  chan struct{}
	done  chan struct{}
}

// NewServer creates a Server bound to addr but does not yet listen.
// Callers supply the logger the rest of the run uses so bus-level
// problems show up in the same log stream.
func NewServer(addr string, log zerolog.Logger) *Server {
	return &Server{
		addr:      addr,
		log:       log,
		queueSize: defaultQueueDepth,
		subs:      make(map[uint64]*subscriberConn),
	}
}

// Serve listens on the server's address and accepts subscribers until ctx
// is cancelled or the listener fails. It is meant to run in its own
// goroutine; Publish* methods are safe to call concurrently with it.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := listen(s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		s.addSubscriber(conn)
	}
}

// Close stops accepting subscribers and disconnects every connected one.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subs {
		close(sub.done)
		_ = sub.conn.Close()
		delete(s.subs, id)
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) addSubscriber(conn net.Conn) {
	sub := &subscriberConn{conn: conn, wake: make(chan struct{}, 1), done: make(chan struct{})}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.mu.Unlock()

	s.log.Debug().Uint64("subscriber_id", id).Msg("eventbus: subscriber connected")

	go s.writeLoop(sub)
	go func() {
		// Subscribers never send; a read only detects disconnect.
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
		s.removeSubscriber(id)
	}()
}

func (s *Server) writeLoop(sub *subscriberConn) {
	w := bufio.NewWriter(sub.conn)
	for {
		sub.mu.Lock()
		pending := sub.queue
		sub.queue = nil
		sub.mu.Unlock()

		for _, e := range pending {
			if err := s.writeTo(w, e); err != nil {
				return
			}
		}

		select {
		case <-sub.done:
			return
		case <-sub.wake:
		}
	}
}

func (s *Server) removeSubscriber(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok {
		close(sub.done)
		_ = sub.conn.Close()
		delete(s.subs, id)
	}
}

func (s *Server) writeTo(w *bufio.Writer, e Event) error {
	payload, err := encodeEvent(e)
	if err != nil {
		s.log.Error().Err(err).Msg("eventbus: failed to encode event")
		return nil
	}
	if err := writeFrame(w, payload); err != nil {
		return err
	}
	return w.Flush()
}

// PublishStepStarted announces that a step has begun executing.
func (s *Server) PublishStepStarted(step types.Step) {
	s.broadcast(Event{ID: newID(), Kind: EventStepStarted, Step: toWireStep(step)})
}

// PublishStepEnded announces a step's final result.
func (s *Server) PublishStepEnded(result types.StepResult) {
	s.broadcast(Event{ID: newID(), Kind: EventStepEnded, StepResult: toWireStepResult(result)})
}

// PublishLog forwards a single log record onto the bus. It is wired from
// pkg/logging's zerolog hook.
func (s *Server) PublishLog(level, message string) {
	s.broadcast(Event{ID: newID(), Kind: EventLog, LogLevel: level, LogMessage: message})
}

// broadcast enqueues e for every connected subscriber. A full queue sheds
// its oldest Log event to make room; StepStarted and StepEnded events are
// never dropped to make room for another event, and never displaced by
// one.
func (s *Server) broadcast(e Event) {
	s.mu.Lock()
	subs := make([]*subscriberConn, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	limit := s.queueSize
	s.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		sub.queue = enqueue(sub.queue, e, limit)
		sub.mu.Unlock()
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

func enqueue(queue []Event, e Event, limit int) []Event {
	if len(queue) < limit {
		return append(queue, e)
	}
	for i, existing := range queue {
		if existing.Kind == EventLog {
			queue = append(queue[:i], queue[i+1:]...)
			return append(queue, e)
		}
	}
	if e.Kind == EventLog {
		return queue
	}
	// Every entry is a lifecycle event; let the queue exceed limit rather
	// than drop one.
	return append(queue, e)
}
