package eventbus

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aoyoqui/benderr/pkg/types"
)

// Callbacks receives the three event kinds a Subscriber can observe.
// Any of the three may be left nil to ignore that kind.
type Callbacks struct {
	OnStepStarted func(types.Step)
	OnStepEnded   func(types.StepResult)
	OnLog         func(level, message string)
}

// Subscriber connects to a running Server and dispatches incoming events
// to Callbacks until its context is cancelled. It reconnects with
// backoff on transport error, mirroring the resilience br_tester's CLI
// front end expects from a long-lived monitor connection.
type Subscriber struct {
	addr string
	cb   Callbacks
	log  zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// NewSubscriber creates a Subscriber that will dial addr once Run starts.
func NewSubscriber(addr string, cb Callbacks, log zerolog.Logger) *Subscriber {
	return &Subscriber{addr: addr, cb: cb, log: log, ready: make(chan struct{})}
}

// Run dials the bus and dispatches events until ctx is cancelled,
// reconnecting with exponential backoff (capped at 5s) on any transport
// error.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := dial(s.addr)
		if err != nil {
			s.log.Debug().Err(err).Dur("retry_in", backoff).Msg("eventbus: subscriber dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 100 * time.Millisecond
		s.readyOnce.Do(func() { close(s.ready) })

		if err := s.dispatchLoop(ctx, conn); err != nil {
			s.log.Debug().Err(err).Msg("eventbus: subscriber connection lost")
		}
		_ = conn.Close()
	}
}

// WaitUntilReady blocks until the first successful connection or ctx is
// cancelled.
func (s *Subscriber) WaitUntilReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Subscriber) dispatchLoop(ctx context.Context, conn io.Reader) error {
	r := bufio.NewReader(conn)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		payload, err := readFrame(r)
		if err != nil {
			return err
		}
		e, err := decodeEvent(payload)
		if err != nil {
			s.log.Warn().Err(err).Msg("eventbus: dropping malformed event")
			continue
		}
		s.dispatch(e)
	}
}

func (s *Subscriber) dispatch(e Event) {
	switch e.Kind {
	case EventStepStarted:
		if s.cb.OnStepStarted != nil && e.Step != nil {
			s.cb.OnStepStarted(fromWireStep(e.Step))
		}
	case EventStepEnded:
		if s.cb.OnStepEnded != nil && e.StepResult != nil {
			s.cb.OnStepEnded(fromWireStepResult(e.StepResult))
		}
	case EventLog:
		if s.cb.OnLog != nil {
			s.cb.OnLog(e.LogLevel, e.LogMessage)
		}
	}
}
