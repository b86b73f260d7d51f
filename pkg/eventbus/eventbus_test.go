package eventbus

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoyoqui/benderr/pkg/types"
)

func testAddr(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "events.sock")
}

func startServer(t *testing.T, addr string) (*Server, func()) {
	t.Helper()
	srv := NewServer(addr, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(addr)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	return srv, func() {
		cancel()
		_ = srv.Close()
	}
}

func TestSubscriber_ReceivesStepStartedAndEnded(t *testing.T) {
	addr := testAddr(t)
	srv, stop := startServer(t, addr)
	defer stop()

	var mu sync.Mutex
	var started []types.Step
	var ended []types.StepResult

	sub := NewSubscriber(addr, Callbacks{
		OnStepStarted: func(s types.Step) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, s)
		},
		OnStepEnded: func(r types.StepResult) {
			mu.Lock()
			defer mu.Unlock()
			ended = append(ended, r)
		},
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Run(ctx) }()
	require.NoError(t, sub.WaitUntilReady(ctx))

	srv.PublishStepStarted(types.Step{ID: 1, Name: "warm up"})
	srv.PublishStepEnded(types.StepResult{ID: 1, Name: "warm up", Verdict: types.VerdictPassed})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 1 && len(ended) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "warm up", started[0].Name)
	assert.Equal(t, types.VerdictPassed, ended[0].Verdict)
}

func TestSubscriber_ReceivesLogEvents(t *testing.T) {
	addr := testAddr(t)
	srv, stop := startServer(t, addr)
	defer stop()

	logs := make(chan string, 4)
	sub := NewSubscriber(addr, Callbacks{
		OnLog: func(level, message string) { logs <- message },
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Run(ctx) }()
	require.NoError(t, sub.WaitUntilReady(ctx))

	srv.PublishLog("info", "hello")

	select {
	case msg := <-logs:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for log event")
	}
}

func TestEnqueue_DropsOldestLogBeforeStepEvents(t *testing.T) {
	queue := []Event{
		{Kind: EventLog, LogMessage: "l1"},
		{Kind: EventStepStarted},
		{Kind: EventLog, LogMessage: "l2"},
	}
	next := enqueue(queue, Event{Kind: EventStepEnded}, 3)
	require.Len(t, next, 3)
	assert.Equal(t, EventStepStarted, next[0].Kind)
	assert.Equal(t, EventLog, next[1].Kind)
	assert.Equal(t, "l2", next[1].LogMessage)
	assert.Equal(t, EventStepEnded, next[2].Kind)
}

func TestEnqueue_DropsIncomingLogWhenFullOfStepEvents(t *testing.T) {
	queue := []Event{{Kind: EventStepStarted}, {Kind: EventStepEnded}}
	next := enqueue(queue, Event{Kind: EventLog, LogMessage: "new"}, 2)
	require.Len(t, next, 2)
	assert.Equal(t, EventStepStarted, next[0].Kind)
	assert.Equal(t, EventStepEnded, next[1].Kind)
}

func TestEnqueue_LifecycleEventGrowsQueuePastLimitWhenFullOfLifecycleEvents(t *testing.T) {
	queue := []Event{{Kind: EventStepStarted}, {Kind: EventStepEnded}}
	next := enqueue(queue, Event{Kind: EventStepStarted}, 2)
	require.Len(t, next, 3)
	assert.Equal(t, EventStepStarted, next[0].Kind)
	assert.Equal(t, EventStepEnded, next[1].Kind)
	assert.Equal(t, EventStepStarted, next[2].Kind)
}
