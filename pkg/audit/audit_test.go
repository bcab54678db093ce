package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

type fakeSink struct {
	mu      sync.Mutex
	records []Record
}

func (s *fakeSink) Append(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *fakeSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestQueue_EnqueueAndRunDelivers(t *testing.T) {
	sink := &fakeSink{}
	q := NewQueue(sink, 4, logr.Discard(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	q.Enqueue(Record{DocumentID: "t1", UserID: "u1", Timestamp: time.Unix(0, 0)})

	deadline := time.Now().Add(time.Second)
	for sink.len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if sink.len() != 1 {
		t.Fatalf("sink recorded %d entries, want 1", sink.len())
	}
}

func TestQueue_EnqueueDropsWhenFullAndCallsOnDrop(t *testing.T) {
	dropped := 0
	sink := &fakeSink{}
	q := NewQueue(sink, 1, logr.Discard(), func() { dropped++ })

	q.Enqueue(Record{DocumentID: "t1"})
	q.Enqueue(Record{DocumentID: "t2"}) // queue capacity 1, never drained

	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}
