// Package audit appends best-effort download records to audit_downloads
// without ever delaying the response that triggered them (spec.md §4.7.6,
// §5: "a best-effort append that must not delay the response").
package audit

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
)

const auditDownloadsCollection = "audit_downloads"

// Record is one download event.
type Record struct {
	DocumentID string
	UserID     string
	IPAddress  string
	Timestamp  time.Time
}

// Sink persists a Record.
type Sink interface {
	Append(ctx context.Context, r Record) error
}

// GraphSink appends to audit_downloads via the graph store.
type GraphSink struct {
	Store graphstore.Store
}

func (s GraphSink) Append(ctx context.Context, r Record) error {
	_, err := s.Store.InsertVertex(ctx, auditDownloadsCollection, graphmodel.AuditDownload{
		DocumentID:   r.DocumentID,
		UserID:       r.UserID,
		DownloadedAt: r.Timestamp,
	})
	return err
}

// Queue is a bounded background worker: Enqueue never blocks the caller,
// dropping the record (and bumping onDrop) when the channel is full rather
// than applying backpressure to the HTTP request that triggered it.
type Queue struct {
	sink   Sink
	ch     chan Record
	log    logr.Logger
	onDrop func()
}

// NewQueue builds a Queue with the given channel capacity. onDrop may be
// nil; when set it's typically a Prometheus counter increment.
func NewQueue(sink Sink, capacity int, log logr.Logger, onDrop func()) *Queue {
	return &Queue{
		sink:   sink,
		ch:     make(chan Record, capacity),
		log:    log,
		onDrop: onDrop,
	}
}

// Enqueue submits r without blocking. A full queue drops the record.
func (q *Queue) Enqueue(r Record) {
	select {
	case q.ch <- r:
	default:
		if q.onDrop != nil {
			q.onDrop()
		}
		q.log.Info("audit: queue full, dropping download record", "document_id", r.DocumentID)
	}
}

// Run drains the queue until ctx is cancelled. It's meant to be started
// once at boot as a long-lived background task.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-q.ch:
			if err := q.sink.Append(context.Background(), r); err != nil {
				q.log.Error(err, "audit: failed to append download record", "document_id", r.DocumentID)
			}
		}
	}
}
