package llmcall

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Recorder handles fire-and-forget call recording.
// Writes are queued and drained by a single goroutine; a nil Recorder is a no-op.
type Recorder struct {
	store  *Store
	logger *slog.Logger
	queue  chan *Call
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRecorder starts a recorder that writes into store.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		store:  store,
		logger: logger,
		queue:  make(chan *Call, 64),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for call := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.Insert(ctx, call); err != nil {
			r.logger.Warn("failed to record llm call", "id", call.ID, "error", err)
		}
		cancel()
	}
}

// RecordCall queues an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}
	r.queue <- call
}

// Close flushes pending writes. The underlying store stays open.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.queue)
		r.wg.Wait()
	})
}
