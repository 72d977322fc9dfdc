package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rpay/chat-relay/internal/database"
	"github.com/rpay/chat-relay/internal/upstream/sarvam"
)

type streamOutcome struct {
	result sarvam.StreamResult
	err    error
}

// relay copies content deltas from an upstream SSE body to w as raw text,
// flushing after every fragment. Once the 200 is written nothing can turn
// into an error response; failures just end the stream.
func (h *Handler) relay(ctx context.Context, cancel context.CancelFunc, w http.ResponseWriter, r *http.Request, upstreamBody io.Reader, entry *database.RelayLog, start time.Time) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	entry.Status = http.StatusOK

	rc := http.NewResponseController(w)
	rc.Flush()

	h.collector.ActiveStreams.Inc()
	defer h.collector.ActiveStreams.Dec()

	var idle *idleReader
	if h.idleTimeout > 0 {
		idle = newIdleReader(upstreamBody, h.idleTimeout, cancel)
		defer idle.stop()
		upstreamBody = idle
	}

	fragments := make(chan string)
	done := make(chan streamOutcome, 1)
	go func() {
		res, err := sarvam.StreamDeltas(ctx, upstreamBody, fragments)
		close(fragments)
		done <- streamOutcome{result: res, err: err}
	}()

	var writeErr error
	for delta := range fragments {
		if writeErr != nil {
			continue // drain until the producer sees the cancellation
		}
		if _, err := io.WriteString(w, delta); err != nil {
			writeErr = err
			cancel()
			continue
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			writeErr = err
			cancel()
			continue
		}
		if idle != nil {
			idle.touch()
		}
		if entry.Fragments == 0 {
			h.collector.TimeToFirstDelta.Observe(time.Since(start).Seconds())
		}
		entry.Fragments++
		entry.Bytes += len(delta)
		h.collector.FragmentsTotal.Inc()
	}

	out := <-done
	entry.SkippedFrames = out.result.Skipped
	h.collector.SkippedFrames.Add(float64(out.result.Skipped))

	switch {
	case writeErr != nil || r.Context().Err() != nil:
		entry.Outcome = outcomeAborted
		h.runnerLogger.Printf("WARN [stream] request_id=%s caller went away after %d fragments",
			entry.RequestID, entry.Fragments)
	case out.err == nil:
		entry.Outcome = outcomeCompleted
		if !out.result.Done {
			h.runnerLogger.Printf("WARN [stream] request_id=%s upstream closed without [DONE]", entry.RequestID)
		}
	case idle != nil && idle.expired() && isCancellation(out.err):
		entry.Outcome = outcomeFailed
		entry.Error = "upstream stream idle for " + h.idleTimeout.String()
		h.runnerLogger.Printf("WARN [stream] request_id=%s %s", entry.RequestID, entry.Error)
	default:
		entry.Outcome = outcomeFailed
		entry.Error = out.err.Error()
		h.runnerLogger.Printf("WARN [stream] request_id=%s upstream read failed: %v", entry.RequestID, out.err)
	}
}

// idleReader cancels the upstream request when no progress is made for
// timeout. Progress is either a read returning or a fragment delivered.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	fired   atomic.Bool
}

func newIdleReader(r io.Reader, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	ir := &idleReader{r: r, timeout: timeout}
	ir.timer = time.AfterFunc(timeout, func() {
		ir.fired.Store(true)
		cancel()
	})
	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	ir.touch()
	return n, err
}

func (ir *idleReader) touch() {
	if !ir.fired.Load() {
		ir.timer.Reset(ir.timeout)
	}
}

func (ir *idleReader) expired() bool {
	return ir.fired.Load()
}

func (ir *idleReader) stop() {
	ir.timer.Stop()
}
