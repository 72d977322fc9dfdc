package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rpay/chat-relay/internal/config"
	"github.com/rpay/chat-relay/internal/database"
	"github.com/rpay/chat-relay/internal/metrics"
	"github.com/rpay/chat-relay/internal/middleware"
	"github.com/rpay/chat-relay/internal/upstream/sarvam"
)

const maxRequestBody = 1 << 20

// statusClientClosedRequest marks requests whose caller left before any
// response was written.
const statusClientClosedRequest = 499

// Request outcomes, as recorded in metrics and the relay log.
const (
	outcomeCompleted = "completed"
	outcomeAborted   = "aborted"
	outcomeFailed    = "failed"
)

// Upstream opens a streamed completion call.
type Upstream interface {
	Stream(ctx context.Context, body []byte) (*http.Response, error)
	Endpoint() string
}

// RelayLogger persists one entry per finished request.
type RelayLogger interface {
	LogRelay(ctx context.Context, entry database.RelayLog) error
}

type Handler struct {
	upstream     Upstream
	generation   config.GenerationLimits
	systemPrompt string
	idleTimeout  time.Duration
	frontendDir  string

	logger       *log.Logger
	runnerLogger *log.Logger
	collector    *metrics.Collector
	stats        *metrics.Stats
	relayLog     RelayLogger // nil disables
}

func NewHandler(cfg *config.Config, upstream Upstream, logger *log.Logger, runnerLogger *log.Logger, collector *metrics.Collector, stats *metrics.Stats, relayLog RelayLogger) *Handler {
	return &Handler{
		upstream:     upstream,
		generation:   cfg.Generation,
		systemPrompt: cfg.SystemPrompt,
		idleTimeout:  cfg.Timeouts.StreamIdle,
		frontendDir:  cfg.FrontendDir,
		logger:       logger,
		runnerLogger: runnerLogger,
		collector:    collector,
		stats:        stats,
		relayLog:     relayLog,
	}
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status": "healthy", "service": "chat-relay"}`))
}

// chatRequest is the validated body of POST /chat.
type chatRequest struct {
	Message         string
	ReasoningEffort json.RawMessage // raw JSON, nil when absent
}

// HandleChat relays one chat message upstream and streams the reply back as
// plain text.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entry := database.RelayLog{
		RequestID: middleware.RequestIDFromContext(r.Context()),
		CreatedAt: start,
	}
	defer h.finish(&entry, start)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		h.fail(w, &entry, &RelayError{Kind: InvalidRequest, Status: http.StatusMethodNotAllowed, Message: "Method not allowed"})
		return
	}

	req, rerr := decodeChatRequest(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if rerr != nil {
		h.fail(w, &entry, rerr)
		return
	}
	if effort := gjson.ParseBytes(req.ReasoningEffort); sarvam.Truthy(effort) {
		entry.ReasoningEffort = truncate(effort.String(), 64)
	}

	body, err := sarvam.EncodeRequest(sarvam.CompletionRequest{
		Model:       h.generation.Model,
		Messages:    BuildMessages(h.systemPrompt, req.Message),
		Temperature: h.generation.Temperature,
		MaxTokens:   h.generation.MaxTokens,
		Stream:      true,
	}, req.ReasoningEffort)
	if err != nil {
		h.fail(w, &entry, errInternal(err))
		return
	}

	// Cancelling ctx releases the upstream connection on every exit path.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	resp, err := h.upstream.Stream(ctx, body)
	if err != nil {
		if r.Context().Err() != nil {
			entry.Outcome = outcomeAborted
			entry.Status = statusClientClosedRequest
			// Nobody reads this; it keeps the access log in step with the relay log.
			w.WriteHeader(statusClientClosedRequest)
			return
		}
		h.fail(w, &entry, errUpstreamUnavailable(err))
		return
	}
	defer resp.Body.Close()

	h.collector.ObserveUpstream(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		h.runnerLogger.Printf("ERROR [upstream] request_id=%s status=%d body=%s",
			entry.RequestID, resp.StatusCode, truncate(string(detail), 512))
		h.fail(w, &entry, errUpstreamHTTP(resp.StatusCode, sarvam.HTTPError(resp.StatusCode, h.upstream.Endpoint())))
		return
	}

	h.relay(ctx, cancel, w, r, resp.Body, &entry, start)
}

// decodeChatRequest accepts any JSON object with a non-empty string message.
func decodeChatRequest(body io.Reader) (chatRequest, *RelayError) {
	data, err := io.ReadAll(body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return chatRequest{}, errRequestTooLarge(tooLarge.Limit)
	}
	if err != nil || !gjson.ValidBytes(data) {
		return chatRequest{}, errInvalidRequest()
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return chatRequest{}, errInvalidRequest()
	}

	message := root.Get("message")
	if message.Type != gjson.String || message.Str == "" {
		return chatRequest{}, errInvalidRequest()
	}

	req := chatRequest{Message: message.Str}
	if effort := root.Get("reasoning_effort"); effort.Exists() {
		req.ReasoningEffort = json.RawMessage(effort.Raw)
	}
	return req, nil
}

// fail reports a pre-stream error to the caller and records it.
func (h *Handler) fail(w http.ResponseWriter, entry *database.RelayLog, e *RelayError) {
	entry.Outcome = outcomeFailed
	entry.Status = e.Status
	entry.Error = e.Error()

	if e.Kind == InternalError || e.Kind == UpstreamUnavailable {
		h.runnerLogger.Printf("ERROR [chat] request_id=%s %v", entry.RequestID, e)
	}
	writeError(w, e)
}

// finish records metrics, stats and the relay log for a request.
func (h *Handler) finish(entry *database.RelayLog, start time.Time) {
	entry.Duration = time.Since(start)
	if entry.Outcome == "" {
		// Only reachable through a panic; Recovery answers with a 500.
		entry.Outcome = outcomeFailed
		entry.Status = http.StatusInternalServerError
	}

	h.collector.ObserveRequest(entry.Outcome, entry.Status, entry.Duration)
	h.stats.Record(entry.Duration.Milliseconds(), entry.Outcome == outcomeCompleted, entry.Fragments)
	h.logger.Printf("chat request_id=%s outcome=%s status=%d fragments=%d bytes=%d duration=%s",
		entry.RequestID, entry.Outcome, entry.Status, entry.Fragments, entry.Bytes, entry.Duration)

	if h.relayLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.relayLog.LogRelay(ctx, *entry); err != nil {
		h.runnerLogger.Printf("WARN [relay-log] request_id=%s: %v", entry.RequestID, err)
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
