package proxy

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/rpay/chat-relay/internal/database"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// RelayHistory reads back the newest relay log entries.
type RelayHistory interface {
	RecentRelays(ctx context.Context, limit int) ([]database.RelayLog, error)
}

type relaySummary struct {
	RequestID       string    `json:"request_id"`
	Status          int       `json:"status"`
	Outcome         string    `json:"outcome"`
	Fragments       int       `json:"fragments"`
	Bytes           int       `json:"bytes"`
	SkippedFrames   int       `json:"skipped_frames"`
	ReasoningEffort string    `json:"reasoning_effort,omitempty"`
	Error           string    `json:"error,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// HandleRecentRelays serves GET /relays?limit=N, newest first.
func HandleRecentRelays(history RelayHistory, runnerLogger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, &RelayError{Kind: InvalidRequest, Status: http.StatusBadRequest, Message: "limit must be a positive integer"})
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		entries, err := history.RecentRelays(r.Context(), limit)
		if err != nil {
			runnerLogger.Printf("ERROR [relay-log] %v", err)
			writeError(w, errInternal(err))
			return
		}

		relays := make([]relaySummary, 0, len(entries))
		for _, e := range entries {
			relays = append(relays, relaySummary{
				RequestID:       e.RequestID,
				Status:          e.Status,
				Outcome:         e.Outcome,
				Fragments:       e.Fragments,
				Bytes:           e.Bytes,
				SkippedFrames:   e.SkippedFrames,
				ReasoningEffort: e.ReasoningEffort,
				Error:           e.Error,
				DurationMs:      e.Duration.Milliseconds(),
				CreatedAt:       e.CreatedAt,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"relays": relays})
	}
}
