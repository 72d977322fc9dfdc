package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RelayLog is one row per /chat request. Message text and replies are never stored.
type RelayLog struct {
	RequestID       string
	Status          int
	Outcome         string
	Fragments       int
	Bytes           int
	SkippedFrames   int
	ReasoningEffort string
	Error           string
	Duration        time.Duration
	CreatedAt       time.Time
}

// LogRelay inserts a relay log entry for a finished request
func (db *DB) LogRelay(ctx context.Context, entry RelayLog) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO relay_logs
		    (request_id, status, outcome, fragments, bytes, skipped_frames, reasoning_effort, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.Status, entry.Outcome, entry.Fragments, entry.Bytes,
		entry.SkippedFrames, nullString(entry.ReasoningEffort), nullString(entry.Error),
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to log relay: %w", err)
	}
	return nil
}

// RecentRelays returns up to limit entries, newest first
func (db *DB) RecentRelays(ctx context.Context, limit int) ([]RelayLog, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT request_id, status, outcome, fragments, bytes, skipped_frames,
		        COALESCE(reasoning_effort, ''), COALESCE(error, ''), duration_ms, created_at
		   FROM relay_logs
		  ORDER BY log_id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query relay logs: %w", err)
	}
	defer rows.Close()

	var logs []RelayLog
	for rows.Next() {
		var (
			entry      RelayLog
			durationMs int64
		)
		if err := rows.Scan(&entry.RequestID, &entry.Status, &entry.Outcome, &entry.Fragments,
			&entry.Bytes, &entry.SkippedFrames, &entry.ReasoningEffort, &entry.Error,
			&durationMs, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relay log: %w", err)
		}
		entry.Duration = time.Duration(durationMs) * time.Millisecond
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read relay logs: %w", err)
	}
	return logs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
