// ABOUTME: Activity log entity and store methods for client and profile changes
// ABOUTME: Records what changed and when so the feed can show recent edits

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ActivityAction represents a recorded change.
type ActivityAction string

const (
	ActivityClientCreated ActivityAction = "client_created"
	ActivityClientUpdated ActivityAction = "client_updated"
	ActivityClientDeleted ActivityAction = "client_deleted"
	ActivityProfileSaved  ActivityAction = "profile_saved"
)

// activityTimeLayout is fixed width so ts sorts correctly as text.
const activityTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ActivityEntry represents a single activity log entry.
type ActivityEntry struct {
	ID        string         `json:"id"`
	Action    ActivityAction `json:"action"`
	TargetID  string         `json:"target_id"` // client id, or "profile"
	Timestamp time.Time      `json:"timestamp"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// ClientTarget formats a client ID for ActivityEntry.TargetID.
func ClientTarget(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ActivityFilter specifies filtering options for listing activity.
type ActivityFilter struct {
	Since    *time.Time
	Action   *ActivityAction
	TargetID *string
	Limit    int // default 100, max 1000
}

// AppendActivity appends a new entry to the activity log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendActivity(ctx context.Context, e *ActivityEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}

	var detailJSON *string
	if e.Detail != nil {
		data, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("marshaling activity detail: %w", err)
		}
		str := string(data)
		detailJSON = &str
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (activity_id, action, target_id, ts, detail_json)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Action, e.TargetID, e.Timestamp.UTC().Format(activityTimeLayout), detailJSON)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}

	s.logger.Debug("appended activity", "id", e.ID, "action", e.Action, "target", e.TargetID)
	return nil
}

// normalizeActivityLimit applies default (100) and cap (1000).
func normalizeActivityLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

const activityQuery = `
	SELECT activity_id, action, target_id, ts, detail_json
	FROM activity_log
	WHERE (? IS NULL OR ts >= ?)
	  AND (? IS NULL OR action = ?)
	  AND (? IS NULL OR target_id = ?)
	ORDER BY ts DESC, rowid DESC
	LIMIT ?
`

// ListActivity returns entries matching the filter, newest first.
func (s *SQLiteStore) ListActivity(ctx context.Context, f ActivityFilter) ([]ActivityEntry, error) {
	var sinceStr, actionStr *string
	if f.Since != nil {
		v := f.Since.UTC().Format(activityTimeLayout)
		sinceStr = &v
	}
	if f.Action != nil {
		v := string(*f.Action)
		actionStr = &v
	}

	rows, err := s.db.QueryContext(ctx, activityQuery,
		sinceStr, sinceStr,
		actionStr, actionStr,
		f.TargetID, f.TargetID,
		normalizeActivityLimit(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []ActivityEntry{}
	for rows.Next() {
		var e ActivityEntry
		var action, ts string
		var detailJSON *string
		if err := rows.Scan(&e.ID, &action, &e.TargetID, &ts, &detailJSON); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.Action = ActivityAction(action)
		if e.Timestamp, err = time.Parse(activityTimeLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		if detailJSON != nil {
			if err := json.Unmarshal([]byte(*detailJSON), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshaling detail: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity entries: %w", err)
	}
	return entries, nil
}
