package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventKind string

const (
	EventAdded      EventKind = "added"
	EventRemovedAt  EventKind = "removed_at"
	EventClearedAll EventKind = "cleared_all"
)

var EventKindMap = map[EventKind]bool{
	EventAdded:      true,
	EventRemovedAt:  true,
	EventClearedAll: true,
}

// UploadEvent is delivered to the caller for every change of a draft's attachments.
// URL is set only for Added, Index only for RemovedAt.
type UploadEvent struct {
	ID        int64     `json:"id,omitempty"`
	DraftID   string    `json:"draft_id"`
	Kind      EventKind `json:"kind"`
	URL       string    `json:"url,omitempty"`
	Index     int       `json:"index"`
	CreatedAt time.Time `json:"created_at"`
}

func Added(draftID, url string) UploadEvent {
	return UploadEvent{DraftID: draftID, Kind: EventAdded, URL: url, CreatedAt: time.Now().UTC()}
}

func RemovedAt(draftID string, index int) UploadEvent {
	return UploadEvent{DraftID: draftID, Kind: EventRemovedAt, Index: index, CreatedAt: time.Now().UTC()}
}

func ClearedAll(draftID string) UploadEvent {
	return UploadEvent{DraftID: draftID, Kind: EventClearedAll, CreatedAt: time.Now().UTC()}
}

// LegacyCallbackValue is the string an old-style per-URL callback receives:
// the URL for Added and "" for both removal kinds.
func LegacyCallbackValue(e UploadEvent) string {
	if e.Kind == EventAdded {
		return e.URL
	}
	return ""
}

func EncodeEvent(e UploadEvent) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(b []byte) (UploadEvent, error) {
	var e UploadEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return UploadEvent{}, fmt.Errorf("failed to unmarshal upload event: %w", err)
	}
	if !EventKindMap[e.Kind] {
		return UploadEvent{}, ErrUnsupportedEvent
	}
	return e, nil
}
