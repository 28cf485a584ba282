package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventProfileUpdated EventType = "profile_updated"
	EventPostCreated    EventType = "post_created"
	EventPostDeleted    EventType = "post_deleted"
	EventLikeToggled    EventType = "like_toggled"
	EventCommentCreated EventType = "comment_created"
)

type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent encodes data as the payload of an event of type t.
func NewEvent(t EventType, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Event{Type: t, Timestamp: time.Now().UTC(), Data: raw}, nil
}

// DecodeEvent parses a message value produced by Publish(NewEvent(...)).
func DecodeEvent(value []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(value, &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

// Payload decodes the event data into dest.
func (e Event) Payload(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

type UserEventData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

type PostEventData struct {
	PostID   string `json:"post_id"`
	UserID   string `json:"user_id"`
	Likes    int64  `json:"likes,omitempty"`
	Comments int64  `json:"comments,omitempty"`
}

type LikeEventData struct {
	UserID string `json:"user_id"`
	PostID string `json:"post_id"`
	Liked  bool   `json:"liked"`
}

type CommentEventData struct {
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
	PostID    string `json:"post_id"`
}
