package sqlite

import (
	"context"
	"time"
)

// EventType names a store lifecycle event.
type EventType string

const (
	QueryStart    EventType = "query:start"
	QuerySuccess  EventType = "query:success"
	QueryFailed   EventType = "query:failed"
	InsertStart   EventType = "insert:start"
	InsertSuccess EventType = "insert:success"
	InsertFailed  EventType = "insert:failed"
	DeleteStart   EventType = "delete:start"
	DeleteSuccess EventType = "delete:success"
	DeleteFailed  EventType = "delete:failed"
)

// Event describes one store operation.
type Event struct {
	Type EventType `json:"type"`
	// Timestamp is in Unix milliseconds.
	Timestamp  int64  `json:"timestamp"`
	Operation  string `json:"operation"`
	Collection string `json:"collection"`
	SQL        string `json:"sql,omitempty"`
	Params     []any  `json:"params,omitempty"`
	// Count is the number of rows returned or affected.
	Count int64   `json:"count,omitempty"`
	Error *string `json:"error,omitempty"`
	// Duration is in milliseconds and set once the operation completes.
	Duration *int64 `json:"duration,omitempty"`
	Filter   string `json:"filter,omitempty"`
	Sort     string `json:"sort,omitempty"`
}

// EventHandler receives store events.
type EventHandler func(ctx context.Context, event Event) error

func newEvent(typ EventType, operation, collection string, started time.Time) Event {
	e := Event{
		Type:       typ,
		Timestamp:  time.Now().UnixMilli(),
		Operation:  operation,
		Collection: collection,
	}
	if typ != QueryStart && typ != InsertStart && typ != DeleteStart {
		d := time.Since(started).Milliseconds()
		e.Duration = &d
	}
	return e
}
