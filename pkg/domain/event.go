package domain

import "time"

type EventType string

const (
	EventTaskFinished  EventType = "task.finished"
	EventSinkChanged   EventType = "sink.changed"
	EventBatchResolved EventType = "batch.resolved"
)

// Event is emitted by the coordinator for the embedding application's loop.
type Event struct {
	Type    EventType `json:"type"`
	BatchID BatchID   `json:"batchId,omitempty"`
	Task    string    `json:"task,omitempty"`
	State   TaskState `json:"state,omitempty"`
	Index   int       `json:"index,omitempty"`
	Length  int       `json:"length,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}
