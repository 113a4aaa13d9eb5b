package domain

import (
	"encoding"
	"fmt"
	"time"
)

type TaskState string

const (
	StateQueued    TaskState = "queued"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateCanceled  TaskState = "canceled"
	StateTimeout   TaskState = "timeout"
)

// Terminal reports whether no further transition is allowed from s.
func (s TaskState) Terminal() bool {
	switch s {
	case StateCompleted, StateCanceled, StateTimeout:
		return true
	}
	return false
}

// CanTransition reports whether s may move to next.
// queued -> running|canceled, running -> completed|canceled|timeout.
func (s TaskState) CanTransition(next TaskState) bool {
	switch s {
	case StateQueued:
		return next == StateRunning || next == StateCanceled
	case StateRunning:
		return next == StateCompleted || next == StateCanceled || next == StateTimeout
	}
	return false
}

var (
	_ encoding.BinaryMarshaler = TaskState("")
	_ encoding.TextMarshaler   = TaskState("")
)

func (s TaskState) MarshalBinary() ([]byte, error) { return []byte(string(s)), nil }
func (s TaskState) MarshalText() ([]byte, error)   { return []byte(string(s)), nil }

type BatchID string

// GenerationTask is one (model, replicate) unit of a batch.
type GenerationTask struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	ModelName string    `json:"modelName"`
	ModelID   string    `json:"modelId"`
	Prompt    string    `json:"prompt"`
	State     TaskState `json:"state"`
	// Error holds the diagnostic of a task that completed without a record.
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	StartedAt   time.Time `json:"startedAt,omitempty"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
}

type BatchRequest struct {
	Models             []Model       `json:"models"`
	Prompt             string        `json:"prompt"`
	ReplicatesPerModel int           `json:"replicatesPerModel"`
	TaskTimeout        time.Duration `json:"taskTimeout"`
	// Anonymize labels records "Image N" (arena mode).
	Anonymize bool   `json:"anonymize"`
	UserID    string `json:"userId,omitempty"`
}

type BatchStatus struct {
	ID        BatchID `json:"id"`
	Total     int     `json:"total"`
	Queued    int     `json:"queued"`
	Running   int     `json:"running"`
	Completed int     `json:"completed"`
	Canceled  int     `json:"canceled"`
	Timeout   int     `json:"timeout"`
	Failed    int     `json:"failed"`
}

func (s BatchStatus) Active() int { return s.Queued + s.Running }

func (s BatchStatus) Resolved() bool { return s.Active() == 0 }

func (s BatchStatus) Summary() string {
	if !s.Resolved() {
		return fmt.Sprintf("Generating: %d/%d completed, %d canceled, %d timed out, %d active",
			s.Completed, s.Total, s.Canceled, s.Timeout, s.Active())
	}
	return fmt.Sprintf("Generation complete: %d/%d images generated, %d canceled, %d timed out",
		s.Completed-s.Failed, s.Total, s.Canceled, s.Timeout)
}
