package domain

import (
	"strings"
	"testing"
)

func TestTaskStateMarshalText(t *testing.T) {
	tests := []struct {
		name  string
		state TaskState
		want  string
	}{
		{"queued", StateQueued, "queued"},
		{"running", StateRunning, "running"},
		{"completed", StateCompleted, "completed"},
		{"canceled", StateCanceled, "canceled"},
		{"timeout", StateTimeout, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.state.MarshalText()
			if err != nil {
				t.Errorf("MarshalText() error = %v", err)
				return
			}
			if string(got) != tt.want {
				t.Errorf("MarshalText() = %v, want %v", string(got), tt.want)
			}
			bin, _ := tt.state.MarshalBinary()
			if string(bin) != tt.want {
				t.Errorf("MarshalBinary() = %v, want %v", string(bin), tt.want)
			}
		})
	}
}

func TestTaskStateTransitions(t *testing.T) {
	tests := []struct {
		from, to TaskState
		want     bool
	}{
		{StateQueued, StateRunning, true},
		{StateQueued, StateCanceled, true},
		{StateQueued, StateTimeout, false},
		{StateQueued, StateCompleted, false},
		{StateRunning, StateCompleted, true},
		{StateRunning, StateCanceled, true},
		{StateRunning, StateTimeout, true},
		{StateRunning, StateQueued, false},
		{StateCompleted, StateRunning, false},
		{StateCanceled, StateQueued, false},
		{StateTimeout, StateCompleted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTaskStateTerminal(t *testing.T) {
	if StateQueued.Terminal() || StateRunning.Terminal() {
		t.Fatal("queued and running must not be terminal")
	}
	for _, s := range []TaskState{StateCompleted, StateCanceled, StateTimeout} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
}

func TestBatchStatusSummary(t *testing.T) {
	active := BatchStatus{Total: 4, Queued: 1, Running: 1, Completed: 1, Timeout: 1}
	if active.Resolved() {
		t.Fatal("expected unresolved batch")
	}
	if got := active.Summary(); got != "Generating: 1/4 completed, 0 canceled, 1 timed out, 2 active" {
		t.Errorf("unexpected summary %q", got)
	}

	done := BatchStatus{Total: 3, Completed: 2, Failed: 1, Canceled: 1}
	if !done.Resolved() {
		t.Fatal("expected resolved batch")
	}
	if got := done.Summary(); !strings.HasPrefix(got, "Generation complete: 1/3 images generated") {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestFindModel(t *testing.T) {
	models := DefaultModels()
	if len(models) != 7 {
		t.Fatalf("expected 7 default models, got %d", len(models))
	}
	m, ok := FindModel(models, "  flux schnell ")
	if !ok {
		t.Fatal("expected Flux Schnell to be found")
	}
	if m.ID != "black-forest-labs/flux-schnell" {
		t.Errorf("unexpected id %s", m.ID)
	}
	if _, ok := FindModel(models, "nope"); ok {
		t.Error("expected unknown model lookup to fail")
	}
}
