package main

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/services"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

func TestSplitList(t *testing.T) {
	got := splitList(" Flux Schnell, ,Imagen 3,")
	want := []string{"Flux Schnell", "Imagen 3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitList = %v, want %v", got, want)
	}
	if len(splitList("")) != 0 {
		t.Fatal("expected empty list")
	}
}

func TestOrderKeys(t *testing.T) {
	items := []domain.GeneratedImage{{Label: "Image 1"}, {Label: "Image 2"}, {Label: "Image 3"}}
	got := orderKeys(items, []string{"3", "Image 1", "02", "9"})
	want := []string{"Image 3", "Image 1", "02", "9"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("orderKeys = %v, want %v", got, want)
	}
}

func TestSelectModels(t *testing.T) {
	catalog := []domain.Model{{Name: "Flux Schnell", ID: "a/flux"}, {Name: "Imagen 3", ID: "g/imagen"}}

	all, err := selectModels(catalog, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("default selection = %v, %v", all, err)
	}
	one, err := selectModels(catalog, "imagen 3")
	if err != nil || len(one) != 1 || one[0].ID != "g/imagen" {
		t.Fatalf("selection = %v, %v", one, err)
	}
	if _, err := selectModels(catalog, "Flux Schnell,Dall-E"); !errors.Is(err, domain.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"":                "<unset>",
		"short":           "****",
		"r8_abcdefghijkl": "r8_a...ijkl",
	}
	for in, want := range cases {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatEvent(t *testing.T) {
	ui := newUI()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	line := formatEvent(ui, domain.Event{Type: domain.EventTaskFinished, Task: "Flux", State: domain.StateTimeout, At: at})
	if !strings.Contains(line, "TIMEOUT") || !strings.Contains(line, "Flux") {
		t.Fatalf("unexpected line %q", line)
	}
	line = formatEvent(ui, domain.Event{Type: domain.EventTaskFinished, Task: "Imagen", State: domain.StateCompleted, Message: "backend: boom", At: at})
	if !strings.Contains(line, "FAIL") || !strings.Contains(line, "backend: boom") {
		t.Fatalf("unexpected line %q", line)
	}
	line = formatEvent(ui, domain.Event{Type: domain.EventSinkChanged, Index: 1, Length: 3, At: at})
	if !strings.Contains(line, "image 2/3") {
		t.Fatalf("unexpected line %q", line)
	}
	line = formatEvent(ui, domain.Event{Type: domain.EventBatchResolved, Message: "Generation complete: 2/2 images generated, 0 canceled, 0 timed out", At: at})
	if !strings.Contains(line, "Generation complete") {
		t.Fatalf("unexpected line %q", line)
	}
}

// resolvedBatch reports a resolved status and counts Wait calls.
type resolvedBatch struct {
	services.GenerationService
	waits int
}

func (r *resolvedBatch) PollStatus(id domain.BatchID) (domain.BatchStatus, error) {
	return domain.BatchStatus{ID: id, Total: 1, Completed: 1}, nil
}

func (r *resolvedBatch) Wait(ctx context.Context, id domain.BatchID) (domain.BatchStatus, error) {
	r.waits++
	return domain.BatchStatus{ID: id, Total: 1, Completed: 1}, nil
}

func TestTrackWaitsForResolvedBatch(t *testing.T) {
	gen := &resolvedBatch{}
	st, err := track(context.Background(), gen, "b1", 1, newUI())
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if st.Completed != 1 || gen.waits != 1 {
		t.Fatalf("status=%+v waits=%d", st, gen.waits)
	}
}
