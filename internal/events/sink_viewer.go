package events

import (
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/sink"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

// SinkViewer publishes a sink.changed event for every carousel mutation, so
// viewers outside the process (or outside the UI goroutine) can follow along.
type SinkViewer struct {
	bus *Bus
	now func() time.Time
}

func NewSinkViewer(bus *Bus) *SinkViewer {
	return &SinkViewer{bus: bus, now: time.Now}
}

func (v *SinkViewer) Refresh(view sink.View) {
	e := domain.Event{
		Type:   domain.EventSinkChanged,
		Index:  view.Cursor,
		Length: len(view.Items),
		At:     v.now(),
	}
	if cur, ok := view.Current(); ok {
		e.Task = cur.Name
	}
	v.bus.Publish(e)
}
