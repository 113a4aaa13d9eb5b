package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/osvaldoandrade/imagegenie/internal/sink"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus(4)
	a, cancelA := bus.Subscribe()
	b, cancelB := bus.Subscribe()
	defer cancelA()
	defer cancelB()

	bus.Publish(domain.Event{Type: domain.EventTaskFinished, Task: "Flux Schnell"})

	for _, ch := range []<-chan domain.Event{a, b} {
		select {
		case e := <-ch:
			if e.Task != "Flux Schnell" {
				t.Fatalf("unexpected event %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(domain.Event{Type: domain.EventSinkChanged, Index: 0})
	bus.Publish(domain.Event{Type: domain.EventSinkChanged, Index: 1})

	if got := bus.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped delivery, got %d", got)
	}
	if e := <-ch; e.Index != 0 {
		t.Fatalf("expected first event to be kept, got %+v", e)
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	bus.Publish(domain.Event{Type: domain.EventBatchResolved})
}

func TestRelayRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	relay := NewRelay(client, "imagegenie:test", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan domain.Event, 1)
	listening := make(chan error, 1)
	go func() {
		listening <- relay.Listen(ctx, func(e domain.Event) {
			select {
			case got <- e:
			default:
			}
			cancel()
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(mr.PubSubChannels("")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("listener never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	bus := NewBus(4)
	go relay.Forward(ctx, bus)
	// Forward subscribes asynchronously; keep publishing until the listener sees one.
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case e := <-got:
			if e.Type != domain.EventSinkChanged || e.Length != 3 {
				t.Fatalf("unexpected relayed event %+v", e)
			}
			if err := <-listening; err != nil {
				t.Fatalf("listen: %v", err)
			}
			return
		case <-tick.C:
			bus.Publish(domain.Event{Type: domain.EventSinkChanged, Index: 2, Length: 3})
		case <-ctx.Done():
			select {
			case e := <-got:
				if e.Length != 3 {
					t.Fatalf("unexpected relayed event %+v", e)
				}
				return
			default:
			}
			t.Fatal("timed out waiting for relayed event")
		}
	}
}

func TestSinkViewerPublishesMutations(t *testing.T) {
	bus := NewBus(8)
	ch, cancel := bus.Subscribe()
	defer cancel()

	s := sink.New()
	detach := s.Attach(NewSinkViewer(bus))
	defer detach()
	s.AppendOrReplace(domain.GeneratedImage{Name: "Recraft-v3"})

	<-ch // attach refresh
	e := <-ch
	if e.Type != domain.EventSinkChanged || e.Task != "Recraft-v3" || e.Length != 1 || e.Index != 0 {
		t.Fatalf("unexpected event %+v", e)
	}
}
