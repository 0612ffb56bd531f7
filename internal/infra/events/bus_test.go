package events

import (
	"testing"

	"github.com/wildhash/agentpay/internal/domain"
)

func TestBus_SubscriberReceives(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Emit(domain.Event{ID: 1, Type: domain.EventTaskCreated, TaskID: 42})

	ev := <-ch
	if ev.ID != 1 {
		t.Errorf("ID = %d, want 1", ev.ID)
	}
	if ev.Type != domain.EventTaskCreated {
		t.Errorf("Type = %q, want %q", ev.Type, domain.EventTaskCreated)
	}
	if ev.TaskID != 42 {
		t.Errorf("TaskID = %d, want 42", ev.TaskID)
	}
}

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Emit(domain.Event{ID: 1, Type: domain.EventTaskSubmitted})

	if ev := <-ch1; ev.Type != domain.EventTaskSubmitted {
		t.Errorf("subscriber 1 got %q, want %q", ev.Type, domain.EventTaskSubmitted)
	}
	if ev := <-ch2; ev.Type != domain.EventTaskSubmitted {
		t.Errorf("subscriber 2 got %q, want %q", ev.Type, domain.EventTaskSubmitted)
	}
}

func TestBus_SlowSubscriberDoesNotBlockEmit(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	slow, cancelSlow := bus.Subscribe()
	defer cancelSlow()

	// Overfill the slow subscriber's buffer. Emit must return without
	// blocking even though nothing drains the channel.
	total := subscriberBuffer + 10
	for i := 0; i < total; i++ {
		bus.Emit(domain.Event{ID: uint64(i + 1), Type: domain.EventTaskCreated})
	}

	if got := len(slow); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", got, subscriberBuffer)
	}

	// The replay window still holds everything the subscriber lost.
	recent := bus.Recent(0)
	if len(recent) != total {
		t.Errorf("Recent() returned %d events, want %d", len(recent), total)
	}
}

func TestBus_Recent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	for i := 1; i <= 5; i++ {
		bus.Emit(domain.Event{ID: uint64(i), Type: domain.EventTaskCreated})
	}

	recent := bus.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("Recent(3) returned %d events, want 3", len(recent))
	}
	for i, want := range []uint64{3, 4, 5} {
		if recent[i].ID != want {
			t.Errorf("recent[%d].ID = %d, want %d", i, recent[i].ID, want)
		}
	}

	if got := len(bus.Recent(0)); got != 5 {
		t.Errorf("Recent(0) returned %d events, want 5", got)
	}
	if got := len(bus.Recent(100)); got != 5 {
		t.Errorf("Recent(100) returned %d events, want 5", got)
	}
}

func TestBus_RecentWindowTrimsOldest(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	total := recentLimit + 20
	for i := 1; i <= total; i++ {
		bus.Emit(domain.Event{ID: uint64(i)})
	}

	recent := bus.Recent(0)
	if len(recent) != recentLimit {
		t.Fatalf("window holds %d events, want %d", len(recent), recentLimit)
	}
	if recent[0].ID != uint64(total-recentLimit+1) {
		t.Errorf("oldest retained ID = %d, want %d", recent[0].ID, total-recentLimit+1)
	}
	if recent[len(recent)-1].ID != uint64(total) {
		t.Errorf("newest retained ID = %d, want %d", recent[len(recent)-1].ID, total)
	}
}

func TestBus_CancelUnsubscribes(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}

	// Cancelling twice must not panic.
	cancel()

	// Emit after cancel reaches remaining subscribers only.
	other, cancelOther := bus.Subscribe()
	defer cancelOther()
	bus.Emit(domain.Event{ID: 1, Type: domain.EventTaskResolved})
	if ev := <-other; ev.ID != 1 {
		t.Errorf("remaining subscriber got ID %d, want 1", ev.ID)
	}
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("channel still open after Close")
	}

	// Emit and a second Close are no-ops on a closed bus.
	bus.Emit(domain.Event{ID: 1})
	bus.Close()

	// Subscribing after Close yields an already-closed channel.
	late, cancelLate := bus.Subscribe()
	defer cancelLate()
	if _, ok := <-late; ok {
		t.Error("post-Close subscription delivered an event")
	}
}
