package notify

import "testing"

func TestEmitFansOut(t *testing.T) {
	b := NewBridge()

	var got []Event
	b.Subscribe(SubscriberFunc(func(ev Event) { got = append(got, ev) }))
	b.Subscribe(SubscriberFunc(func(ev Event) { got = append(got, ev) }))

	b.Emit(KindSynced, 3)

	if len(got) != 2 {
		t.Fatalf("deliveries: got %d, want 2", len(got))
	}
	for _, ev := range got {
		if ev.Kind != KindSynced || ev.Count != 3 {
			t.Errorf("event: got %s/%d, want synced/3", ev.Kind, ev.Count)
		}
		if ev.At.IsZero() {
			t.Error("event timestamp not set")
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBridge()

	count := 0
	unsub := b.Subscribe(SubscriberFunc(func(Event) { count++ }))

	b.Emit(KindQueued, 1)
	unsub()
	b.Emit(KindQueued, 1)

	if count != 1 {
		t.Errorf("deliveries: got %d, want 1", count)
	}
}

func TestEmitWithNoSubscribers(t *testing.T) {
	b := NewBridge()
	// Events fired before anyone subscribes are simply dropped.
	b.Emit(KindRecoveryExhausted, 0)

	seen := false
	b.Subscribe(SubscriberFunc(func(Event) { seen = true }))
	if seen {
		t.Error("late subscriber must not see earlier events")
	}
}
