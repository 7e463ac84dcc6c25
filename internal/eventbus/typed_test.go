package eventbus

import "testing"

type toggled struct{ ShowNames bool }

func TestTypedBusDeliversValues(t *testing.T) {
	bus := NewTyped[toggled](0)
	sub := bus.Subscribe()
	if cap(sub) != DefaultBuffer {
		t.Fatalf("buffer = %d", cap(sub))
	}
	bus.Publish(toggled{ShowNames: true})
	if v := <-sub; !v.ShowNames {
		t.Fatalf("got %+v", v)
	}
	bus.Close()
	bus.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatalf("expected closed channel")
	}
}
