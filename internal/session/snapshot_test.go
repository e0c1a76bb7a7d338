package session

import "testing"

func TestStateText(t *testing.T) {
	for _, st := range []State{NotStarted, Active, Finished} {
		text, err := st.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", st, err)
		}
		var got State
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if got != st {
			t.Fatalf("expected %v, got %v", st, got)
		}
	}
	var st State
	if err := st.UnmarshalText([]byte("paused")); err == nil {
		t.Fatalf("expected error for unknown state")
	}
}
