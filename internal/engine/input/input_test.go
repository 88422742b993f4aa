package input

import "testing"

func TestStateKeys(t *testing.T) {
	s := NewState()
	s.Apply(Event{Type: EventKeyDown, Key: KeyW})
	s.Apply(Event{Type: EventKeyDown, Key: KeyW}) // repeat

	if !s.Held(KeyW) || !s.Pressed(KeyW) {
		t.Fatal("W should be held and pressed")
	}
	if got := s.Axis(KeyW, KeyS); got != 1 {
		t.Errorf("Axis = %v, want 1", got)
	}

	s.EndTick()
	if s.Pressed(KeyW) {
		t.Error("press should clear after tick")
	}
	if !s.Held(KeyW) {
		t.Error("hold should persist after tick")
	}

	s.Apply(Event{Type: EventKeyDown, Key: KeyS})
	if got := s.Axis(KeyW, KeyS); got != 0 {
		t.Errorf("Axis with both held = %v, want 0", got)
	}
	s.Apply(Event{Type: EventKeyUp, Key: KeyW})
	if got := s.Axis(KeyW, KeyS); got != -1 {
		t.Errorf("Axis = %v, want -1", got)
	}
}

func TestStateMouse(t *testing.T) {
	s := NewState()
	s.Apply(Event{Type: EventMouseDown, Button: ButtonLeft})
	s.Apply(Event{Type: EventMouseMove, MouseX: 10, MouseY: 5, DeltaX: 3, DeltaY: 1})
	s.Apply(Event{Type: EventMouseMove, MouseX: 12, MouseY: 6, DeltaX: 2, DeltaY: 1})
	s.Apply(Event{Type: EventMouseWheel, DeltaY: -1})

	if s.DeltaX != 5 || s.DeltaY != 2 {
		t.Errorf("delta = (%v, %v), want (5, 2)", s.DeltaX, s.DeltaY)
	}
	if s.MouseX != 12 || s.MouseY != 6 {
		t.Errorf("position = (%d, %d)", s.MouseX, s.MouseY)
	}
	if s.Wheel != -1 {
		t.Errorf("wheel = %v", s.Wheel)
	}
	if !s.Button(ButtonLeft) {
		t.Error("left button should be down")
	}

	s.EndTick()
	if s.DeltaX != 0 || s.DeltaY != 0 || s.Wheel != 0 {
		t.Error("deltas should clear after tick")
	}

	s.Apply(Event{Type: EventMouseLeave})
	if s.Inside || s.Button(ButtonLeft) {
		t.Error("leaving the viewport should release buttons")
	}
}

func TestStateFocusLost(t *testing.T) {
	s := NewState()
	s.Apply(Event{Type: EventKeyDown, Key: KeyD})
	s.Apply(Event{Type: EventFocusLost})

	if s.Focused || s.Held(KeyD) {
		t.Error("losing focus should release keys")
	}
	s.Apply(Event{Type: EventFocusGained})
	if !s.Focused {
		t.Error("focus not restored")
	}
}
