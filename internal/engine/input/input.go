// Package input tracks pointer and keyboard state between ticks.
package input

// EventType identifies a host input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
	EventMouseEnter
	EventMouseLeave
	EventFocusGained
	EventFocusLost
)

// Key is a keyboard key the viewer reacts to.
type Key int

const (
	KeyNone Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyR
	KeyF12
	KeyEscape
)

// Mouse buttons.
const (
	ButtonLeft   uint8 = 1
	ButtonMiddle uint8 = 2
	ButtonRight  uint8 = 3
)

// Event is one processed host event.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX float32
	DeltaY float32
	Button uint8
}

// State accumulates events between ticks. Deltas and presses are cleared by
// EndTick; held keys and buttons persist until released.
type State struct {
	MouseX, MouseY int
	DeltaX, DeltaY float32
	Wheel          float32
	Inside         bool
	Focused        bool

	buttons map[uint8]bool
	held    map[Key]bool
	pressed map[Key]bool
}

// NewState returns a state with the pointer inside a focused viewport.
func NewState() *State {
	return &State{
		Inside:  true,
		Focused: true,
		buttons: make(map[uint8]bool),
		held:    make(map[Key]bool),
		pressed: make(map[Key]bool),
	}
}

// Apply folds one event into the state.
func (s *State) Apply(e Event) {
	switch e.Type {
	case EventKeyDown:
		if !s.held[e.Key] {
			s.pressed[e.Key] = true
		}
		s.held[e.Key] = true
	case EventKeyUp:
		delete(s.held, e.Key)
	case EventMouseMove:
		s.MouseX, s.MouseY = e.MouseX, e.MouseY
		s.DeltaX += e.DeltaX
		s.DeltaY += e.DeltaY
	case EventMouseDown:
		s.buttons[e.Button] = true
	case EventMouseUp:
		delete(s.buttons, e.Button)
	case EventMouseWheel:
		s.Wheel += e.DeltaY
	case EventMouseEnter:
		s.Inside = true
	case EventMouseLeave:
		s.Inside = false
		clear(s.buttons)
	case EventFocusGained:
		s.Focused = true
	case EventFocusLost:
		s.Focused = false
		clear(s.held)
		clear(s.buttons)
	}
}

// Held reports whether k is down.
func (s *State) Held(k Key) bool {
	return s.held[k]
}

// Pressed reports whether k went down since the last EndTick.
func (s *State) Pressed(k Key) bool {
	return s.pressed[k]
}

// Button reports whether a mouse button is down.
func (s *State) Button(b uint8) bool {
	return s.buttons[b]
}

// Axis returns +1 when pos is held, -1 when neg is held, 0 for both or neither.
func (s *State) Axis(pos, neg Key) float32 {
	var v float32
	if s.held[pos] {
		v++
	}
	if s.held[neg] {
		v--
	}
	return v
}

// EndTick clears per-tick deltas and key presses.
func (s *State) EndTick() {
	s.DeltaX, s.DeltaY, s.Wheel = 0, 0, 0
	clear(s.pressed)
}
