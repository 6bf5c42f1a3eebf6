package executor

import (
	"image"

	"github.com/v0xg/autofill/internal/fill"
)

// ActionKind names one simulated interaction
type ActionKind string

const (
	ActionFocus  ActionKind = "focus"
	ActionBlur   ActionKind = "blur"
	ActionType   ActionKind = "type"
	ActionClick  ActionKind = "click"
	ActionPress  ActionKind = "press"
	ActionSelect ActionKind = "select"
)

// CursorPosition represents the cursor state at a point in time
type CursorPosition struct {
	X     int
	Y     int
	State CursorState
	Click bool // Whether a click happened at this position
}

// CursorState represents the visual state of the cursor
type CursorState int

const (
	CursorDefault CursorState = iota
	CursorPointer
	CursorText
)

// Frame is a screenshot taken right after an interaction settled
type Frame struct {
	Image  image.Image
	Cursor CursorPosition
	Target image.Rectangle // bounding box of the element acted on
	Handle fill.Handle
	Action ActionKind
}
