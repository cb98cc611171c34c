package lockdown

import "strings"

// GestureKind classifies the raw input gesture reported by the host shell.
type GestureKind string

const (
	GestureKey         GestureKind = "key"
	GestureContextMenu GestureKind = "context-menu"
	GestureSelect      GestureKind = "select"
	GestureDrag        GestureKind = "drag"
)

// Gesture is one candidate input gesture observed by the host shell. Key is
// the normalized key name ("c", "F12", "PrintScreen", ...) for key gestures.
type Gesture struct {
	Kind  GestureKind
	Key   string
	Ctrl  bool
	Shift bool
}

// Blocked reports whether the gesture must be suppressed during an exam,
// and the candidate-visible notice to surface when it is. Select and drag
// gestures are suppressed silently.
func Blocked(g Gesture) (bool, string) {
	switch g.Kind {
	case GestureContextMenu:
		return true, "Right-click is disabled during the test"
	case GestureSelect, GestureDrag:
		return true, ""
	}

	if g.Key == "F12" {
		return true, "Developer tools are disabled during the test"
	}
	if g.Key == "PrintScreen" {
		return true, "Screenshots are not allowed during the test"
	}
	if g.Ctrl && g.Shift {
		switch strings.ToUpper(g.Key) {
		case "I", "J", "C":
			return true, "Developer tools are disabled during the test"
		}
		return false, ""
	}
	if g.Ctrl {
		switch strings.ToLower(g.Key) {
		case "c", "v", "x", "a", "s":
			return true, "This action is not allowed during the test"
		case "u":
			return true, "Developer tools are disabled during the test"
		}
	}
	return false, ""
}
