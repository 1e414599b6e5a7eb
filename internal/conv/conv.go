// Package conv holds the conversation primitives shared by the chat
// dispatcher and the domain services: incoming events, outgoing replies
// and the callback action encoding used on inline keyboard buttons.
package conv

import "strings"

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange entry kept in the session history.
type Turn struct {
	Role    Role
	Content string
}

// Button is a single inline keyboard button.
type Button struct {
	Label string
	Data  string
}

// Reply is what the dispatcher hands back to the transport layer.
type Reply struct {
	Text    string
	Buttons [][]Button
}

// Row is a convenience constructor for a one-row button layout.
func Row(buttons ...Button) [][]Button {
	return [][]Button{buttons}
}

// Event is a normalized incoming update. Exactly one of Text or
// CallbackData is meaningful per event.
type Event struct {
	SessionID    string
	ChatID       int64
	DisplayName  string
	Text         string
	CallbackData string
	CallbackID   string
}

// IsCallback reports whether the event came from a button press.
func (e Event) IsCallback() bool {
	return e.CallbackData != ""
}

func joinData(parts ...string) string {
	return strings.Join(parts, "_")
}
