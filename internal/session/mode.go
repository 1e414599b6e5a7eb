package session

// Mode says which conversational surface currently owns the chat.
type Mode string

const (
	// ModeIdle means no flow is active; text goes to the answer resolver.
	ModeIdle Mode = "idle"
	// ModeOrdering means the user is browsing the catalog and cart.
	ModeOrdering Mode = "ordering"
	// ModeWizard means the preorder wizard owns every incoming event.
	ModeWizard Mode = "wizard"
	// ModeFreeChat means the user explicitly asked to chat with the bot.
	ModeFreeChat Mode = "free_chat"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeIdle, ModeOrdering, ModeWizard, ModeFreeChat:
		return true
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}
